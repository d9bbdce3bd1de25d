package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/health-record-sharing/internal/directory"
	"github.com/hackgods/health-record-sharing/internal/healthrecord"
	"github.com/hackgods/health-record-sharing/internal/metrics"
)

// maxTokenAttempts bounds regeneration after a token collision.
const maxTokenAttempts = 3

// RecordReader is the read side of the health record service.
type RecordReader interface {
	Aggregate(ctx context.Context, patientID uuid.UUID) (*healthrecord.RecordView, error)
}

type Service struct {
	repo     Repository
	patients directory.Patients
	records  RecordReader
	ttl      time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
	newToken func() (string, error)
}

func NewService(repo Repository, patients directory.Patients, records RecordReader, ttl time.Duration, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		records:  records,
		ttl:      ttl,
		metrics:  m,
		log:      log.With().Str("component", "session").Logger(),
		now:      time.Now,
		newToken: NewToken,
	}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateSession issues a new share token for patientID, valid for the
// configured TTL. Earlier sessions of the same patient stay valid.
func (s *Service) CreateSession(ctx context.Context, patientID uuid.UUID) (*Session, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient id is required", healthrecord.ErrInvalidInput)
	}

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("generate share token: %w", err)
		}

		now := s.now().UTC()
		sess := &Session{
			Token:     token,
			PatientID: patientID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
		}

		err = s.repo.Create(ctx, sess)
		if err == nil {
			s.metrics.SessionIssued()
			s.log.Info().
				Str("patient_id", patientID.String()).
				Time("expires_at", sess.ExpiresAt).
				Msg("share session created")
			return sess, nil
		}
		if !errors.Is(err, ErrTokenConflict) {
			return nil, fmt.Errorf("store share session: %w", err)
		}
		s.log.Warn().Int("attempt", attempt).Msg("share token collision, regenerating")
	}

	return nil, ErrTokenConflict
}

// ResolveSession returns the patient summary and aggregated record behind token.
// Expiry is checked here against the clock, so a session the reaper has not
// removed yet is still refused.
func (s *Service) ResolveSession(ctx context.Context, token string) (*SharedRecord, error) {
	shared, err := s.resolve(ctx, token)
	switch {
	case err == nil:
		s.metrics.SessionResolved(metrics.OutcomeOK)
	case errors.Is(err, ErrSessionNotFound):
		s.metrics.SessionResolved(metrics.OutcomeNotFound)
	case errors.Is(err, ErrSessionExpired):
		s.metrics.SessionResolved(metrics.OutcomeExpired)
	default:
		s.metrics.SessionResolved(metrics.OutcomeError)
	}
	return shared, err
}

func (s *Service) resolve(ctx context.Context, token string) (*SharedRecord, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load share session: %w", err)
	}

	if sess.Expired(s.now()) {
		return nil, ErrSessionExpired
	}

	patient, err := s.patients.GetPatient(ctx, sess.PatientID)
	if err != nil {
		if errors.Is(err, directory.ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	view, err := s.records.Aggregate(ctx, sess.PatientID)
	if err != nil {
		if errors.Is(err, healthrecord.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("aggregate health record: %w", err)
	}

	return &SharedRecord{
		Patient: summarize(*patient),
		Record:  view,
	}, nil
}
