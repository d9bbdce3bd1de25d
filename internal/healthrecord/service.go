package healthrecord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/health-record-sharing/internal/directory"
)

var (
	// ErrNotAssignedDoctor is returned when a doctor records a visit for an
	// appointment booked with someone else.
	ErrNotAssignedDoctor = errors.New("doctor is not assigned to this appointment")
	ErrEmptyNote         = fmt.Errorf("%w: note is required", ErrInvalidInput)
)

type Service struct {
	repo         Repository
	doctors      directory.Doctors
	appointments directory.Appointments
	aggregator   *Aggregator
	log          zerolog.Logger
	now          func() time.Time
}

func NewService(repo Repository, doctors directory.Doctors, appointments directory.Appointments, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		doctors:      doctors,
		appointments: appointments,
		aggregator:   NewAggregator(repo, doctors, appointments),
		log:          log.With().Str("component", "healthrecord").Logger(),
		now:          time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Aggregator exposes the read side so the session resolver shares one instance.
func (s *Service) Aggregator() *Aggregator {
	return s.aggregator
}

// CreateRecord creates the patient's first record. It never overwrites.
func (s *Service) CreateRecord(ctx context.Context, patientID uuid.UUID, in RecordInput) (*HealthRecord, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByPatient(ctx, patientID); err == nil {
		return nil, ErrRecordExists
	} else if !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("load health record: %w", err)
	}

	now := s.now().UTC()
	rec := &HealthRecord{
		ID:               uuid.New(),
		PatientID:        patientID,
		Demographics:     in.Demographics,
		Allergies:        in.Allergies,
		Insurance:        in.Insurance,
		EmergencyContact: in.EmergencyContact,
		DoctorVisits:     []DoctorVisit{},
		Notes:            []Note{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrRecordExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create health record: %w", err)
	}

	s.log.Info().Str("patient_id", patientID.String()).Msg("health record created")
	return rec, nil
}

// UpdateRecord replaces demographics, allergies, insurance and emergency
// contact. It fails with ErrRecordNotFound when the patient has no record yet;
// records are only ever created through CreateRecord.
func (s *Service) UpdateRecord(ctx context.Context, patientID uuid.UUID, in RecordInput) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	if err := s.repo.UpdateDetails(ctx, patientID, in, s.now().UTC()); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("update health record: %w", err)
	}
	return nil
}

// GetRecord returns the patient's own aggregated record.
func (s *Service) GetRecord(ctx context.Context, patientID uuid.UUID) (*RecordView, error) {
	view, err := s.aggregator.Aggregate(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("aggregate health record: %w", err)
	}
	return view, nil
}

// AddVisit records a visit by the appointment's own doctor and marks the
// appointment completed. Nothing is written unless every check passes.
func (s *Service) AddVisit(ctx context.Context, doctorID uuid.UUID, in VisitInput) (*DoctorVisit, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	appt, err := s.appointments.GetAppointment(ctx, in.AppointmentID)
	if err != nil {
		if errors.Is(err, directory.ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, directory.ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if appt.DoctorID != doctorID {
		return nil, ErrNotAssignedDoctor
	}

	now := s.now().UTC()
	reports := make([]Report, 0, len(in.Reports))
	for _, r := range in.Reports {
		if r.UploadedAt.IsZero() {
			r.UploadedAt = now
		}
		reports = append(reports, r)
	}

	visit := DoctorVisit{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		DoctorID:      doctorID,
		CreatedAt:     now,
		Diagnosis:     strings.TrimSpace(in.Diagnosis),
		Prescriptions: nonNil(in.Prescriptions),
		Remarks:       strings.TrimSpace(in.Remarks),
		Reports:       reports,
	}

	if err := s.repo.AppendVisit(ctx, appt.PatientID, visit, now); err != nil {
		if errors.Is(err, ErrRecordNotFound) || errors.Is(err, directory.ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("append visit: %w", err)
	}

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("patient_id", appt.PatientID.String()).
		Msg("doctor visit recorded")

	return &visit, nil
}

// AddNote appends a free-text note authored by doctorID to the patient's record.
func (s *Service) AddNote(ctx context.Context, doctorID, patientID uuid.UUID, text string) (*Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyNote
	}
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	if _, err := s.doctors.GetDoctor(ctx, doctorID); err != nil {
		if errors.Is(err, directory.ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	now := s.now().UTC()
	note := Note{
		ID:        uuid.New(),
		CreatedBy: doctorID,
		Note:      text,
		CreatedAt: now,
	}

	if err := s.repo.AppendNote(ctx, patientID, note, now); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("append note: %w", err)
	}

	return &note, nil
}
