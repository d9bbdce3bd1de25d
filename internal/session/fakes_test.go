package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/health-record-sharing/internal/directory"
	"github.com/hackgods/health-record-sharing/internal/healthrecord"
)

type memRepo struct {
	mu        sync.Mutex
	data      map[string]Session
	createErr error
	deleteErr error
}

func newMemRepo() *memRepo {
	return &memRepo{data: make(map[string]Session)}
}

func (m *memRepo) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.data[s.Token]; ok {
		return ErrTokenConflict
	}
	m.data[s.Token] = *s
	return nil
}

func (m *memRepo) GetByToken(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *memRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	for token, s := range m.data {
		if s.ExpiresAt.Before(now) {
			delete(m.data, token)
			n++
		}
	}
	return n, nil
}

func (m *memRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type fakePatients map[uuid.UUID]directory.Patient

func (f fakePatients) GetPatient(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	p, ok := f[id]
	if !ok {
		return nil, directory.ErrPatientNotFound
	}
	return &p, nil
}

type fakeRecords map[uuid.UUID]*healthrecord.RecordView

func (f fakeRecords) Aggregate(_ context.Context, patientID uuid.UUID) (*healthrecord.RecordView, error) {
	v, ok := f[patientID]
	if !ok {
		return nil, healthrecord.ErrRecordNotFound
	}
	return v, nil
}

// clock is a settable time source shared by service and reaper in tests.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
