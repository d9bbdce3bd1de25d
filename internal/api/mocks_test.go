package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hackgods/health-record-sharing/internal/healthrecord"
	"github.com/hackgods/health-record-sharing/internal/session"
)

var _ RecordService = (*mockRecords)(nil)
var _ SessionService = (*mockSessions)(nil)

type mockRecords struct {
	mock.Mock
}

func (m *mockRecords) CreateRecord(ctx context.Context, patientID uuid.UUID, in healthrecord.RecordInput) (*healthrecord.HealthRecord, error) {
	args := m.Called(ctx, patientID, in)
	rec, _ := args.Get(0).(*healthrecord.HealthRecord)
	return rec, args.Error(1)
}

func (m *mockRecords) UpdateRecord(ctx context.Context, patientID uuid.UUID, in healthrecord.RecordInput) error {
	return m.Called(ctx, patientID, in).Error(0)
}

func (m *mockRecords) GetRecord(ctx context.Context, patientID uuid.UUID) (*healthrecord.RecordView, error) {
	args := m.Called(ctx, patientID)
	v, _ := args.Get(0).(*healthrecord.RecordView)
	return v, args.Error(1)
}

func (m *mockRecords) AddVisit(ctx context.Context, doctorID uuid.UUID, in healthrecord.VisitInput) (*healthrecord.DoctorVisit, error) {
	args := m.Called(ctx, doctorID, in)
	v, _ := args.Get(0).(*healthrecord.DoctorVisit)
	return v, args.Error(1)
}

func (m *mockRecords) AddNote(ctx context.Context, doctorID, patientID uuid.UUID, text string) (*healthrecord.Note, error) {
	args := m.Called(ctx, doctorID, patientID, text)
	n, _ := args.Get(0).(*healthrecord.Note)
	return n, args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) CreateSession(ctx context.Context, patientID uuid.UUID) (*session.Session, error) {
	args := m.Called(ctx, patientID)
	s, _ := args.Get(0).(*session.Session)
	return s, args.Error(1)
}

func (m *mockSessions) ResolveSession(ctx context.Context, token string) (*session.SharedRecord, error) {
	args := m.Called(ctx, token)
	s, _ := args.Get(0).(*session.SharedRecord)
	return s, args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}
