package healthrecord

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRecordNotFound = errors.New("health record not found")
	ErrRecordExists   = errors.New("health record already exists")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Create fails with ErrRecordExists if the patient already has a record.
	Create(ctx context.Context, rec *HealthRecord) error
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*HealthRecord, error)

	// UpdateDetails replaces the patient-editable fields only.
	UpdateDetails(ctx context.Context, patientID uuid.UUID, in RecordInput, now time.Time) error

	// AppendVisit appends v to the patient's record and marks the appointment
	// completed as one atomic unit.
	AppendVisit(ctx context.Context, patientID uuid.UUID, v DoctorVisit, now time.Time) error
	AppendNote(ctx context.Context, patientID uuid.UUID, n Note, now time.Time) error
}
