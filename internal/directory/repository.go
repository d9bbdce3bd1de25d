package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Patients resolves patient identity.
type Patients interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
}

// Doctors resolves doctor identity, one at a time or in bulk.
type Doctors interface {
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// DoctorsByIDs returns only the doctors that exist; missing ids are absent from the map.
	DoctorsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Doctor, error)
}

// Appointments reads appointments owned by the booking service. Completion is
// written through MarkAppointmentCompleted inside the visit transaction.
type Appointments interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// AppointmentsByIDs returns only the appointments that exist.
	AppointmentsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Appointment, error)
}
