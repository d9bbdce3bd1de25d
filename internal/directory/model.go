package directory

import (
	"time"

	"github.com/google/uuid"
)

// Patient is the public profile of a registered user. Only these fields are
// ever exposed to a doctor through a share link.
type Patient struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Gender string    `json:"gender"`
	DOB    string    `json:"dob"`
}

type Doctor struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Speciality string    `json:"speciality"`
}

type Appointment struct {
	ID          uuid.UUID
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	SlotDate    string
	SlotTime    string
	IsCompleted bool
	Cancelled   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
