package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/health-record-sharing/internal/directory"
	"github.com/hackgods/health-record-sharing/internal/healthrecord"
)

// Session is a time-limited grant that lets whoever holds Token read the
// patient's aggregated record until ExpiresAt.
type Session struct {
	Token     string    `json:"token"`
	PatientID uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer usable at now.
// A session is invalid from the exact instant of ExpiresAt.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// PatientSummary is the subset of the patient profile exposed through a share link.
type PatientSummary struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender"`
	DOB    string `json:"dob"`
}

func summarize(p directory.Patient) PatientSummary {
	return PatientSummary{Name: p.Name, Email: p.Email, Gender: p.Gender, DOB: p.DOB}
}

// SharedRecord is what a doctor sees after resolving a share token.
type SharedRecord struct {
	Patient PatientSummary           `json:"patient"`
	Record  *healthrecord.RecordView `json:"health_record"`
}
