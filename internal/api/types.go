package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/health-record-sharing/internal/healthrecord"
	"github.com/hackgods/health-record-sharing/internal/session"
)

type AddNoteRequest struct {
	UserID string `json:"user_id"`
	Note   string `json:"note"`
}

type RecordResponse struct {
	HealthRecord RecordJSON `json:"health_record"`
}

type RecordViewResponse struct {
	HealthRecord *healthrecord.RecordView `json:"health_record"`
	HasVisits    bool                     `json:"has_visits"`
	HasNotes     bool                     `json:"has_notes"`
}

type VisitResponse struct {
	Visit *healthrecord.DoctorVisit `json:"visit"`
}

type NoteResponse struct {
	Note *healthrecord.Note `json:"note"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ShareURL  string    `json:"share_url"`
}

type SharedRecordResponse struct {
	Patient      session.PatientSummary   `json:"patient"`
	HealthRecord *healthrecord.RecordView `json:"health_record"`
	HasVisits    bool                     `json:"has_visits"`
	HasNotes     bool                     `json:"has_notes"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RecordJSON is a freshly created record. Field names match the aggregated view.
type RecordJSON struct {
	ID               uuid.UUID                     `json:"id"`
	PatientID        uuid.UUID                     `json:"user_id"`
	Demographics     healthrecord.Demographics     `json:"demographics"`
	Allergies        []string                      `json:"allergies"`
	Insurance        healthrecord.Insurance        `json:"insurance_details"`
	EmergencyContact healthrecord.EmergencyContact `json:"emergency_contact"`
	CreatedAt        time.Time                     `json:"created_at"`
	UpdatedAt        time.Time                     `json:"updated_at"`
}
