package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/health-record-sharing/internal/healthrecord"
	"github.com/hackgods/health-record-sharing/internal/session"
)

// maxBodyBytes caps JSON request bodies; visit reports carry URLs, not files.
const maxBodyBytes = 1 << 20

type RecordService interface {
	CreateRecord(ctx context.Context, patientID uuid.UUID, in healthrecord.RecordInput) (*healthrecord.HealthRecord, error)
	UpdateRecord(ctx context.Context, patientID uuid.UUID, in healthrecord.RecordInput) error
	GetRecord(ctx context.Context, patientID uuid.UUID) (*healthrecord.RecordView, error)
	AddVisit(ctx context.Context, doctorID uuid.UUID, in healthrecord.VisitInput) (*healthrecord.DoctorVisit, error)
	AddNote(ctx context.Context, doctorID, patientID uuid.UUID, text string) (*healthrecord.Note, error)
}

type SessionService interface {
	CreateSession(ctx context.Context, patientID uuid.UUID) (*session.Session, error)
	ResolveSession(ctx context.Context, token string) (*session.SharedRecord, error)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

// caller is only reached behind Authenticate, so the principal is always set.
func caller(r *http.Request) uuid.UUID {
	p, _ := principalFrom(r.Context())
	return p.ID
}

func createRecordHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req healthrecord.RecordInput
		if !decodeJSON(w, r, &req) {
			return
		}

		rec, err := svc.CreateRecord(r.Context(), caller(r), req)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, RecordResponse{HealthRecord: RecordJSON{
			ID:               rec.ID,
			PatientID:        rec.PatientID,
			Demographics:     rec.Demographics,
			Allergies:        rec.Allergies,
			Insurance:        rec.Insurance,
			EmergencyContact: rec.EmergencyContact,
			CreatedAt:        rec.CreatedAt,
			UpdatedAt:        rec.UpdatedAt,
		}})
	}
}

func updateRecordHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req healthrecord.RecordInput
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := svc.UpdateRecord(r.Context(), caller(r), req); err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "health record updated"})
	}
}

func getRecordHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.GetRecord(r.Context(), caller(r))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, RecordViewResponse{
			HealthRecord: view,
			HasVisits:    view.HasVisits,
			HasNotes:     view.HasNotes,
		})
	}
}

func addVisitHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req healthrecord.VisitInput
		if !decodeJSON(w, r, &req) {
			return
		}

		visit, err := svc.AddVisit(r.Context(), caller(r), req)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, VisitResponse{Visit: visit})
	}
}

func addNoteHandler(svc RecordService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddNoteRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		patientID, err := uuid.Parse(req.UserID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a valid UUID")
			return
		}

		note, err := svc.AddNote(r.Context(), caller(r), patientID, req.Note)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, NoteResponse{Note: note})
	}
}

func createSessionHandler(svc SessionService, shareBaseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.CreateSession(r.Context(), caller(r))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, SessionResponse{
			Token:     sess.Token,
			ExpiresAt: sess.ExpiresAt,
			ShareURL:  shareBaseURL + "/patient-record/" + sess.Token,
		})
	}
}

func resolveSessionHandler(svc SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		shared, err := svc.ResolveSession(r.Context(), token)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, SharedRecordResponse{
			Patient:      shared.Patient,
			HealthRecord: shared.Record,
			HasVisits:    shared.Record.HasVisits,
			HasNotes:     shared.Record.HasNotes,
		})
	}
}
