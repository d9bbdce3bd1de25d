package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/health-record-sharing/internal/directory"
	"github.com/hackgods/health-record-sharing/internal/healthrecord"
	"github.com/hackgods/health-record-sharing/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// invalidSessionMessage is shared by unknown and expired tokens so a caller
// cannot tell the two apart.
const invalidSessionMessage = "share link is invalid or has expired"

// handleServiceError maps domain errors to HTTP responses. Anything unmapped
// is logged with the request id and answered with a generic 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrSessionExpired):
		writeError(w, http.StatusNotFound, "invalid_session", invalidSessionMessage)
	case errors.Is(err, healthrecord.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, healthrecord.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "record_not_found", err.Error())
	case errors.Is(err, healthrecord.ErrRecordExists):
		writeError(w, http.StatusConflict, "record_exists", err.Error())
	case errors.Is(err, healthrecord.ErrNotAssignedDoctor):
		writeError(w, http.StatusForbidden, "not_assigned_doctor", err.Error())
	case errors.Is(err, directory.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, directory.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, directory.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, session.ErrTokenConflict):
		writeError(w, http.StatusConflict, "token_conflict", "could not issue a share link, please retry")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
