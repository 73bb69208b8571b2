package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"afyalink.org/internal/audit"
	"afyalink.org/internal/auth"
	"afyalink.org/internal/store"
)

type createAppointmentRequest struct {
	DoctorID string    `json:"doctor_id"`
	Datetime time.Time `json:"datetime"`
	Notes    string    `json:"notes,omitempty"`
}

type appointmentPatchRequest struct {
	Datetime *time.Time `json:"datetime,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
	Status   *string    `json:"status,omitempty"`
}

type createJournalRequest struct {
	Entry string `json:"entry"`
	Mood  int    `json:"mood"`
}

type logSymptomsRequest struct {
	Symptoms []string `json:"symptoms"`
	Severity int      `json:"severity"`
}

type listResponse[T any] struct {
	Items []T       `json:"items"`
	AsOf  time.Time `json:"as_of"`
}

func (a *API) handleAppointmentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAppointments(w, r)
	case http.MethodPost:
		a.createAppointment(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAppointmentResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/appointments/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPatch:
		a.patchAppointment(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodPatch)
	}
}

func (a *API) listAppointments(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	items, err := a.store.Appointments(r.Context()).ListByUser(r.Context(), userID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[store.Appointment]{Items: items, AsOf: time.Now().UTC()})
}

func (a *API) createAppointment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createAppointmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.DoctorID) == "" {
		writeError(w, r, http.StatusBadRequest, "doctor_id is required")
		return
	}
	if req.Datetime.IsZero() {
		writeError(w, r, http.StatusBadRequest, "datetime is required")
		return
	}

	record := &store.Appointment{
		UserID:   userID,
		DoctorID: strings.TrimSpace(req.DoctorID),
		Datetime: req.Datetime.UTC(),
		Notes:    req.Notes,
		Status:   store.StatusScheduled,
	}
	if err := a.store.Appointments(r.Context()).Create(r.Context(), record); err != nil {
		handleStoreError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "appointment.create", map[string]any{
		"appointment_id": record.ID, "doctor_id": record.DoctorID,
	})

	w.Header().Set("Location", "/v1/appointments/"+record.ID)
	writeJSON(w, http.StatusCreated, record)
}

// patchAppointment applies a partial update. Status may only move off
// scheduled; completed and cancelled are terminal.
// isAdmin trusts a role claim when the token carries one and otherwise falls
// back to the caller's profile. Tokens issued at sign-up predate the profile
// row, so the claim alone is not enough.
func (a *API) isAdmin(ctx context.Context, userID string) bool {
	if auth.HasRole(ctx, string(store.RoleAdmin)) {
		return true
	}
	profile, err := a.store.Profiles(ctx).Find(ctx, userID)
	return err == nil && profile.Role == store.RoleAdmin
}

func (a *API) patchAppointment(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req appointmentPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.AppointmentPatch{Notes: req.Notes}
	if req.Datetime != nil {
		dt := req.Datetime.UTC()
		patch.Datetime = &dt
	}
	if req.Status != nil {
		status := store.AppointmentStatus(*req.Status)
		if !status.Valid() {
			writeError(w, r, http.StatusBadRequest, "unknown status")
			return
		}
		patch.Status = &status
	}
	if patch.IsZero() {
		writeError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}

	appointments := a.store.Appointments(r.Context())
	current, err := appointments.Find(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if current.UserID != userID && !a.isAdmin(r.Context(), userID) {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if patch.Status != nil && current.Status != store.StatusScheduled {
		writeError(w, r, http.StatusConflict, "appointment is already "+string(current.Status))
		return
	}

	if err := appointments.Update(r.Context(), id, patch); err != nil {
		handleStoreError(w, r, err)
		return
	}

	updated := current.Merge(patch)

	_ = audit.LogEvent(r.Context(), "appointment.update", map[string]any{
		"appointment_id": id, "status": string(updated.Status),
	})

	writeJSON(w, http.StatusOK, updated)
}

func (a *API) handleJournal(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		items, err := a.store.Journal(r.Context()).ListByUser(r.Context(), userID)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listResponse[store.JournalEntry]{Items: items, AsOf: time.Now().UTC()})
	case http.MethodPost:
		var req createJournalRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Entry) == "" {
			writeError(w, r, http.StatusBadRequest, "entry is required")
			return
		}

		record := &store.JournalEntry{UserID: userID, Entry: req.Entry, Mood: req.Mood}
		if err := a.store.Journal(r.Context()).Create(r.Context(), record); err != nil {
			handleStoreError(w, r, err)
			return
		}

		_ = audit.LogEvent(r.Context(), "journal.create", map[string]any{"entry_id": record.ID})

		writeJSON(w, http.StatusCreated, record)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleSymptoms(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		latest, err := a.store.Symptoms(r.Context()).LatestByUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeJSON(w, http.StatusOK, map[string]any{"latest": nil, "catalog": store.SymptomCatalog})
				return
			}
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"latest": latest, "catalog": store.SymptomCatalog})
	case http.MethodPost:
		var req logSymptomsRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.Symptoms) == 0 {
			writeError(w, r, http.StatusBadRequest, "at least one symptom is required")
			return
		}

		record := &store.SymptomLog{UserID: userID, Symptoms: req.Symptoms, Severity: req.Severity}
		if err := a.store.Symptoms(r.Context()).Create(r.Context(), record); err != nil {
			handleStoreError(w, r, err)
			return
		}

		_ = audit.LogEvent(r.Context(), "symptoms.log", map[string]any{
			"log_id": record.ID, "count": len(record.Symptoms),
		})

		writeJSON(w, http.StatusCreated, record)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
