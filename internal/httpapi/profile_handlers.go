package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"afyalink.org/internal/audit"
	"afyalink.org/internal/auth"
	"afyalink.org/internal/store"
)

type profilePatchRequest struct {
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Language *string `json:"language,omitempty"`
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.getProfile(w, r)
	case http.MethodPatch:
		a.patchProfile(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch)
	}
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	p, err := a.store.Profiles(r.Context()).Find(r.Context(), userID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) patchProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req profilePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := store.ProfilePatch{Name: req.Name, Bio: req.Bio}
	if req.Role != nil {
		role := store.Role(strings.TrimSpace(*req.Role))
		if !role.Valid() {
			writeError(w, r, http.StatusBadRequest, "unknown role")
			return
		}
		patch.Role = &role
	}
	if req.Language != nil {
		lang := store.Language(strings.TrimSpace(*req.Language))
		if !lang.Valid() {
			writeError(w, r, http.StatusBadRequest, "unsupported language")
			return
		}
		patch.Language = &lang
	}
	if patch.IsZero() {
		writeError(w, r, http.StatusBadRequest, "no fields to update")
		return
	}

	profiles := a.store.Profiles(r.Context())
	if err := profiles.Update(r.Context(), userID, patch); err != nil {
		handleStoreError(w, r, err)
		return
	}

	p, err := profiles.Find(r.Context(), userID)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "profile.update", map[string]any{"user_id": userID})

	writeJSON(w, http.StatusOK, p)
}

func handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
