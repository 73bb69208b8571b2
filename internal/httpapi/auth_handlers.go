package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"afyalink.org/internal/audit"
	"afyalink.org/internal/auth"
	"afyalink.org/internal/store"
)

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	Language string `json:"language,omitempty"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Session *auth.Session      `json:"session"`
	Profile *store.UserProfile `json:"profile,omitempty"`
}

// handleSignUp registers an identity and its profile row in one step. When
// the profile insert fails the account still exists; the client is told so it
// can retry profile setup instead of re-registering.
func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, r, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	role := store.Role(req.Role)
	if role == "" {
		role = store.RolePatient
	}
	if !role.Valid() {
		writeError(w, r, http.StatusBadRequest, "unknown role")
		return
	}
	lang := store.Language(req.Language)
	if lang == "" {
		lang = store.LanguageEnglish
	}
	if !lang.Valid() {
		writeError(w, r, http.StatusBadRequest, "unsupported language")
		return
	}

	sess, err := a.provider.SignUp(r.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			writeError(w, r, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "sign-up failed")
		return
	}

	profile := &store.UserProfile{
		ID:       sess.UserID,
		Email:    sess.Email,
		Name:     strings.TrimSpace(req.Name),
		Role:     role,
		Language: lang,
	}
	if err := a.store.Profiles(r.Context()).Create(r.Context(), profile); err != nil {
		_ = audit.LogEvent(r.Context(), "auth.signup.profile_failed", map[string]any{
			"user_id": sess.UserID, "error": err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "account created but profile setup failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"user_id": sess.UserID, "role": string(role),
	})

	writeJSON(w, http.StatusCreated, sessionResponse{Session: sess, Profile: profile})
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := a.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "sign-in failed")
		return
	}

	// The profile may be missing for accounts whose setup failed halfway.
	// Sign-in still succeeds; the session ships without a profile.
	resp := sessionResponse{Session: sess}
	if p, err := a.store.Profiles(r.Context()).Find(r.Context(), sess.UserID); err == nil {
		resp.Profile = p
	}

	_ = audit.LogEvent(r.Context(), "auth.signin", map[string]any{"user_id": sess.UserID})

	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	if err := a.provider.SignOut(r.Context()); err != nil {
		writeError(w, r, http.StatusInternalServerError, "sign-out failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.signout", nil)

	writeJSON(w, http.StatusOK, map[string]any{"status": "signed_out"})
}

func (a *API) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	sess, err := a.provider.CurrentSession(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session lookup failed")
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusOK, map[string]any{"session": nil})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess})
}
