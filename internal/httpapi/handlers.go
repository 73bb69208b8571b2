package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"afyalink.org/api/spec"
	"afyalink.org/internal/auth"
	"afyalink.org/internal/content"
	"afyalink.org/internal/obs"
	"afyalink.org/internal/store"
)

// ReadyProbe reports backend readiness, typically a DB ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the auth provider and record store.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	provider   auth.Provider
	store      store.Store
	forum      *content.Forum

	chatMu sync.Mutex
	chats  map[string]*content.Conversation

	rateBurst    int
	ratePerSec   int
	maxBodyBytes int64
}

func New(rp ReadyProbe, version string, provider auth.Provider, st store.Store) *API {
	a := &API{
		mux:          http.NewServeMux(),
		readyProbe:   rp,
		version:      version,
		provider:     provider,
		store:        st,
		forum:        content.NewForum(),
		chats:        map[string]*content.Conversation{},
		rateBurst:    100,
		ratePerSec:   50,
		maxBodyBytes: 1 << 20,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// OpenAPI YAML
	a.mux.HandleFunc("/openapi.yaml", a.OpenAPISpec)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// account lifecycle
	a.mux.HandleFunc("/v1/auth/signup", a.handleSignUp)
	a.mux.HandleFunc("/v1/auth/signin", a.handleSignIn)
	a.mux.HandleFunc("/v1/auth/signout", a.handleSignOut)
	a.mux.HandleFunc("/v1/auth/session", a.handleSessionInfo)
	a.mux.HandleFunc("/v1/session/stream", a.Stream)

	// profile and records
	a.mux.HandleFunc("/v1/profile", a.handleProfile)
	a.mux.HandleFunc("/v1/appointments", a.handleAppointmentsCollection)
	a.mux.HandleFunc("/v1/appointments/", a.handleAppointmentResource)
	a.mux.HandleFunc("/v1/journal", a.handleJournal)
	a.mux.HandleFunc("/v1/symptoms", a.handleSymptoms)

	// guidance surfaces
	a.mux.HandleFunc("/v1/contacts", a.handleContacts)
	a.mux.HandleFunc("/v1/education", a.handleEducation)
	a.mux.HandleFunc("/v1/forum", a.handleForumCollection)
	a.mux.HandleFunc("/v1/forum/", a.handleForumResource)
	a.mux.HandleFunc("/v1/chat", a.handleChat)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// SetRateLimit overrides the per-IP token bucket before Handler is built.
func (a *API) SetRateLimit(burst, perSecond int) {
	a.rateBurst = burst
	a.ratePerSec = perSecond
}

// SetMaxBodyBytes overrides the request body cap before Handler is built.
func (a *API) SetMaxBodyBytes(n int64) {
	a.maxBodyBytes = n
}

// Handler returns the full middleware-wrapped http.Handler. Order matters:
// metrics wrap everything, auth runs after the request id exists so denials
// carry one, and the rate limiter sees the client before any body is read.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = LoggingJSON(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "afya-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "afya-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
