package store

import (
	"errors"
	"time"
)

// Role classifies a profile.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Language is the profile display language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageSwahili Language = "sw"
)

// Valid reports whether the language is supported.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageSwahili
}

// AppointmentStatus tracks the appointment lifecycle. Scheduled is the only
// non-terminal state.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// UserProfile is the application-level record describing a user, distinct from
// the auth session. Profile id equals the owning identity id.
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Bio       string    `json:"bio,omitempty"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfilePatch carries a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name     *string   `json:"name,omitempty"`
	Role     *Role     `json:"role,omitempty"`
	Bio      *string   `json:"bio,omitempty"`
	Language *Language `json:"language,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p ProfilePatch) IsZero() bool {
	return p.Name == nil && p.Role == nil && p.Bio == nil && p.Language == nil
}

// Merge returns the profile with the patch's set fields overwritten and all
// other fields unchanged.
func (u UserProfile) Merge(p ProfilePatch) UserProfile {
	out := u
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Bio != nil {
		out.Bio = *p.Bio
	}
	if p.Language != nil {
		out.Language = *p.Language
	}
	return out
}

// Appointment is a patient booking with a doctor.
type Appointment struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	DoctorID  string            `json:"doctor_id"`
	Datetime  time.Time         `json:"datetime"`
	Notes     string            `json:"notes,omitempty"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// AppointmentPatch carries a partial appointment update.
type AppointmentPatch struct {
	Datetime *time.Time         `json:"datetime,omitempty"`
	Notes    *string            `json:"notes,omitempty"`
	Status   *AppointmentStatus `json:"status,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p AppointmentPatch) IsZero() bool {
	return p.Datetime == nil && p.Notes == nil && p.Status == nil
}

// Merge returns the appointment with the patch's set fields overwritten.
func (a Appointment) Merge(p AppointmentPatch) Appointment {
	out := a
	if p.Datetime != nil {
		out.Datetime = *p.Datetime
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	return out
}

// JournalEntry is an append-only mental-health journal record.
type JournalEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Entry     string    `json:"entry"`
	Mood      int       `json:"mood"` // 1..10
	Date      string    `json:"date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}

// SymptomLog is an append-only symptom submission. Only the latest log per user
// is surfaced to callers.
type SymptomLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Symptoms  []string  `json:"symptoms"` // category tags, e.g. "symptoms.cramps"
	Severity  int       `json:"severity"` // 1..10
	Date      string    `json:"date"`     // YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound     = errors.New("store: not found")
	ErrConflict     = errors.New("store: conflicting rows")
	ErrInvalidInput = errors.New("store: invalid input")
)

// DateFormat is the layout for Date fields.
const DateFormat = "2006-01-02"

// SymptomCatalog lists the trackable symptom tags shown on the check-in form.
var SymptomCatalog = []string{
	"symptoms.cramps",
	"symptoms.headache",
	"symptoms.nausea",
	"symptoms.fatigue",
	"symptoms.mood",
	"symptoms.bloating",
	"symptoms.pain",
	"symptoms.irregular",
}
