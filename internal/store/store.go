package store

import "context"

// Store describes persistence operations required by the application.
type Store interface {
	Profiles(ctx context.Context) ProfileStore
	Appointments(ctx context.Context) AppointmentStore
	Journal(ctx context.Context) JournalStore
	Symptoms(ctx context.Context) SymptomStore
}

// ProfileStore manages user profiles.
type ProfileStore interface {
	Create(ctx context.Context, p *UserProfile) error
	// Find returns the single profile with the given id. Zero matching rows
	// yield ErrNotFound; more than one yields ErrConflict.
	Find(ctx context.Context, id string) (*UserProfile, error)
	Update(ctx context.Context, id string, patch ProfilePatch) error
}

// AppointmentStore manages appointments.
type AppointmentStore interface {
	Create(ctx context.Context, a *Appointment) error
	Find(ctx context.Context, id string) (*Appointment, error)
	// ListByUser returns the user's appointments ordered ascending by datetime.
	ListByUser(ctx context.Context, userID string) ([]Appointment, error)
	Update(ctx context.Context, id string, patch AppointmentPatch) error
}

// JournalStore manages append-only journal entries.
type JournalStore interface {
	Create(ctx context.Context, e *JournalEntry) error
	// ListByUser returns the user's entries ordered descending by created_at.
	ListByUser(ctx context.Context, userID string) ([]JournalEntry, error)
}

// SymptomStore manages append-only symptom logs.
type SymptomStore interface {
	Create(ctx context.Context, s *SymptomLog) error
	// LatestByUser returns the most recently created log, or ErrNotFound.
	LatestByUser(ctx context.Context, userID string) (*SymptomLog, error)
}
