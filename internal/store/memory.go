package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"afyalink.org/internal/ids"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety. It backs tests
// and the smoke tool; the Postgres store is the durable implementation.
type InMemory struct {
	mu           sync.RWMutex
	profiles     map[string][]*UserProfile // id -> rows (slice keeps the exactly-one invariant testable)
	appointments map[string]*Appointment
	journal      []*JournalEntry
	symptoms     []*SymptomLog
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		profiles:     make(map[string][]*UserProfile),
		appointments: make(map[string]*Appointment),
	}
}

func (s *InMemory) Profiles(ctx context.Context) ProfileStore { return (*memProfiles)(s) }
func (s *InMemory) Appointments(ctx context.Context) AppointmentStore {
	return (*memAppointments)(s)
}
func (s *InMemory) Journal(ctx context.Context) JournalStore { return (*memJournal)(s) }
func (s *InMemory) Symptoms(ctx context.Context) SymptomStore { return (*memSymptoms)(s) }

// InjectDuplicateProfile adds a second row for an id. Test hook for the
// exactly-one-row invariant.
func (s *InMemory) InjectDuplicateProfile(p UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = append(s.profiles[p.ID], &p)
}

// Profile store -------------------------------------------------------------

type memProfiles InMemory

func (s *memProfiles) Create(ctx context.Context, p *UserProfile) error {
	if p.ID == "" {
		return ErrInvalidInput
	}
	if !p.Role.Valid() || !p.Language.Valid() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.profiles[p.ID]) > 0 {
		return ErrConflict
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	row := *p
	s.profiles[p.ID] = []*UserProfile{&row}
	return nil
}

func (s *memProfiles) Find(ctx context.Context, id string) (*UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.profiles[id]
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		out := *rows[0]
		return &out, nil
	default:
		return nil, ErrConflict
	}
}

func (s *memProfiles) Update(ctx context.Context, id string, patch ProfilePatch) error {
	if patch.Role != nil && !patch.Role.Valid() {
		return ErrInvalidInput
	}
	if patch.Language != nil && !patch.Language.Valid() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.profiles[id]
	if len(rows) == 0 {
		return ErrNotFound
	}
	merged := rows[0].Merge(patch)
	*rows[0] = merged
	return nil
}

// Appointment store ---------------------------------------------------------

type memAppointments InMemory

func (s *memAppointments) Create(ctx context.Context, a *Appointment) error {
	if a.UserID == "" || a.DoctorID == "" || a.Datetime.IsZero() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !a.Status.Valid() {
		return ErrInvalidInput
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	row := *a
	s.appointments[a.ID] = &row
	return nil
}

func (s *memAppointments) Find(ctx context.Context, id string) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *row
	return &out, nil
}

func (s *memAppointments) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Appointment
	for _, a := range s.appointments {
		if a.UserID == userID {
			res = append(res, *a)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Datetime.Before(res[j].Datetime) })
	return res, nil
}

func (s *memAppointments) Update(ctx context.Context, id string, patch AppointmentPatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.appointments[id]
	if !ok {
		return ErrNotFound
	}
	merged := row.Merge(patch)
	*row = merged
	return nil
}

// Journal store -------------------------------------------------------------

type memJournal InMemory

func (s *memJournal) Create(ctx context.Context, e *JournalEntry) error {
	if e.UserID == "" || e.Entry == "" {
		return ErrInvalidInput
	}
	if e.Mood < 1 || e.Mood > 10 {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Date == "" {
		e.Date = e.CreatedAt.Format(DateFormat)
	}
	row := *e
	s.journal = append(s.journal, &row)
	return nil
}

func (s *memJournal) ListByUser(ctx context.Context, userID string) ([]JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []JournalEntry
	for _, e := range s.journal {
		if e.UserID == userID {
			res = append(res, *e)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

// Symptom store -------------------------------------------------------------

type memSymptoms InMemory

func (s *memSymptoms) Create(ctx context.Context, log *SymptomLog) error {
	if log.UserID == "" || len(log.Symptoms) == 0 {
		return ErrInvalidInput
	}
	if log.Severity < 1 || log.Severity > 10 {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.ID == "" {
		log.ID = ids.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if log.Date == "" {
		log.Date = log.CreatedAt.Format(DateFormat)
	}
	row := *log
	row.Symptoms = append([]string(nil), log.Symptoms...)
	s.symptoms = append(s.symptoms, &row)
	return nil
}

func (s *memSymptoms) LatestByUser(ctx context.Context, userID string) (*SymptomLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.symptoms) - 1; i >= 0; i-- {
		if s.symptoms[i].UserID == userID {
			out := *s.symptoms[i]
			out.Symptoms = append([]string(nil), s.symptoms[i].Symptoms...)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}
