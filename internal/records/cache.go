package records

import (
	"context"
	"errors"
	"sync"
	"time"

	"afyalink.org/internal/obs"
	"afyalink.org/internal/store"
)

// Cache fetches and holds the three record collections for the current user:
// appointments, journal entries and the last submitted symptom set. It is a
// convenience cache, not a source of truth; row visibility and uniqueness are
// enforced by the backing store.
type Cache struct {
	store       store.Store
	currentUser func() string

	mu           sync.RWMutex
	appointments []store.Appointment
	journal      []store.JournalEntry
	lastSymptoms []string
	loading      bool
}

// New constructs a cache. currentUser resolves the user id the collections are
// scoped to; it is consulted on every call, so the cache follows the session.
func New(st store.Store, currentUser func() string) *Cache {
	return &Cache{store: st, currentUser: currentUser}
}

// Loading reports whether a collection fetch is in flight.
func (c *Cache) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Appointments returns a copy of the cached appointment list. Order reflects
// the last full fetch; a create may leave the tail out of datetime order until
// the next fetch.
func (c *Cache) Appointments() []store.Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]store.Appointment(nil), c.appointments...)
}

// JournalEntries returns a copy of the cached journal list, newest first.
func (c *Cache) JournalEntries() []store.JournalEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]store.JournalEntry(nil), c.journal...)
}

// LastSymptoms returns the most recently submitted symptom tags, or nil when
// nothing was logged this session.
func (c *Cache) LastSymptoms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.lastSymptoms...)
}

// FetchAppointments replaces the appointment list with the store's view,
// ascending by datetime. Fetch failures are logged, not surfaced; the list is
// cleared rather than left stale.
func (c *Cache) FetchAppointments(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)

	list, err := c.store.Appointments(ctx).ListByUser(ctx, c.currentUser())
	if err != nil {
		obs.LogEvent(map[string]any{"level": "error", "msg": "appointment fetch failed", "error": err.Error()})
		list = nil
	}

	c.mu.Lock()
	c.appointments = list
	c.mu.Unlock()
}

// CreateAppointment inserts a scheduled appointment and appends it to the end
// of the cached list. Callers must not assume sortedness afterwards.
func (c *Cache) CreateAppointment(ctx context.Context, doctorID string, datetime time.Time, notes string) (store.Appointment, error) {
	a := &store.Appointment{
		UserID:   c.currentUser(),
		DoctorID: doctorID,
		Datetime: datetime,
		Notes:    notes,
		Status:   store.StatusScheduled,
	}
	if err := c.store.Appointments(ctx).Create(ctx, a); err != nil {
		return store.Appointment{}, err
	}

	c.mu.Lock()
	c.appointments = append(c.appointments, *a)
	c.mu.Unlock()
	return *a, nil
}

// UpdateAppointment issues a partial update scoped by id and merges the result
// into the cached record. When the id is absent, locally or in the store, the
// call silently does nothing: a concurrent deletion elsewhere must not fail a
// form submission that already left the screen.
func (c *Cache) UpdateAppointment(ctx context.Context, id string, patch store.AppointmentPatch) error {
	if err := c.store.Appointments(ctx).Update(ctx, id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			obs.LogEvent(map[string]any{"level": "debug", "msg": "appointment update target missing", "id": id})
			return nil
		}
		return err
	}

	c.mu.Lock()
	for i := range c.appointments {
		if c.appointments[i].ID == id {
			c.appointments[i] = c.appointments[i].Merge(patch)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// FetchJournal replaces the journal list with the store's view, newest first.
// Same failure policy as FetchAppointments.
func (c *Cache) FetchJournal(ctx context.Context) {
	c.setLoading(true)
	defer c.setLoading(false)

	list, err := c.store.Journal(ctx).ListByUser(ctx, c.currentUser())
	if err != nil {
		obs.LogEvent(map[string]any{"level": "error", "msg": "journal fetch failed", "error": err.Error()})
		list = nil
	}

	c.mu.Lock()
	c.journal = list
	c.mu.Unlock()
}

// AddJournalEntry inserts an entry and prepends it to the cached list, which
// keeps the newest-first order exact.
func (c *Cache) AddJournalEntry(ctx context.Context, entry string, mood int) (store.JournalEntry, error) {
	e := &store.JournalEntry{UserID: c.currentUser(), Entry: entry, Mood: mood}
	if err := c.store.Journal(ctx).Create(ctx, e); err != nil {
		return store.JournalEntry{}, err
	}

	c.mu.Lock()
	c.journal = append([]store.JournalEntry{*e}, c.journal...)
	c.mu.Unlock()
	return *e, nil
}

// LogSymptoms inserts a symptom log and replaces the last-submitted set. No
// list is kept; consumers only ever display the latest submission.
func (c *Cache) LogSymptoms(ctx context.Context, symptoms []string, severity int) error {
	log := &store.SymptomLog{
		UserID:   c.currentUser(),
		Symptoms: append([]string(nil), symptoms...),
		Severity: severity,
	}
	if err := c.store.Symptoms(ctx).Create(ctx, log); err != nil {
		return err
	}

	c.mu.Lock()
	c.lastSymptoms = append([]string(nil), symptoms...)
	c.mu.Unlock()
	return nil
}

func (c *Cache) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}
