package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"afyalink.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL and returns a store with tuned pool defaults.
func Open(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PGStore{db: db}, nil
}

// NewPGStore wraps an existing database handle.
func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) DB() *sql.DB { return s.db }

func (s *PGStore) Profiles(ctx context.Context) ProfileStore {
	return &pgProfiles{db: s.db}
}
func (s *PGStore) Appointments(ctx context.Context) AppointmentStore {
	return &pgAppointments{db: s.db}
}
func (s *PGStore) Journal(ctx context.Context) JournalStore { return &pgJournal{db: s.db} }
func (s *PGStore) Symptoms(ctx context.Context) SymptomStore {
	return &pgSymptoms{db: s.db}
}

// Profile store -------------------------------------------------------------

type pgProfiles struct{ db *sql.DB }

func (s *pgProfiles) Create(ctx context.Context, p *UserProfile) error {
	if p.ID == "" {
		return ErrInvalidInput
	}
	if !p.Role.Valid() || !p.Language.Valid() {
		return ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx,
		`insert into user_profiles(id, name, email, role, bio, language) values($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.Email, string(p.Role), p.Bio, string(p.Language),
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (s *pgProfiles) Find(ctx context.Context, id string) (*UserProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, email, role, bio, language, created_at from user_profiles where id=$1`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*UserProfile
	for rows.Next() {
		var p UserProfile
		var bio sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &bio, &p.Language, &p.CreatedAt); err != nil {
			return nil, err
		}
		if bio.Valid {
			p.Bio = bio.String
		}
		res = append(res, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(res) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return res[0], nil
	default:
		return nil, ErrConflict
	}
}

func (s *pgProfiles) Update(ctx context.Context, id string, patch ProfilePatch) error {
	if patch.Role != nil && !patch.Role.Valid() {
		return ErrInvalidInput
	}
	if patch.Language != nil && !patch.Language.Valid() {
		return ErrInvalidInput
	}
	set, args := patchClauses(map[string]any{
		"name":     strPtrValue(patch.Name),
		"role":     rolePtrValue(patch.Role),
		"bio":      strPtrValue(patch.Bio),
		"language": langPtrValue(patch.Language),
	})
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	query := `update user_profiles set ` + strings.Join(set, ", ") +
		` where id=$` + strconv.Itoa(len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

// Appointment store ---------------------------------------------------------

type pgAppointments struct{ db *sql.DB }

func (s *pgAppointments) Create(ctx context.Context, a *Appointment) error {
	if a.UserID == "" || a.DoctorID == "" || a.Datetime.IsZero() {
		return ErrInvalidInput
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !a.Status.Valid() {
		return ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx,
		`insert into appointments(id, user_id, doctor_id, datetime, notes, status) values($1,$2,$3,$4,$5,$6)`,
		a.ID, a.UserID, a.DoctorID, a.Datetime, a.Notes, string(a.Status),
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (s *pgAppointments) Find(ctx context.Context, id string) (*Appointment, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, doctor_id, datetime, notes, status, created_at from appointments where id=$1`, id,
	)
	var a Appointment
	var notes sql.NullString
	if err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.Datetime, &notes, &a.Status, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if notes.Valid {
		a.Notes = notes.String
	}
	return &a, nil
}

func (s *pgAppointments) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, user_id, doctor_id, datetime, notes, status, created_at
		 from appointments where user_id=$1 order by datetime asc`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Appointment
	for rows.Next() {
		var a Appointment
		var notes sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.Datetime, &notes, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		if notes.Valid {
			a.Notes = notes.String
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *pgAppointments) Update(ctx context.Context, id string, patch AppointmentPatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return ErrInvalidInput
	}
	set, args := patchClauses(map[string]any{
		"datetime": timePtrValue(patch.Datetime),
		"notes":    strPtrValue(patch.Notes),
		"status":   statusPtrValue(patch.Status),
	})
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	query := `update appointments set ` + strings.Join(set, ", ") +
		` where id=$` + strconv.Itoa(len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return requireRow(res)
}

// Journal store -------------------------------------------------------------

type pgJournal struct{ db *sql.DB }

func (s *pgJournal) Create(ctx context.Context, e *JournalEntry) error {
	if e.UserID == "" || e.Entry == "" {
		return ErrInvalidInput
	}
	if e.Mood < 1 || e.Mood > 10 {
		return ErrInvalidInput
	}
	if e.ID == "" {
		e.ID = ids.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Date == "" {
		e.Date = e.CreatedAt.Format(DateFormat)
	}
	_, err := s.db.ExecContext(ctx,
		`insert into journals(id, user_id, entry, mood, date) values($1,$2,$3,$4,$5)`,
		e.ID, e.UserID, e.Entry, e.Mood, e.Date,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (s *pgJournal) ListByUser(ctx context.Context, userID string) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, user_id, entry, mood, date, created_at
		 from journals where user_id=$1 order by created_at desc`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Entry, &e.Mood, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Symptom store -------------------------------------------------------------

type pgSymptoms struct{ db *sql.DB }

func (s *pgSymptoms) Create(ctx context.Context, log *SymptomLog) error {
	if log.UserID == "" || len(log.Symptoms) == 0 {
		return ErrInvalidInput
	}
	if log.Severity < 1 || log.Severity > 10 {
		return ErrInvalidInput
	}
	if log.ID == "" {
		log.ID = ids.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if log.Date == "" {
		log.Date = log.CreatedAt.Format(DateFormat)
	}
	symptoms, err := json.Marshal(log.Symptoms)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`insert into symptom_logs(id, user_id, symptoms, severity, date) values($1,$2,$3,$4,$5)`,
		log.ID, log.UserID, symptoms, log.Severity, log.Date,
	); err != nil {
		return fmt.Errorf("insert symptom log: %w", err)
	}
	return nil
}

func (s *pgSymptoms) LatestByUser(ctx context.Context, userID string) (*SymptomLog, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, symptoms, severity, date, created_at
		 from symptom_logs where user_id=$1 order by created_at desc limit 1`, userID,
	)
	var (
		log      SymptomLog
		symptoms []byte
	)
	if err := row.Scan(&log.ID, &log.UserID, &symptoms, &log.Severity, &log.Date, &log.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(symptoms, &log.Symptoms); err != nil {
		return nil, err
	}
	return &log, nil
}

// --- helpers ---

// patchClauses builds "col=$n" fragments for non-nil values, iterating in a
// fixed column order so queries stay deterministic.
func patchClauses(fields map[string]any) ([]string, []any) {
	order := []string{"name", "role", "bio", "language", "datetime", "notes", "status"}
	var (
		set  []string
		args []any
	)
	for _, col := range order {
		v, ok := fields[col]
		if !ok || v == nil {
			continue
		}
		args = append(args, v)
		set = append(set, col+"=$"+strconv.Itoa(len(args)))
	}
	return set, args
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // driver without RowsAffected support; trust the exec
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func strPtrValue(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func rolePtrValue(v *Role) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

func langPtrValue(v *Language) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

func statusPtrValue(v *AppointmentStatus) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

func timePtrValue(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}
