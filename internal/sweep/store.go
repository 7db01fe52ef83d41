package sweep

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/evcraddock/frontdesk/internal/db"
)

// Run is one recorded sweep.
type Run struct {
	Date      string    `json:"date"`
	SignedOut int       `json:"signedOut"`
	RanAt     time.Time `json:"ranAt"`
}

// Store persists which dates have been swept.
type Store struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewStore creates a sweep run store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d.DB, dialect: d.Dialect}
}

// Get returns the run for date, or nil if that date has not been swept.
func (s *Store) Get(ctx context.Context, date string) (*Run, error) {
	var r Run
	var ranAt string
	err := s.db.QueryRowContext(ctx,
		s.dialect.Rebind("SELECT run_date, signed_out, ran_at FROM sweep_runs WHERE run_date = ?"), date,
	).Scan(&r.Date, &r.SignedOut, &ranAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sweep run %s: %w", date, err)
	}

	r.RanAt, err = time.Parse(time.RFC3339, ranAt)
	if err != nil {
		return nil, fmt.Errorf("parsing sweep run time %q: %w", ranAt, err)
	}
	return &r, nil
}

// Last returns the most recent run, or nil if none has been recorded.
func (s *Store) Last(ctx context.Context) (*Run, error) {
	var date string
	err := s.db.QueryRowContext(ctx, "SELECT run_date FROM sweep_runs ORDER BY run_date DESC LIMIT 1").Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last sweep run: %w", err)
	}
	return s.Get(ctx, date)
}

// Record stores a run. A second run on the same date adds to its count.
func (s *Store) Record(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(`
		INSERT INTO sweep_runs (run_date, signed_out, ran_at) VALUES (?, ?, ?)
		ON CONFLICT (run_date) DO UPDATE
		SET signed_out = sweep_runs.signed_out + excluded.signed_out, ran_at = excluded.ran_at`),
		r.Date, r.SignedOut, r.RanAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording sweep run: %w", err)
	}
	return nil
}
