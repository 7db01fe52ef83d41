// Package sweep signs out visitors who are still checked in at the end of the day.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

// DefaultAt is the default trigger time of day.
const DefaultAt = "15:45"

// Signer closes every open visit with the given time-out, or with late for
// visits that began after it.
type Signer interface {
	SignOutAll(ctx context.Context, timeOut, late string) ([]*visitor.Visitor, error)
}

// Config controls a Sweeper.
type Config struct {
	At       string         // HH:MM, local time
	Location *time.Location // nil = time.Local
	Interval time.Duration  // how often Run checks the clock; 0 = one minute
}

// Result reports one sweep.
type Result struct {
	Date      string `json:"date"`
	SignedOut int    `json:"signedOut"`
}

// Sweeper runs the daily sign-out at most once per date, surviving restarts
// through the run store.
type Sweeper struct {
	signer   Signer
	store    *Store
	hour     int
	minute   int
	loc      *time.Location
	interval time.Duration

	// Now supplies the wall clock; tests replace it.
	Now func() time.Time
}

// New creates a Sweeper.
func New(signer Signer, store *Store, cfg Config) (*Sweeper, error) {
	at := cfg.At
	if at == "" {
		at = DefaultAt
	}
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("parsing sweep time %q: %w", at, err)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	return &Sweeper{
		signer:   signer,
		store:    store,
		hour:     t.Hour(),
		minute:   t.Minute(),
		loc:      loc,
		interval: interval,
		Now:      time.Now,
	}, nil
}

// trigger returns the trigger instant on the day of now.
func (s *Sweeper) trigger(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, s.loc)
}

// Due reports whether the sweep for now's date should run: the trigger time
// has passed and the date has no recorded run.
func (s *Sweeper) Due(ctx context.Context, now time.Time) (bool, error) {
	now = now.In(s.loc)
	if now.Before(s.trigger(now)) {
		return false, nil
	}
	run, err := s.store.Get(ctx, now.Format(visitor.DateLayout))
	if err != nil {
		return false, err
	}
	return run == nil, nil
}

// Check runs the sweep if it is due. ran is false when nothing was done.
func (s *Sweeper) Check(ctx context.Context) (res Result, ran bool, err error) {
	now := s.Now().In(s.loc)
	due, err := s.Due(ctx, now)
	if err != nil || !due {
		return Result{}, false, err
	}
	res, err = s.sweep(ctx, now)
	if err != nil {
		return Result{}, false, err
	}
	return res, true, nil
}

// RunNow sweeps immediately. Before the trigger time visits are closed at the
// current time and the date stays open for the scheduled sweep; from the
// trigger time on, this counts as the day's sweep. Visits that began after
// the trigger are closed at the current time.
func (s *Sweeper) RunNow(ctx context.Context) (Result, error) {
	return s.sweep(ctx, s.Now().In(s.loc))
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) (Result, error) {
	date := now.Format(visitor.DateLayout)
	trigger := s.trigger(now)

	late := now.Format(visitor.TimeLayout)
	timeOut := trigger.Format(visitor.TimeLayout)
	early := now.Before(trigger)
	if early {
		timeOut = late
	}

	closed, err := s.signer.SignOutAll(ctx, timeOut, late)
	if err != nil {
		return Result{}, fmt.Errorf("signing out open visits: %w", err)
	}
	res := Result{Date: date, SignedOut: len(closed)}

	if !early {
		if err := s.store.Record(ctx, Run{Date: date, SignedOut: res.SignedOut, RanAt: now}); err != nil {
			return res, err
		}
	}

	slog.InfoContext(ctx, "sweep complete", "date", date, "signed_out", res.SignedOut, "time_out", timeOut)
	return res, nil
}

// Run checks the clock every interval until ctx is cancelled. It also checks
// once at start so a sweep missed while the server was down runs on restart.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("sweeper started", "at", fmt.Sprintf("%02d:%02d", s.hour, s.minute), "location", s.loc.String())

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if _, _, err := s.Check(ctx); err != nil {
		slog.ErrorContext(ctx, "sweep check failed", "error", err)
	}
}
