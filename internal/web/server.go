// Package web provides the HTTP server: the JSON API, the kiosk pages and the
// admin dashboard.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/evcraddock/frontdesk/internal/dashboard"
	"github.com/evcraddock/frontdesk/internal/logging"
	"github.com/evcraddock/frontdesk/internal/sweep"
	"github.com/evcraddock/frontdesk/internal/visitor"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// maxBodyBytes bounds request bodies; photos arrive inline as data URLs.
const maxBodyBytes = 5 << 20

const shutdownTimeout = 10 * time.Second

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the frontdesk HTTP server.
type Server struct {
	visitors  *visitor.Service
	sweeper   *sweep.Sweeper
	db        Pinger
	templates *template.Template
	mux       *http.ServeMux
	loc       *time.Location

	// Now supplies the wall clock; tests replace it.
	Now func() time.Time
}

// NewServer creates a web server. loc is the office time zone used for
// dashboard dates and export file names; nil means time.Local.
func NewServer(d Pinger, visitors *visitor.Service, sweeper *sweep.Sweeper, loc *time.Location) (*Server, error) {
	funcMap := template.FuncMap{
		"text":      tmplText,
		"status":    tmplStatus,
		"barWidth":  tmplBarWidth,
		"hourLabel": tmplHourLabel,
		"maxDaily":  tmplMaxDaily,
		"maxHourly": tmplMaxHourly,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}

	s := &Server{
		visitors:  visitors,
		sweeper:   sweeper,
		db:        d,
		templates: tmpl,
		mux:       http.NewServeMux(),
		loc:       loc,
		Now:       time.Now,
	}

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("creating static sub-fs: %w", err)
	}

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/visitors", s.handleAPIVisitors)
	s.mux.HandleFunc("/api/visitors/", s.handleAPIVisitors)
	s.mux.HandleFunc("/api/dashboard", s.apiDashboard)
	s.mux.HandleFunc("/api/sweep", s.apiSweep)
	s.mux.HandleFunc("/", s.handleKiosk)
	s.mux.HandleFunc("/signin", s.handleSignIn)
	s.mux.HandleFunc("/signout", s.handleSignOut)
	s.mux.HandleFunc("/admin", s.handleAdmin)
	s.mux.HandleFunc("/admin/", s.handleAdminRoute)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logging.RequestLogger(s)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting frontdesk HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("stopping frontdesk HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) now() time.Time {
	return s.Now().In(s.loc)
}

// handleHealth reports storage reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "health check failed", "error", err)
		apiJSON(w, map[string]string{"status": "error"}, http.StatusServiceUnavailable)
		return
	}
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// dashboardView loads every record and derives the dashboard for f.
func (s *Server) dashboardView(ctx context.Context, f dashboard.Filter) (dashboard.View, error) {
	records, err := s.visitors.List(ctx)
	if err != nil {
		return dashboard.View{}, err
	}
	state := dashboard.Reduce(dashboard.State{}, dashboard.Loaded{Records: records})
	state = dashboard.Reduce(state, dashboard.FilterChanged{Filter: f})
	return dashboard.Derive(state, s.now()), nil
}

// Template helper functions

func tmplText(p *string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return "—"
	}
	return *p
}

func tmplStatus(v *visitor.Visitor) string {
	switch v.Status() {
	case visitor.StatusScheduled:
		return "Scheduled"
	case visitor.StatusCheckedIn:
		return "Checked in"
	default:
		return "Checked out"
	}
}

// tmplBarWidth returns n as a percentage of max for CSS bar charts.
func tmplBarWidth(n, max int) int {
	if max <= 0 {
		return 0
	}
	return n * 100 / max
}

func tmplHourLabel(h int) string {
	return fmt.Sprintf("%d:00", h)
}

func tmplMaxDaily(days []dashboard.DayCount) int {
	m := 0
	for _, d := range days {
		if d.Count > m {
			m = d.Count
		}
	}
	return m
}

func tmplMaxHourly(hours [24]int) int {
	m := 0
	for _, n := range hours {
		if n > m {
			m = n
		}
	}
	return m
}
