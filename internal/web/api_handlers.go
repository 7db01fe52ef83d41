package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/frontdesk/internal/dashboard"
	"github.com/evcraddock/frontdesk/internal/export"
	"github.com/evcraddock/frontdesk/internal/logging"
	"github.com/evcraddock/frontdesk/internal/visitor"
)

// errEmptyBody is returned by decodeJSON when the body is empty.
var errEmptyBody = errors.New("empty body")

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// writeVisitorError maps a service error to its HTTP status. Storage failures
// are logged and reported without detail.
func writeVisitorError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var ve *visitor.ValidationError
	switch {
	case errors.As(err, &ve):
		apiError(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, visitor.ErrNotFound):
		apiError(w, "visitor not found", http.StatusNotFound)
	case errors.Is(err, visitor.ErrNotArrived):
		apiError(w, "visitor has not arrived yet", http.StatusConflict)
	default:
		slog.ErrorContext(r.Context(), action, "error", err, "request_id", logging.RequestID(r.Context()))
		apiError(w, action+" failed", http.StatusInternalServerError)
	}
}

// decodeJSON reads at most maxBodyBytes of JSON into dst. It writes the error
// response itself and returns false on failure. An empty body is accepted
// when optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		err = errEmptyBody
	}

	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return true
	case errors.As(err, &tooLarge):
		apiError(w, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
	case errors.Is(err, errEmptyBody) && optional:
		return true
	default:
		apiError(w, "invalid JSON body", http.StatusBadRequest)
	}
	return false
}

// handleAPIVisitors routes /api/visitors requests.
func (s *Server) handleAPIVisitors(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/visitors")
	path = strings.TrimPrefix(path, "/")

	switch path {
	// /api/visitors: list or walk-in sign-in
	case "":
		switch r.Method {
		case http.MethodGet:
			s.apiListVisitors(w, r)
		case http.MethodPost:
			s.apiCreateVisitor(w, r)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	case "schedule":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiScheduleVisitor(w, r)
		return
	case "search":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiSearchVisitors(w, r)
		return
	case "export":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiExport(w, r)
		return
	}

	// /api/visitors/{id}/log-arrival
	if strings.HasSuffix(path, "/log-arrival") {
		id, ok := parseVisitorID(w, strings.TrimSuffix(path, "/log-arrival"))
		if !ok {
			return
		}
		if r.Method != http.MethodPut {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiLogArrival(w, r, id)
		return
	}

	// /api/visitors/{id}/signout
	if strings.HasSuffix(path, "/signout") {
		id, ok := parseVisitorID(w, strings.TrimSuffix(path, "/signout"))
		if !ok {
			return
		}
		if r.Method != http.MethodPut {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.apiSignOut(w, r, id)
		return
	}

	// /api/visitors/{id}: show, edit or remove
	id, ok := parseVisitorID(w, path)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.apiGetVisitor(w, r, id)
	case http.MethodPut:
		s.apiUpdateVisitor(w, r, id)
	case http.MethodDelete:
		s.apiDeleteVisitor(w, r, id)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// parseVisitorID parses a path segment as a visitor ID, writing a 400 on failure.
func parseVisitorID(w http.ResponseWriter, s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		apiError(w, "invalid visitor ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// apiListVisitors returns every visitor, newest first.
func (s *Server) apiListVisitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := s.visitors.List(r.Context())
	if err != nil {
		writeVisitorError(w, r, err, "listing visitors")
		return
	}
	apiJSON(w, visitors, http.StatusOK)
}

// apiCreateVisitor signs in a walk-in visitor.
func (s *Server) apiCreateVisitor(w http.ResponseWriter, r *http.Request) {
	var req visitor.SignInRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	v, err := s.visitors.SignIn(r.Context(), req)
	if err != nil {
		writeVisitorError(w, r, err, "signing in visitor")
		return
	}
	apiJSON(w, v, http.StatusCreated)
}

// apiScheduleVisitor pre-registers a visitor.
func (s *Server) apiScheduleVisitor(w http.ResponseWriter, r *http.Request) {
	var req visitor.ScheduleRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	v, err := s.visitors.Schedule(r.Context(), req)
	if err != nil {
		writeVisitorError(w, r, err, "scheduling visitor")
		return
	}
	apiJSON(w, v, http.StatusCreated)
}

// apiSearchVisitors finds visitors by name and status.
func (s *Server) apiSearchVisitors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	visitors, err := s.visitors.Search(r.Context(), q.Get("name"), q.Get("status"))
	if err != nil {
		writeVisitorError(w, r, err, "searching visitors")
		return
	}
	apiJSON(w, visitors, http.StatusOK)
}

// apiGetVisitor returns one visitor.
func (s *Server) apiGetVisitor(w http.ResponseWriter, r *http.Request, id int64) {
	v, err := s.visitors.Get(r.Context(), id)
	if err != nil {
		writeVisitorError(w, r, err, "loading visitor")
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// apiUpdateVisitor edits name, surname, company or host.
func (s *Server) apiUpdateVisitor(w http.ResponseWriter, r *http.Request, id int64) {
	var req visitor.UpdateRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	v, err := s.visitors.Update(r.Context(), id, req)
	if err != nil {
		writeVisitorError(w, r, err, "updating visitor")
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// apiLogArrival checks in a scheduled visitor.
func (s *Server) apiLogArrival(w http.ResponseWriter, r *http.Request, id int64) {
	var req visitor.ArrivalRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	v, err := s.visitors.LogArrival(r.Context(), id, req)
	if err != nil {
		writeVisitorError(w, r, err, "logging arrival")
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// apiSignOut records a departure. timeOut defaults to now.
func (s *Server) apiSignOut(w http.ResponseWriter, r *http.Request, id int64) {
	var req struct {
		TimeOut string `json:"timeOut"`
	}
	if !decodeJSON(w, r, &req, true) {
		return
	}

	v, err := s.visitors.SignOut(r.Context(), id, req.TimeOut)
	if err != nil {
		writeVisitorError(w, r, err, "signing out visitor")
		return
	}
	apiJSON(w, v, http.StatusOK)
}

// apiDeleteVisitor removes a visitor.
func (s *Server) apiDeleteVisitor(w http.ResponseWriter, r *http.Request, id int64) {
	if err := s.visitors.Delete(r.Context(), id); err != nil {
		writeVisitorError(w, r, err, "deleting visitor")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// filterFromQuery parses q, status and range, writing a 400 on failure.
func filterFromQuery(w http.ResponseWriter, r *http.Request) (dashboard.Filter, bool) {
	q := r.URL.Query()
	f, err := dashboard.ParseFilter(q.Get("q"), q.Get("status"), q.Get("range"))
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return dashboard.Filter{}, false
	}
	return f, true
}

// apiDashboard returns the filtered log, charts and summary.
func (s *Server) apiDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	f, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	view, err := s.dashboardView(r.Context(), f)
	if err != nil {
		writeVisitorError(w, r, err, "loading dashboard")
		return
	}
	apiJSON(w, view, http.StatusOK)
}

// apiExport downloads the filtered log as CSV or XLSX.
func (s *Server) apiExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	f, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	view, err := s.dashboardView(r.Context(), f)
	if err != nil {
		writeVisitorError(w, r, err, "exporting visitors")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, view.Records); err != nil {
		writeVisitorError(w, r, err, "exporting visitors")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(format, s.now())))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.WarnContext(r.Context(), "writing export", "error", err)
	}
}

// apiSweep runs the end-of-day sign-out immediately.
func (s *Server) apiSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, err := s.sweeper.RunNow(r.Context())
	if err != nil {
		writeVisitorError(w, r, err, "sweeping visitors")
		return
	}
	apiJSON(w, res, http.StatusOK)
}
