package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/evcraddock/frontdesk/internal/dashboard"
	"github.com/evcraddock/frontdesk/internal/visitor"
)

type signInData struct {
	Form  visitor.SignInRequest
	Error string
}

type signOutData struct {
	Name     string
	Visitors []*visitor.Visitor
	Searched bool
	Error    string
}

type thanksData struct {
	Visitor *visitor.Visitor
	Action  string // "signed in" or "signed out"
}

type adminData struct {
	View     dashboard.View
	Statuses []string
	Ranges   []string
	Flash    string
	Error    string
	Return   string // encoded filter, carried through admin actions
}

type editData struct {
	Visitor *visitor.Visitor
	Error   string
	Return  string
	BackURL string
}

// handleKiosk renders the kiosk landing page.
func (s *Server) handleKiosk(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, http.StatusOK, "kiosk.html", nil)
}

// handleSignIn renders and submits the walk-in sign-in form.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, http.StatusOK, "signin.html", signInData{})
		return
	case http.MethodPost:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Photo is too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := visitor.SignInRequest{
		Name:               r.FormValue("name"),
		Surname:            r.FormValue("surname"),
		Company:            r.FormValue("company"),
		VisitorPhoneNumber: r.FormValue("visitorPhoneNumber"),
		Photo:              r.FormValue("photo"),
		ReasonForVisit:     r.FormValue("reasonForVisit"),
		Host:               r.FormValue("host"),
		AgreementSigned:    r.FormValue("agreementSigned") != "",
	}

	v, err := s.visitors.SignIn(r.Context(), req)
	if err != nil {
		if visitor.IsValidation(err) {
			req.Photo = ""
			s.render(w, http.StatusBadRequest, "signin.html", signInData{Form: req, Error: err.Error()})
			return
		}
		s.pageError(w, r, err, "signing in visitor")
		return
	}

	s.render(w, http.StatusOK, "thanks.html", thanksData{Visitor: v, Action: "signed in"})
}

// handleSignOut lets a visitor find their record by name and sign out.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			s.render(w, http.StatusOK, "signout.html", signOutData{})
			return
		}
		found, err := s.visitors.Search(r.Context(), name, string(visitor.StatusCheckedIn))
		if err != nil {
			s.pageError(w, r, err, "searching visitors")
			return
		}
		s.render(w, http.StatusOK, "signout.html", signOutData{Name: name, Visitors: found, Searched: true})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid visitor ID", http.StatusBadRequest)
			return
		}
		v, err := s.visitors.SignOut(r.Context(), id, "")
		if err != nil {
			s.pageError(w, r, err, "signing out visitor")
			return
		}
		s.render(w, http.StatusOK, "thanks.html", thanksData{Visitor: v, Action: "signed out"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAdmin renders the dashboard for the filter in the query string.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	data := adminData{
		Statuses: []string{"all", string(visitor.StatusScheduled), string(visitor.StatusCheckedIn), string(visitor.StatusCheckedOut)},
		Ranges:   []string{string(dashboard.RangeAll), string(dashboard.RangeToday), string(dashboard.Range7Days), string(dashboard.Range30Days)},
		Flash:    q.Get("flash"),
	}

	f, err := dashboard.ParseFilter(q.Get("q"), q.Get("status"), q.Get("range"))
	code := http.StatusOK
	if err != nil {
		data.Error = err.Error()
		code = http.StatusBadRequest
		f = dashboard.Filter{Range: dashboard.RangeAll}
	}

	view, err := s.dashboardView(r.Context(), f)
	if err != nil {
		s.pageError(w, r, err, "loading dashboard")
		return
	}
	data.View = view
	data.Return = filterQuery(f).Encode()

	s.render(w, code, "admin.html", data)
}

// handleAdminRoute routes /admin/* actions.
func (s *Server) handleAdminRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/admin/")

	if path == "schedule" {
		s.handleAdminSchedule(w, r)
		return
	}

	rest, ok := strings.CutPrefix(path, "visitors/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch action {
	case "edit":
		s.handleAdminEdit(w, r, id)
		return
	case "photo":
		s.handleAdminPhoto(w, r, id)
		return
	case "arrive", "signout", "delete":
	default:
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var flash string
	switch action {
	case "arrive":
		var v *visitor.Visitor
		if v, err = s.visitors.LogArrival(r.Context(), id, visitor.ArrivalRequest{}); err == nil {
			flash = v.FullName() + " has arrived"
		}
	case "signout":
		var v *visitor.Visitor
		if v, err = s.visitors.SignOut(r.Context(), id, ""); err == nil {
			flash = v.FullName() + " signed out"
		}
	case "delete":
		if err = s.visitors.Delete(r.Context(), id); err == nil {
			flash = "Entry deleted"
		}
	}
	if err != nil {
		s.pageError(w, r, err, action+" visitor")
		return
	}

	s.redirectAdmin(w, r, flash)
}

// handleAdminSchedule pre-registers a visitor from the dashboard form.
func (s *Server) handleAdminSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	v, err := s.visitors.Schedule(r.Context(), visitor.ScheduleRequest{
		Name:               r.FormValue("name"),
		Surname:            r.FormValue("surname"),
		Company:            r.FormValue("company"),
		VisitorPhoneNumber: r.FormValue("visitorPhoneNumber"),
		ReasonForVisit:     r.FormValue("reasonForVisit"),
		Host:               r.FormValue("host"),
		Date:               r.FormValue("date"),
		ExpectedTimeIn:     r.FormValue("expectedTimeIn"),
	})
	if err != nil {
		s.pageError(w, r, err, "scheduling visitor")
		return
	}

	s.redirectAdmin(w, r, v.FullName()+" scheduled")
}

// handleAdminEdit renders and submits the edit form.
func (s *Server) handleAdminEdit(w http.ResponseWriter, r *http.Request, id int64) {
	switch r.Method {
	case http.MethodGet:
		v, err := s.visitors.Get(r.Context(), id)
		if err != nil {
			s.pageError(w, r, err, "loading visitor")
			return
		}
		s.render(w, http.StatusOK, "edit.html", newEditData(v, r.URL.Query().Get("return"), ""))
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		name, surname := r.FormValue("name"), r.FormValue("surname")
		company, host := r.FormValue("company"), r.FormValue("host")
		v, err := s.visitors.Update(r.Context(), id, visitor.UpdateRequest{
			Name: &name, Surname: &surname, Company: &company, Host: &host,
		})
		if err != nil {
			if visitor.IsValidation(err) {
				current, getErr := s.visitors.Get(r.Context(), id)
				if getErr != nil {
					s.pageError(w, r, getErr, "loading visitor")
					return
				}
				s.render(w, http.StatusBadRequest, "edit.html", newEditData(current, r.FormValue("return"), err.Error()))
				return
			}
			s.pageError(w, r, err, "updating visitor")
			return
		}
		s.redirectAdmin(w, r, v.FullName()+" updated")
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func newEditData(v *visitor.Visitor, ret, errMsg string) editData {
	back := returnQuery(ret)
	backURL := "/admin"
	if len(back) > 0 {
		backURL += "?" + back.Encode()
	}
	return editData{Visitor: v, Error: errMsg, Return: back.Encode(), BackURL: backURL}
}

// filterQuery encodes the non-default parts of a dashboard filter.
func filterQuery(f dashboard.Filter) url.Values {
	q := url.Values{}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Range != "" && f.Range != dashboard.RangeAll {
		q.Set("range", string(f.Range))
	}
	return q
}

// returnQuery keeps only the filter keys of an encoded return value.
func returnQuery(ret string) url.Values {
	parsed, err := url.ParseQuery(ret)
	if err != nil {
		return url.Values{}
	}
	q := url.Values{}
	for _, key := range []string{"q", "status", "range"} {
		if v := parsed.Get(key); v != "" {
			q.Set(key, v)
		}
	}
	return q
}

// redirectAdmin returns to the dashboard with the filter the action was
// submitted from.
func (s *Server) redirectAdmin(w http.ResponseWriter, r *http.Request, flash string) {
	q := returnQuery(r.FormValue("return"))
	q.Set("flash", flash)
	http.Redirect(w, r, "/admin?"+q.Encode(), http.StatusSeeOther)
}

// pageError writes a plain-text error with the status writeVisitorError would use.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case visitor.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, visitor.ErrNotFound):
		http.Error(w, "Visitor not found", http.StatusNotFound)
	case errors.Is(err, visitor.ErrNotArrived):
		http.Error(w, "Visitor has not arrived yet", http.StatusConflict)
	default:
		slog.ErrorContext(r.Context(), action, "error", err)
		http.Error(w, fmt.Sprintf("Error %s", action), http.StatusInternalServerError)
	}
}

// render executes a full page template.
func (s *Server) render(w http.ResponseWriter, code int, name string, data interface{}) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, fmt.Sprintf("Error rendering template: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(buf.String())); err != nil {
		slog.Warn("writing page", "template", name, "error", err)
	}
}
