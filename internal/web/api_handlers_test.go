package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/evcraddock/frontdesk/internal/db"
	"github.com/evcraddock/frontdesk/internal/notify"
	"github.com/evcraddock/frontdesk/internal/sweep"
	"github.com/evcraddock/frontdesk/internal/visitor"
)

var testNow = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

// testServerWithDB creates a server backed by a temp SQLite database with a
// fixed clock.
func testServerWithDB(t *testing.T) (*Server, *visitor.Service) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.OpenSQLite(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	clock := func() time.Time { return testNow }

	svc := visitor.NewService(visitor.NewRepository(d), notify.Nop{})
	svc.Now = clock

	sw, err := sweep.New(svc, sweep.NewStore(d), sweep.Config{Location: time.UTC})
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	sw.Now = clock

	srv, err := NewServer(d, svc, sw, time.UTC)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv.Now = clock

	return srv, svc
}

func testServer(t *testing.T) *Server {
	t.Helper()
	srv, _ := testServerWithDB(t)
	return srv
}

func apiRequest(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := &bytes.Buffer{}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func decodeVisitor(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var v map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp["error"]
}

func walkIn(name, surname string) map[string]interface{} {
	return map[string]interface{}{
		"name": name, "surname": surname, "company": "Acme", "host": "Bob", "agreementSigned": true,
	}
}

func createVisitor(t *testing.T, srv *Server, name, surname string) int64 {
	t.Helper()
	w := apiRequest(t, srv, "POST", "/api/visitors", walkIn(name, surname))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	return int64(decodeVisitor(t, w)["id"].(float64))
}

func scheduleVisitor(t *testing.T, srv *Server, name string) int64 {
	t.Helper()
	w := apiRequest(t, srv, "POST", "/api/visitors/schedule", map[string]string{
		"name": name, "surname": "Guest", "host": "Bob", "date": "2026-03-02", "expectedTimeIn": "14:00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("schedule status = %d, body = %s", w.Code, w.Body.String())
	}
	return int64(decodeVisitor(t, w)["id"].(float64))
}

func TestAPIHealth(t *testing.T) {
	srv := testServer(t)

	w := apiRequest(t, srv, "GET", "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", w.Body.String())
	}
}

type downDB struct{}

func (downDB) Ping(context.Context) error { return errors.New("connection refused") }

func TestAPIHealthDown(t *testing.T) {
	srv := testServer(t)
	srv.db = downDB{}

	w := apiRequest(t, srv, "GET", "/api/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	if !strings.Contains(w.Body.String(), `"status":"error"`) {
		t.Errorf("body = %q, want status error", w.Body.String())
	}
}

func TestAPICreateThenList(t *testing.T) {
	srv := testServer(t)
	createVisitor(t, srv, "Cy", "Park")

	w := apiRequest(t, srv, "POST", "/api/visitors", walkIn("Ann", "Lee"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	created := decodeVisitor(t, w)
	if created["timeIn"] != "10:30:00" || created["date"] != "2026-03-02" {
		t.Errorf("defaults = %v / %v, want server clock", created["timeIn"], created["date"])
	}
	if created["status"] != "checked-in" {
		t.Errorf("status = %v, want checked-in", created["status"])
	}
	if _, ok := created["timeOut"]; ok {
		t.Error("timeOut should be absent")
	}

	w = apiRequest(t, srv, "GET", "/api/visitors", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var list []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d visitors, want 2", len(list))
	}
	if list[0]["id"] != created["id"] || list[0]["name"] != "Ann" {
		t.Errorf("first record = %v, want the newly created Ann Lee", list[0])
	}
}

func TestAPIListEmpty(t *testing.T) {
	srv := testServer(t)

	w := apiRequest(t, srv, "GET", "/api/visitors", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", w.Body.String())
	}
}

func TestAPICreateValidation(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{"agreement not signed", map[string]interface{}{"name": "Ann", "surname": "Lee", "host": "Bob"}, "agreementSigned"},
		{"missing surname", map[string]interface{}{"name": "Ann", "host": "Bob", "agreementSigned": true}, "surname"},
		{"missing host", map[string]interface{}{"name": "Ann", "surname": "Lee", "agreementSigned": true}, "host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, "POST", "/api/visitors", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if msg := errorMessage(t, w); !strings.Contains(msg, tt.want) {
				t.Errorf("error = %q, want mention of %q", msg, tt.want)
			}
		})
	}
}

func TestAPICreateInvalidJSON(t *testing.T) {
	srv := testServer(t)

	r := httptest.NewRequest("POST", "/api/visitors", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPICreateBodyTooLarge(t *testing.T) {
	srv := testServer(t)

	photo := "data:image/png;base64," + strings.Repeat("A", maxBodyBytes)
	body := walkIn("Ann", "Lee")
	body["photo"] = photo

	w := apiRequest(t, srv, "POST", "/api/visitors", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestAPISchedule(t *testing.T) {
	srv := testServer(t)

	w := apiRequest(t, srv, "POST", "/api/visitors/schedule", map[string]string{
		"name": "Dee", "surname": "Ross", "host": "Bob", "date": "2026-03-04", "expectedTimeIn": "14:00",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	v := decodeVisitor(t, w)
	if _, ok := v["timeIn"]; ok {
		t.Error("scheduled visitor should have no timeIn")
	}
	if v["expectedTimeIn"] != "14:00" {
		t.Errorf("expectedTimeIn = %v, want 14:00", v["expectedTimeIn"])
	}
	if v["agreementSigned"] != false {
		t.Errorf("agreementSigned = %v, want false", v["agreementSigned"])
	}
	if v["status"] != "scheduled" {
		t.Errorf("status = %v, want scheduled", v["status"])
	}

	w = apiRequest(t, srv, "POST", "/api/visitors/schedule", map[string]string{"name": "Dee"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPILogArrival(t *testing.T) {
	srv := testServer(t)
	id := scheduleVisitor(t, srv, "Dee")

	w := apiRequest(t, srv, "PUT", fmt.Sprintf("/api/visitors/%d/log-arrival", id), map[string]string{"timeIn": "10:05:00"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	v := decodeVisitor(t, w)
	if v["timeIn"] != "10:05:00" || v["date"] != "2026-03-02" {
		t.Errorf("timeIn/date = %v/%v", v["timeIn"], v["date"])
	}
	if v["agreementSigned"] != true {
		t.Error("expected agreement signed on arrival")
	}

	// Empty body defaults to now.
	id2 := scheduleVisitor(t, srv, "Eve")
	w = apiRequest(t, srv, "PUT", fmt.Sprintf("/api/visitors/%d/log-arrival", id2), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty body: status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := decodeVisitor(t, w)["timeIn"]; got != "10:30:00" {
		t.Errorf("timeIn = %v, want 10:30:00", got)
	}

	w = apiRequest(t, srv, "PUT", "/api/visitors/999/log-arrival", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing id: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAPISignOut(t *testing.T) {
	srv := testServer(t)
	id := createVisitor(t, srv, "Ann", "Lee")

	w := apiRequest(t, srv, "PUT", fmt.Sprintf("/api/visitors/%d/signout", id), map[string]string{"timeOut": "4:30:00 PM"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	v := decodeVisitor(t, w)
	if v["timeOut"] != "4:30:00 PM" {
		t.Errorf("timeOut = %v", v["timeOut"])
	}
	if v["status"] != "checked-out" {
		t.Errorf("status = %v, want checked-out", v["status"])
	}
}

func TestAPISignOutErrors(t *testing.T) {
	srv := testServer(t)
	scheduled := scheduleVisitor(t, srv, "Dee")

	tests := []struct {
		name string
		path string
		want int
	}{
		{"nonexistent id", "/api/visitors/999/signout", http.StatusNotFound},
		{"not arrived", fmt.Sprintf("/api/visitors/%d/signout", scheduled), http.StatusConflict},
		{"bad id", "/api/visitors/abc/signout", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, "PUT", tt.path, nil)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if errorMessage(t, w) == "" {
				t.Error("expected error message")
			}
		})
	}
}

func TestAPIGetUpdateDelete(t *testing.T) {
	srv := testServer(t)
	id := createVisitor(t, srv, "Ann", "Lee")
	path := fmt.Sprintf("/api/visitors/%d", id)

	w := apiRequest(t, srv, "GET", path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d", w.Code)
	}

	w = apiRequest(t, srv, "PUT", path, map[string]string{"company": "Globex", "timeIn": "01:00"})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", w.Code, w.Body.String())
	}
	v := decodeVisitor(t, w)
	if v["company"] != "Globex" {
		t.Errorf("company = %v, want Globex", v["company"])
	}
	if v["timeIn"] != "10:30:00" {
		t.Errorf("timeIn = %v, non-editable fields must not change", v["timeIn"])
	}

	w = apiRequest(t, srv, "PUT", path, map[string]string{"name": " "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name: status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = apiRequest(t, srv, "DELETE", path, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = apiRequest(t, srv, "GET", path, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("after delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}
	w = apiRequest(t, srv, "DELETE", path, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAPISearch(t *testing.T) {
	srv := testServer(t)
	createVisitor(t, srv, "Ann", "Lee")
	out := createVisitor(t, srv, "Anna", "Leeds")
	createVisitor(t, srv, "Cy", "Park")
	apiRequest(t, srv, "PUT", fmt.Sprintf("/api/visitors/%d/signout", out), nil)

	tests := []struct {
		name  string
		query string
		code  int
		count int
	}{
		{"any status", "?name=ann", http.StatusOK, 2},
		{"all status", "?name=ANN&status=all", http.StatusOK, 2},
		{"checked in", "?name=ann&status=checked-in", http.StatusOK, 1},
		{"checked out", "?name=ann&status=checked-out", http.StatusOK, 1},
		{"blank name", "?name=", http.StatusBadRequest, 0},
		{"bad status", "?name=ann&status=gone", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, srv, "GET", "/api/visitors/search"+tt.query, nil)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			if tt.code != http.StatusOK {
				return
			}
			var list []map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(list) != tt.count {
				t.Errorf("got %d results, want %d", len(list), tt.count)
			}
		})
	}
}

func TestAPIDashboard(t *testing.T) {
	srv := testServer(t)
	createVisitor(t, srv, "Ann", "Lee")
	createVisitor(t, srv, "Cy", "Park")
	scheduleVisitor(t, srv, "Dee")

	w := apiRequest(t, srv, "GET", "/api/dashboard?q=ann&range=today", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var view struct {
		Summary struct {
			Total, Today, CheckedIn, Scheduled int
		} `json:"summary"`
		Records []map[string]interface{} `json:"records"`
		Hourly  []int                    `json:"hourly"`
		Daily   []struct {
			Day   string `json:"day"`
			Count int    `json:"count"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Summary.Total != 3 || view.Summary.CheckedIn != 2 || view.Summary.Scheduled != 1 {
		t.Errorf("summary = %+v", view.Summary)
	}
	if len(view.Records) != 1 || view.Records[0]["name"] != "Ann" {
		t.Errorf("records = %v, want only Ann", view.Records)
	}
	if len(view.Hourly) != 24 || view.Hourly[10] != 1 {
		t.Errorf("hourly = %v, want one arrival at 10", view.Hourly)
	}
	if len(view.Daily) != 1 || view.Daily[0].Day != "2026-03-02" {
		t.Errorf("daily = %+v", view.Daily)
	}

	w = apiRequest(t, srv, "GET", "/api/dashboard?range=yesterday", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad range: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPIExportCSV(t *testing.T) {
	srv := testServer(t)
	createVisitor(t, srv, "Ann", "Lee")
	createVisitor(t, srv, "Cy", "Park")

	w := apiRequest(t, srv, "GET", "/api/visitors/export?q=cy", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "visitor_log_2026-03-02.csv") {
		t.Errorf("content-disposition = %q", cd)
	}

	rows, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	if rows[1][0] != "Cy" || rows[1][6] != "N/A" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestAPIExportXLSX(t *testing.T) {
	srv := testServer(t)
	createVisitor(t, srv, "Ann", "Lee")

	w := apiRequest(t, srv, "GET", "/api/visitors/export?format=xlsx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".xlsx") {
		t.Errorf("content-disposition = %q", cd)
	}

	f, err := excelize.OpenReader(w.Body)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Ann" {
		t.Errorf("rows = %v", rows)
	}

	w = apiRequest(t, srv, "GET", "/api/visitors/export?format=pdf", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad format: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPISweep(t *testing.T) {
	srv := testServer(t)
	createVisitor(t, srv, "Ann", "Lee")
	scheduleVisitor(t, srv, "Dee")

	w := apiRequest(t, srv, "POST", "/api/sweep", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var res map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["signedOut"] != float64(1) || res["date"] != "2026-03-02" {
		t.Errorf("result = %v", res)
	}

	w = apiRequest(t, srv, "GET", "/api/sweep", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestAPIMethodNotAllowed(t *testing.T) {
	srv := testServer(t)

	tests := []struct {
		method, path string
	}{
		{"PATCH", "/api/visitors"},
		{"GET", "/api/visitors/schedule"},
		{"POST", "/api/visitors/search"},
		{"POST", "/api/visitors/1"},
		{"GET", "/api/visitors/1/signout"},
		{"POST", "/api/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := apiRequest(t, srv, tt.method, tt.path, nil)
			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestHandlerSetsRequestID(t *testing.T) {
	srv := testServer(t)

	r := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
