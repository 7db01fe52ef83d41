// Package client provides an HTTP client for the frontdesk REST API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/evcraddock/frontdesk/internal/dashboard"
	"github.com/evcraddock/frontdesk/internal/export"
	"github.com/evcraddock/frontdesk/internal/sweep"
	"github.com/evcraddock/frontdesk/internal/visitor"
)

// Error is a non-2xx response from the server.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "server error: " + http.StatusText(e.StatusCode)
}

// errorBody is the server's {"error": "..."} payload.
type errorBody struct {
	Error string `json:"error"`
}

// Client is an HTTP client for the frontdesk API. Requests are not retried:
// sign-in and schedule are not idempotent.
type Client struct {
	http *resty.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// Health reports whether the server can reach its storage.
func (c *Client) Health(ctx context.Context) error {
	return c.do(c.http.R().SetContext(ctx), http.MethodGet, "/api/health")
}

// List returns all visitors, newest first.
func (c *Client) List(ctx context.Context) ([]*visitor.Visitor, error) {
	var visitors []*visitor.Visitor
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&visitors), http.MethodGet, "/api/visitors"); err != nil {
		return nil, err
	}
	return visitors, nil
}

// Search finds visitors whose name contains name. status may be empty.
func (c *Client) Search(ctx context.Context, name, status string) ([]*visitor.Visitor, error) {
	req := c.http.R().SetContext(ctx).SetQueryParam("name", name)
	if status != "" {
		req.SetQueryParam("status", status)
	}

	var visitors []*visitor.Visitor
	if err := c.do(req.SetResult(&visitors), http.MethodGet, "/api/visitors/search"); err != nil {
		return nil, err
	}
	return visitors, nil
}

// Get returns one visitor.
func (c *Client) Get(ctx context.Context, id int64) (*visitor.Visitor, error) {
	var v visitor.Visitor
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&v), http.MethodGet, visitorPath(id, "")); err != nil {
		return nil, err
	}
	return &v, nil
}

// SignIn records a walk-in visitor.
func (c *Client) SignIn(ctx context.Context, in visitor.SignInRequest) (*visitor.Visitor, error) {
	return c.send(ctx, http.MethodPost, "/api/visitors", in)
}

// Schedule pre-registers a visitor.
func (c *Client) Schedule(ctx context.Context, in visitor.ScheduleRequest) (*visitor.Visitor, error) {
	return c.send(ctx, http.MethodPost, "/api/visitors/schedule", in)
}

// LogArrival checks in a scheduled visitor.
func (c *Client) LogArrival(ctx context.Context, id int64, in visitor.ArrivalRequest) (*visitor.Visitor, error) {
	return c.send(ctx, http.MethodPut, visitorPath(id, "log-arrival"), in)
}

// SignOut records a departure. An empty timeOut lets the server use now.
func (c *Client) SignOut(ctx context.Context, id int64, timeOut string) (*visitor.Visitor, error) {
	return c.send(ctx, http.MethodPut, visitorPath(id, "signout"), map[string]string{"timeOut": timeOut})
}

// Update edits a visitor's name, surname, company or host.
func (c *Client) Update(ctx context.Context, id int64, in visitor.UpdateRequest) (*visitor.Visitor, error) {
	return c.send(ctx, http.MethodPut, visitorPath(id, ""), in)
}

// Delete removes a visitor.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(c.http.R().SetContext(ctx), http.MethodDelete, visitorPath(id, ""))
}

// Dashboard returns the summary, charts and filtered log.
func (c *Client) Dashboard(ctx context.Context, f dashboard.Filter) (*dashboard.View, error) {
	var view dashboard.View
	req := c.http.R().SetContext(ctx).SetQueryParamsFromValues(filterParams(f)).SetResult(&view)
	if err := c.do(req, http.MethodGet, "/api/dashboard"); err != nil {
		return nil, err
	}
	return &view, nil
}

// Export downloads the filtered log in the given format.
func (c *Client) Export(ctx context.Context, format export.Format, f dashboard.Filter) ([]byte, error) {
	params := filterParams(f)
	params.Set("format", string(format))

	req := c.http.R().SetContext(ctx).SetQueryParamsFromValues(params)
	resp, err := c.execute(req, http.MethodGet, "/api/visitors/export")
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// Sweep runs the end-of-day sign-out immediately.
func (c *Client) Sweep(ctx context.Context) (*sweep.Result, error) {
	var res sweep.Result
	if err := c.do(c.http.R().SetContext(ctx).SetResult(&res), http.MethodPost, "/api/sweep"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*visitor.Visitor, error) {
	var v visitor.Visitor
	req := c.http.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(body).SetResult(&v)
	if err := c.do(req, method, path); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) do(req *resty.Request, method, path string) error {
	_, err := c.execute(req, method, path)
	return err
}

// execute runs req and turns error responses into *Error.
func (c *Client) execute(req *resty.Request, method, path string) (*resty.Response, error) {
	var errResp errorBody
	resp, err := req.SetError(&errResp).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &Error{StatusCode: resp.StatusCode(), Message: errResp.Error}
	}
	return resp, nil
}

func visitorPath(id int64, action string) string {
	p := "/api/visitors/" + strconv.FormatInt(id, 10)
	if action != "" {
		p += "/" + action
	}
	return p
}

func filterParams(f dashboard.Filter) url.Values {
	params := url.Values{}
	if f.Query != "" {
		params.Set("q", f.Query)
	}
	if f.Status != "" {
		params.Set("status", string(f.Status))
	}
	if f.Range != "" {
		params.Set("range", string(f.Range))
	}
	return params
}
