// Package visitor provides the visitor record, its lifecycle rules, and data access.
package visitor

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is where a visitor is in the scheduled → checked-in → checked-out lifecycle.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
)

// ParseStatus accepts a status name; "" and "all" mean no status filter.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", "all":
		return "", true
	case StatusScheduled:
		return StatusScheduled, true
	case StatusCheckedIn:
		return StatusCheckedIn, true
	case StatusCheckedOut:
		return StatusCheckedOut, true
	}
	return "", false
}

// Visitor is one visit: a walk-in or a scheduled guest.
// Dates and times are free-form text as entered at the kiosk.
type Visitor struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Surname            string  `json:"surname"`
	Company            string  `json:"company"`
	VisitorPhoneNumber string  `json:"visitorPhoneNumber"`
	Photo              string  `json:"photo"`
	ReasonForVisit     string  `json:"reasonForVisit"`
	Host               string  `json:"host"`
	Date               string  `json:"date"`
	ExpectedTimeIn     *string `json:"expectedTimeIn,omitempty"`
	TimeIn             *string `json:"timeIn,omitempty"`
	TimeOut            *string `json:"timeOut,omitempty"`
	AgreementSigned    bool    `json:"agreementSigned"`
}

// HasArrived reports whether a time-in is recorded.
func (v *Visitor) HasArrived() bool { return present(v.TimeIn) }

// HasLeft reports whether a time-out is recorded.
func (v *Visitor) HasLeft() bool { return present(v.TimeOut) }

// Status derives the lifecycle state from the recorded times.
func (v *Visitor) Status() Status {
	switch {
	case !v.HasArrived():
		return StatusScheduled
	case v.HasLeft():
		return StatusCheckedOut
	default:
		return StatusCheckedIn
	}
}

// FullName joins name and surname.
func (v *Visitor) FullName() string {
	return strings.TrimSpace(v.Name + " " + v.Surname)
}

// MarshalJSON adds the derived status to the wire form.
func (v Visitor) MarshalJSON() ([]byte, error) {
	type plain Visitor
	return json.Marshal(struct {
		plain
		Status Status `json:"status"`
	}{plain(v), v.Status()})
}

// Text returns the value of an optional field, or "".
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var clockLayouts = []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM", "3:04:05PM", "3:04PM"}

// ParseClock returns the offset from midnight of a time of day such as
// "16:30:00", "9:15" or "4:30 pm".
func ParseClock(s string) (time.Duration, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

func strPtr(s string) *string { return &s }

// Field maps one attribute between its wire (JSON) name and its storage column.
type Field struct {
	Wire     string
	Column   string
	Editable bool // admins may change it through Update
}

// Fields is the single wire↔storage mapping. Its order is the SELECT order.
var Fields = []Field{
	{Wire: "id", Column: "id"},
	{Wire: "name", Column: "name", Editable: true},
	{Wire: "surname", Column: "surname", Editable: true},
	{Wire: "company", Column: "company", Editable: true},
	{Wire: "visitorPhoneNumber", Column: "visitor_phone_number"},
	{Wire: "photo", Column: "photo"},
	{Wire: "reasonForVisit", Column: "reason_for_visit"},
	{Wire: "host", Column: "host", Editable: true},
	{Wire: "date", Column: "date"},
	{Wire: "expectedTimeIn", Column: "expected_time_in"},
	{Wire: "timeIn", Column: "time_in"},
	{Wire: "timeOut", Column: "time_out"},
	{Wire: "agreementSigned", Column: "agreement_signed"},
}

// ColumnFor returns the storage column for a wire name.
func ColumnFor(wire string) (string, bool) {
	for _, f := range Fields {
		if f.Wire == wire {
			return f.Column, true
		}
	}
	return "", false
}

// WireFor returns the wire name for a storage column.
func WireFor(column string) (string, bool) {
	for _, f := range Fields {
		if f.Column == column {
			return f.Wire, true
		}
	}
	return "", false
}

func selectColumns() string {
	cols := make([]string, len(Fields))
	for i, f := range Fields {
		cols[i] = f.Column
	}
	return strings.Join(cols, ", ")
}

// insertColumns is every column except the generated id.
func insertColumns() []string {
	cols := make([]string, 0, len(Fields)-1)
	for _, f := range Fields {
		if f.Column != "id" {
			cols = append(cols, f.Column)
		}
	}
	return cols
}
