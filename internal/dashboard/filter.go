// Package dashboard derives the admin dashboard (filtered log, charts and
// summary counts) from an in-memory set of visitor records.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

// Range limits records by visit date relative to now.
type Range string

const (
	RangeAll    Range = "all"
	RangeToday  Range = "today"
	Range7Days  Range = "7days"
	Range30Days Range = "30days"
)

// ParseRange accepts a range name; "" means all.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "", RangeAll:
		return RangeAll, nil
	case RangeToday, Range7Days, Range30Days:
		return r, nil
	}
	return "", fmt.Errorf("unknown range %q (use all, today, 7days or 30days)", s)
}

// Filter selects records for the visitor log. All set criteria must match.
type Filter struct {
	Query  string         `json:"q"`      // substring of name, surname, "name surname" or company
	Status visitor.Status `json:"status"` // empty = any
	Range  Range          `json:"range"`  // empty = all
}

// ParseFilter builds a Filter from query-string values.
func ParseFilter(query, status, rng string) (Filter, error) {
	st, ok := visitor.ParseStatus(status)
	if !ok {
		return Filter{}, fmt.Errorf("unknown status %q", status)
	}
	r, err := ParseRange(rng)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Query: strings.TrimSpace(query), Status: st, Range: r}, nil
}

// Match reports whether v passes every criterion of f.
func (f Filter) Match(v *visitor.Visitor, now time.Time) bool {
	return f.matchText(v) && f.matchStatus(v) && f.matchRange(v, now)
}

// Apply returns the records that match f, preserving order.
func (f Filter) Apply(records []*visitor.Visitor, now time.Time) []*visitor.Visitor {
	out := make([]*visitor.Visitor, 0, len(records))
	for _, v := range records {
		if f.Match(v, now) {
			out = append(out, v)
		}
	}
	return out
}

func (f Filter) matchText(v *visitor.Visitor) bool {
	q := strings.ToLower(f.Query)
	if q == "" {
		return true
	}
	for _, s := range []string{v.Name, v.Surname, v.Name + " " + v.Surname, v.Company} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

func (f Filter) matchStatus(v *visitor.Visitor) bool {
	return f.Status == "" || v.Status() == f.Status
}

func (f Filter) matchRange(v *visitor.Visitor, now time.Time) bool {
	var days int
	switch f.Range {
	case "", RangeAll:
		return true
	case RangeToday:
		days = 0
	case Range7Days:
		days = 7
	case Range30Days:
		days = 30
	default:
		return false
	}

	date, ok := ParseDate(v.Date, now.Location())
	if !ok {
		return false
	}
	today := startOfDay(now)
	return !date.After(today) && !date.Before(today.AddDate(0, 0, -days))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
