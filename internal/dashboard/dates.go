package dashboard

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the visit-date formats accepted from the kiosk and admin forms.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	time.RFC3339,
}

// ParseDate parses a free-form visit date in loc. The time of day is dropped.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			t = t.In(loc)
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// DayKey normalizes a visit date to YYYY-MM-DD.
func DayKey(s string, loc *time.Location) (string, bool) {
	t, ok := ParseDate(s, loc)
	if !ok {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// ParseHour returns the hour (0-23) of a time string such as "09:15",
// "9:15:00 AM" or "4:30 pm".
func ParseHour(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(s, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(s, "PM"):
		meridiem = "PM"
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, meridiem))

	head, _, found := strings.Cut(s, ":")
	if !found && meridiem == "" {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, false
	}

	switch meridiem {
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return 0, false
		}
	}
	return hour, true
}
