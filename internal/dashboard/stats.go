package dashboard

import (
	"sort"
	"time"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

// DayCount is the number of visits on one day.
type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// DailyCounts groups records by visit date, oldest day first. Records with
// unparseable dates are skipped.
func DailyCounts(records []*visitor.Visitor, loc *time.Location) []DayCount {
	counts := make(map[string]int)
	for _, v := range records {
		if day, ok := DayKey(v.Date, loc); ok {
			counts[day]++
		}
	}

	out := make([]DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// HourlyCounts counts arrivals by hour of time-in. Records without a
// readable time-in are skipped.
func HourlyCounts(records []*visitor.Visitor) [24]int {
	var counts [24]int
	for _, v := range records {
		if hour, ok := ParseHour(visitor.Text(v.TimeIn)); ok {
			counts[hour]++
		}
	}
	return counts
}

// Summary is the overview shown above the log.
type Summary struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	CheckedIn int `json:"checkedIn"`
	Scheduled int `json:"scheduled"`
}

// Summarize counts all records, those dated today, those currently on site,
// and those still expected.
func Summarize(records []*visitor.Visitor, now time.Time) Summary {
	today := now.Format("2006-01-02")
	s := Summary{Total: len(records)}
	for _, v := range records {
		if day, ok := DayKey(v.Date, now.Location()); ok && day == today {
			s.Today++
		}
		switch v.Status() {
		case visitor.StatusCheckedIn:
			s.CheckedIn++
		case visitor.StatusScheduled:
			s.Scheduled++
		}
	}
	return s
}
