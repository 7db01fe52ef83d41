package dashboard

import (
	"time"

	"github.com/evcraddock/frontdesk/internal/visitor"
)

// State is everything the dashboard shows: the loaded records (newest first)
// and the active filter.
type State struct {
	Records []*visitor.Visitor
	Filter  Filter
}

// Action is an event that changes State. See Reduce.
type Action interface {
	isAction()
}

// Loaded replaces all records.
type Loaded struct{ Records []*visitor.Visitor }

// Upserted adds a record or replaces the one with the same ID.
type Upserted struct{ Visitor *visitor.Visitor }

// Removed drops the record with ID.
type Removed struct{ ID int64 }

// FilterChanged replaces the filter.
type FilterChanged struct{ Filter Filter }

func (Loaded) isAction()        {}
func (Upserted) isAction()      {}
func (Removed) isAction()       {}
func (FilterChanged) isAction() {}

// Reduce returns the state after applying a. The input state is not modified.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Loaded:
		s.Records = append([]*visitor.Visitor(nil), a.Records...)
	case Upserted:
		if a.Visitor == nil {
			return s
		}
		records := make([]*visitor.Visitor, 0, len(s.Records)+1)
		replaced := false
		for _, v := range s.Records {
			if v.ID == a.Visitor.ID {
				records = append(records, a.Visitor)
				replaced = true
				continue
			}
			records = append(records, v)
		}
		if !replaced {
			records = append([]*visitor.Visitor{a.Visitor}, records...)
		}
		s.Records = records
	case Removed:
		records := make([]*visitor.Visitor, 0, len(s.Records))
		for _, v := range s.Records {
			if v.ID != a.ID {
				records = append(records, v)
			}
		}
		s.Records = records
	case FilterChanged:
		s.Filter = a.Filter
	}
	return s
}

// View is the derived dashboard.
type View struct {
	Filter  Filter             `json:"filter"`
	Summary Summary            `json:"summary"`
	Records []*visitor.Visitor `json:"records"`
	Daily   []DayCount         `json:"daily"`
	Hourly  [24]int            `json:"hourly"`
}

// Derive computes the view. Charts cover the filtered records; the summary
// covers all of them.
func Derive(s State, now time.Time) View {
	visible := s.Filter.Apply(s.Records, now)
	return View{
		Filter:  s.Filter,
		Summary: Summarize(s.Records, now),
		Records: visible,
		Daily:   DailyCounts(visible, now.Location()),
		Hourly:  HourlyCounts(visible),
	}
}
