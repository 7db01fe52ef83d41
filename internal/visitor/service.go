package visitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evcraddock/frontdesk/internal/notify"
)

// Layouts used when the server fills in a missing date or time.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// SignInRequest is a walk-in submission from the kiosk form.
type SignInRequest struct {
	Name               string `json:"name"`
	Surname            string `json:"surname"`
	Company            string `json:"company"`
	VisitorPhoneNumber string `json:"visitorPhoneNumber"`
	Photo              string `json:"photo"`
	ReasonForVisit     string `json:"reasonForVisit"`
	Host               string `json:"host"`
	Date               string `json:"date"`
	TimeIn             string `json:"timeIn"`
	AgreementSigned    bool   `json:"agreementSigned"`
}

// ScheduleRequest pre-registers an expected visitor.
type ScheduleRequest struct {
	Name               string `json:"name"`
	Surname            string `json:"surname"`
	Company            string `json:"company"`
	VisitorPhoneNumber string `json:"visitorPhoneNumber"`
	ReasonForVisit     string `json:"reasonForVisit"`
	Host               string `json:"host"`
	Date               string `json:"date"`
	ExpectedTimeIn     string `json:"expectedTimeIn"`
}

// ArrivalRequest logs a scheduled visitor's arrival. Blank fields default to now.
type ArrivalRequest struct {
	TimeIn string `json:"timeIn"`
	Date   string `json:"date"`
}

// UpdateRequest edits a record. Nil fields are left unchanged.
type UpdateRequest struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Company *string `json:"company"`
	Host    *string `json:"host"`
}

// Service applies the visitor lifecycle rules on top of the repository and
// announces transitions to the notifier.
type Service struct {
	repo      *Repository
	publisher notify.Publisher

	// Now supplies the wall clock; tests replace it.
	Now func() time.Time
}

// NewService creates a visitor service.
func NewService(repo *Repository, publisher notify.Publisher) *Service {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Service{repo: repo, publisher: publisher, Now: time.Now}
}

// SignIn creates a walk-in record. The agreement must be signed.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Visitor, error) {
	if err := requireText(map[string]string{
		"name": req.Name, "surname": req.Surname, "host": req.Host,
	}, "name", "surname", "host"); err != nil {
		return nil, err
	}
	if !req.AgreementSigned {
		return nil, invalid("agreementSigned", "you must sign the agreement to proceed")
	}

	now := s.Now()
	v := &Visitor{
		Name:               strings.TrimSpace(req.Name),
		Surname:            strings.TrimSpace(req.Surname),
		Company:            strings.TrimSpace(req.Company),
		VisitorPhoneNumber: strings.TrimSpace(req.VisitorPhoneNumber),
		Photo:              req.Photo,
		ReasonForVisit:     strings.TrimSpace(req.ReasonForVisit),
		Host:               strings.TrimSpace(req.Host),
		Date:               orDefault(req.Date, now.Format(DateLayout)),
		TimeIn:             strPtr(orDefault(req.TimeIn, now.Format(TimeLayout))),
		AgreementSigned:    true,
	}

	saved, err := s.repo.Insert(ctx, v)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, notify.SignedIn, saved, Text(saved.TimeIn))
	return saved, nil
}

// Schedule pre-registers a visitor: no time-in, an expected time-in, and no
// agreement yet.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*Visitor, error) {
	if err := requireText(map[string]string{
		"name": req.Name, "surname": req.Surname, "host": req.Host,
		"date": req.Date, "expectedTimeIn": req.ExpectedTimeIn,
	}, "name", "surname", "host", "date", "expectedTimeIn"); err != nil {
		return nil, err
	}

	v := &Visitor{
		Name:               strings.TrimSpace(req.Name),
		Surname:            strings.TrimSpace(req.Surname),
		Company:            strings.TrimSpace(req.Company),
		VisitorPhoneNumber: strings.TrimSpace(req.VisitorPhoneNumber),
		ReasonForVisit:     strings.TrimSpace(req.ReasonForVisit),
		Host:               strings.TrimSpace(req.Host),
		Date:               strings.TrimSpace(req.Date),
		ExpectedTimeIn:     strPtr(strings.TrimSpace(req.ExpectedTimeIn)),
	}
	return s.repo.Insert(ctx, v)
}

// LogArrival checks in a scheduled visitor.
func (s *Service) LogArrival(ctx context.Context, id int64, req ArrivalRequest) (*Visitor, error) {
	now := s.Now()
	timeIn := orDefault(req.TimeIn, now.Format(TimeLayout))
	date := orDefault(req.Date, now.Format(DateLayout))

	v, err := s.repo.LogArrival(ctx, id, timeIn, date)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, notify.Arrived, v, timeIn)
	return v, nil
}

// SignOut records a visitor's departure. timeOut defaults to now.
func (s *Service) SignOut(ctx context.Context, id int64, timeOut string) (*Visitor, error) {
	timeOut = orDefault(timeOut, s.Now().Format(TimeLayout))

	v, err := s.repo.SignOut(ctx, id, timeOut)
	if err != nil {
		return nil, err
	}
	s.announce(ctx, notify.SignedOut, v, timeOut)
	return v, nil
}

// SignOutAll closes every open visit at timeOut, announcing each one as
// swept. Visits that began after timeOut are closed at late instead so no
// time-out precedes its time-in.
func (s *Service) SignOutAll(ctx context.Context, timeOut, late string) ([]*Visitor, error) {
	var closed []*Visitor

	if cutoff, ok := ParseClock(timeOut); ok && late != "" && late != timeOut {
		open, err := s.repo.Search(ctx, SearchOptions{Status: StatusCheckedIn})
		if err != nil {
			return nil, err
		}
		for _, v := range open {
			began, ok := ParseClock(Text(v.TimeIn))
			if !ok || began <= cutoff {
				continue
			}
			out, err := s.repo.SignOut(ctx, v.ID, late)
			if err != nil {
				return nil, err
			}
			s.announce(ctx, notify.Swept, out, late)
			closed = append(closed, out)
		}
	}

	rest, err := s.repo.SignOutOpen(ctx, timeOut)
	if err != nil {
		return nil, err
	}
	for _, v := range rest {
		s.announce(ctx, notify.Swept, v, timeOut)
	}
	return append(closed, rest...), nil
}

// Update edits name, surname, company or host.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Visitor, error) {
	changes := make(map[string]string)
	for wire, value := range map[string]*string{
		"name": req.Name, "surname": req.Surname, "company": req.Company, "host": req.Host,
	} {
		if value != nil {
			changes[wire] = strings.TrimSpace(*value)
		}
	}
	for _, required := range []string{"name", "surname"} {
		if value, ok := changes[required]; ok && value == "" {
			return nil, invalid(required, "cannot be blank")
		}
	}
	return s.repo.Update(ctx, id, changes)
}

// Get returns one visitor.
func (s *Service) Get(ctx context.Context, id int64) (*Visitor, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all visitors, newest first.
func (s *Service) List(ctx context.Context) ([]*Visitor, error) {
	return s.repo.List(ctx)
}

// Search finds visitors by name and status. The name is required.
func (s *Service) Search(ctx context.Context, name, status string) ([]*Visitor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "please enter a name to search")
	}
	st, ok := ParseStatus(status)
	if !ok {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.repo.Search(ctx, SearchOptions{Name: name, Status: st})
}

// Delete removes a visitor.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) announce(ctx context.Context, t notify.EventType, v *Visitor, at string) {
	e := notify.Event{
		Type:       t,
		VisitorID:  v.ID,
		Name:       v.FullName(),
		Company:    v.Company,
		Host:       v.Host,
		Time:       at,
		OccurredAt: s.Now(),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "publishing visitor event", "type", string(t), "visitor_id", v.ID, "error", err)
	}
}

// requireText checks the named fields, in order, are not blank.
func requireText(values map[string]string, order ...string) error {
	for _, field := range order {
		if strings.TrimSpace(values[field]) == "" {
			return invalid(field, "is required")
		}
	}
	return nil
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
