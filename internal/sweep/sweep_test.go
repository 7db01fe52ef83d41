package sweep

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/frontdesk/internal/db"
	"github.com/evcraddock/frontdesk/internal/notify"
	"github.com/evcraddock/frontdesk/internal/visitor"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	path  string
	db    *db.DB
	svc   *visitor.Service
	store *Store
	sw    *Sweeper
	clock *clock
}

func openFixture(t *testing.T, path string, c *clock) *fixture {
	t.Helper()
	d, err := db.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	svc := visitor.NewService(visitor.NewRepository(d), notify.Nop{})
	svc.Now = c.now
	store := NewStore(d)

	sw, err := New(svc, store, Config{At: "15:45", Location: time.UTC})
	require.NoError(t, err)
	sw.Now = c.now

	return &fixture{path: path, db: d, svc: svc, store: store, sw: sw, clock: c}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return openFixture(t, filepath.Join(t.TempDir(), "visitors.db"), &clock{t: at(2, 9, 0)})
}

func (f *fixture) signIn(t *testing.T, name string) *visitor.Visitor {
	t.Helper()
	v, err := f.svc.SignIn(context.Background(), visitor.SignInRequest{
		Name: name, Surname: "X", Host: "Bob", AgreementSigned: true,
	})
	require.NoError(t, err)
	return v
}

func TestCheckBeforeTrigger(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "Ann")

	f.clock.t = at(2, 15, 44)
	_, ran, err := f.sw.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)

	last, err := f.store.Last(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestCheckSignsOutOpenVisits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	open := f.signIn(t, "Ann")
	closed := f.signIn(t, "Cy")
	_, err := f.svc.SignOut(ctx, closed.ID, "12:00:00")
	require.NoError(t, err)
	sched, err := f.svc.Schedule(ctx, visitor.ScheduleRequest{
		Name: "Dee", Surname: "Ross", Host: "Bob", Date: "2026-03-02", ExpectedTimeIn: "16:00",
	})
	require.NoError(t, err)

	f.clock.t = at(2, 15, 45)
	res, ran, err := f.sw.Check(ctx)
	require.NoError(t, err)
	require.True(t, ran)
	assert.Equal(t, Result{Date: "2026-03-02", SignedOut: 1}, res)

	got, err := f.svc.Get(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, "15:45:00", visitor.Text(got.TimeOut))

	got, err = f.svc.Get(ctx, closed.ID)
	require.NoError(t, err)
	assert.Equal(t, "12:00:00", visitor.Text(got.TimeOut), "closed visit untouched")

	got, err = f.svc.Get(ctx, sched.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TimeOut, "scheduled visit untouched")

	run, err := f.store.Get(ctx, "2026-03-02")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 1, run.SignedOut)
	assert.True(t, run.RanAt.Equal(at(2, 15, 45)))
}

func TestCheckOncePerDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock.t = at(2, 15, 45)
	_, ran, err := f.sw.Check(ctx)
	require.NoError(t, err)
	require.True(t, ran)

	// A visitor signing in after the sweep stays checked in until tomorrow's run.
	late := f.signIn(t, "Late")
	f.clock.t = at(2, 17, 0)
	_, ran, err = f.sw.Check(ctx)
	require.NoError(t, err)
	assert.False(t, ran)

	got, err := f.svc.Get(ctx, late.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TimeOut)

	f.clock.t = at(3, 15, 50)
	res, ran, err := f.sw.Check(ctx)
	require.NoError(t, err)
	require.True(t, ran)
	assert.Equal(t, Result{Date: "2026-03-03", SignedOut: 1}, res)
}

func TestCheckOncePerDateAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visitors.db")
	c := &clock{t: at(2, 9, 0)}

	first := openFixture(t, path, c)
	first.signIn(t, "Ann")
	c.t = at(2, 15, 46)
	_, ran, err := first.sw.Check(context.Background())
	require.NoError(t, err)
	require.True(t, ran)
	require.NoError(t, first.db.Close())

	c.t = at(2, 16, 30)
	second := openFixture(t, path, c)
	second.signIn(t, "Cy")
	_, ran, err = second.sw.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, ran, "restart on the same date must not sweep again")
}

func TestCheckCatchesUpAfterDowntime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	early := f.signIn(t, "Ann")

	f.clock.t = at(2, 16, 30)
	late := f.signIn(t, "Cy")

	// Server was down at 15:45 and comes back at 18:10.
	f.clock.t = at(2, 18, 10)
	res, ran, err := f.sw.Check(ctx)
	require.NoError(t, err)
	require.True(t, ran)
	assert.Equal(t, 2, res.SignedOut)

	got, err := f.svc.Get(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, "15:45:00", visitor.Text(got.TimeOut))

	got, err = f.svc.Get(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, "16:30:00", visitor.Text(got.TimeIn))
	assert.Equal(t, "18:10:00", visitor.Text(got.TimeOut), "arrival after the trigger closes at the run time")
}

func TestRunNowBeforeTrigger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.signIn(t, "Ann")

	f.clock.t = at(2, 12, 30)
	res, err := f.sw.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.SignedOut)

	got, err := f.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "12:30:00", visitor.Text(got.TimeOut))

	due, err := f.sw.Due(ctx, at(2, 15, 45))
	require.NoError(t, err)
	assert.True(t, due, "early manual run leaves the scheduled sweep due")
}

func TestRunNowAfterTrigger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.signIn(t, "Ann")
	f.signIn(t, "Cy")

	f.clock.t = at(2, 16, 0)
	res, err := f.sw.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SignedOut)

	got, err := f.svc.Get(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "15:45:00", visitor.Text(got.TimeOut))

	due, err := f.sw.Due(ctx, at(2, 16, 1))
	require.NoError(t, err)
	assert.False(t, due)

	// A second manual run adds to the day's count. Dee arrived after the
	// trigger, so that visit closes at the run time.
	dee := f.signIn(t, "Dee")
	f.clock.t = at(2, 17, 0)
	_, err = f.sw.RunNow(ctx)
	require.NoError(t, err)
	run, err := f.store.Get(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, 3, run.SignedOut)

	got, err = f.svc.Get(ctx, dee.ID)
	require.NoError(t, err)
	assert.Equal(t, "16:00:00", visitor.Text(got.TimeIn))
	assert.Equal(t, "17:00:00", visitor.Text(got.TimeOut))
}

type failingSigner struct{}

func (failingSigner) SignOutAll(context.Context, string, string) ([]*visitor.Visitor, error) {
	return nil, errors.New("database is locked")
}

func TestCheckSignerError(t *testing.T) {
	f := newFixture(t)
	sw, err := New(failingSigner{}, f.store, Config{Location: time.UTC})
	require.NoError(t, err)
	sw.Now = func() time.Time { return at(2, 16, 0) }

	_, ran, err := sw.Check(context.Background())
	assert.Error(t, err)
	assert.False(t, ran)

	last, err := f.store.Last(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last, "failed sweep is not recorded")
}

func TestNewRejectsBadTime(t *testing.T) {
	_, err := New(failingSigner{}, nil, Config{At: "quarter to four"})
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	sw, err := New(f.svc, f.store, Config{Location: time.UTC, Interval: time.Millisecond})
	require.NoError(t, err)
	sw.Now = func() time.Time { return at(2, 16, 0) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		run, err := f.store.Get(context.Background(), "2026-03-02")
		return err == nil && run != nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestStoreLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Record(ctx, Run{Date: "2026-03-01", SignedOut: 2, RanAt: at(1, 15, 45)}))
	require.NoError(t, f.store.Record(ctx, Run{Date: "2026-03-02", SignedOut: 0, RanAt: at(2, 15, 45)}))

	last, err := f.store.Last(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "2026-03-02", last.Date)
	assert.Equal(t, 0, last.SignedOut)
}
