package wheel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/mischief-wheel/internal/domain"
)

type fakeTimer struct {
	s       *fakeScheduler
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, f: f}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fire runs timer i regardless of Stop, like a callback already in flight.
func (s *fakeScheduler) fire(i int) {
	s.mu.Lock()
	f := s.timers[i].f
	s.mu.Unlock()
	f()
}

func newTestController(t *testing.T, n int) (*Controller, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	c := NewController(testSet(t, n), Options{
		SpinDelay: time.Second,
		Selector:  fixedSelector(10.0 / 360),
		Scheduler: sched,
	})
	return c, sched
}

func TestController_RoundTrip(t *testing.T) {
	c, sched := newTestController(t, 4)

	snap, err := c.Spin()
	if err != nil {
		t.Fatalf("Spin() error = %v", err)
	}
	if snap.State != domain.StateSpinning || snap.CanSpin {
		t.Fatalf("Expected spinning snapshot, got %+v", snap)
	}
	if sched.count() != 1 || sched.delays[0] != time.Second {
		t.Fatalf("Expected one callback after 1s, got %d %v", sched.count(), sched.delays)
	}

	sched.fire(0)

	snap = c.Snapshot()
	if snap.State != domain.StateChallengeShown || snap.TotalSpins != 1 {
		t.Fatalf("Expected shown challenge and 1 spin, got %+v", snap)
	}
	if snap.Challenge == nil || snap.Challenge.ID != 3 {
		t.Fatalf("Expected challenge 3, got %+v", snap.Challenge)
	}

	snap, err = c.Skip()
	if err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if snap.State != domain.StateIdle || snap.Challenge != nil || snap.TotalSpins != 1 {
		t.Errorf("Expected idle with 1 spin, got %+v", snap)
	}
}

func TestController_DoubleSpinIsNoop(t *testing.T) {
	c, sched := newTestController(t, 4)

	if _, err := c.Spin(); err != nil {
		t.Fatalf("Spin() error = %v", err)
	}
	before := c.Session()

	if _, err := c.Spin(); !errors.Is(err, ErrSpinRejected) {
		t.Fatalf("Expected ErrSpinRejected, got %v", err)
	}
	if sched.count() != 1 {
		t.Errorf("Expected exactly one scheduled callback, got %d", sched.count())
	}
	if after := c.Session(); after.Rotation != before.Rotation {
		t.Errorf("Rotation changed from %v to %v", before.Rotation, after.Rotation)
	}
}

func TestController_SpinRejectedWhileShown(t *testing.T) {
	c, sched := newTestController(t, 4)
	_, _ = c.Spin()
	sched.fire(0)

	if _, err := c.Spin(); !errors.Is(err, ErrSpinRejected) {
		t.Errorf("Expected ErrSpinRejected, got %v", err)
	}
	if _, err := c.Complete(); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := c.Complete(); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("Expected ErrNoChallenge on second complete, got %v", err)
	}
}

func TestController_CallbackFiresOnce(t *testing.T) {
	c, sched := newTestController(t, 4)
	_, _ = c.Spin()
	sched.fire(0)
	sched.fire(0)

	if got := c.Snapshot().TotalSpins; got != 1 {
		t.Errorf("Expected 1 spin after duplicate callback, got %d", got)
	}
}

func TestController_CloseStopsPendingCallback(t *testing.T) {
	c, sched := newTestController(t, 4)
	_, _ = c.Spin()

	c.Close()
	if !sched.timers[0].stopped {
		t.Error("Close() should stop the pending timer")
	}

	sched.fire(0)
	if s := c.Session(); s.State != domain.StateSpinning || s.TotalSpins != 0 {
		t.Errorf("Stale callback changed a closed session: %+v", s)
	}
	if _, err := c.Spin(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if !c.Closed() {
		t.Error("Closed() should report true")
	}
}

func TestController_Subscribe(t *testing.T) {
	c, sched := newTestController(t, 4)
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	_, _ = c.Spin()
	if snap := <-updates; snap.State != domain.StateSpinning {
		t.Errorf("Expected spinning update, got %s", snap.State)
	}

	sched.fire(0)
	if snap := <-updates; snap.State != domain.StateChallengeShown {
		t.Errorf("Expected challenge_shown update, got %s", snap.State)
	}
}

func TestController_SlowSubscriberGetsLatest(t *testing.T) {
	c, sched := newTestController(t, 4)
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	for i := 0; i < 10; i++ {
		_, _ = c.Spin()
		sched.fire(i)
		_, _ = c.Complete()
	}

	var last Snapshot
	for len(updates) > 0 {
		last = <-updates
	}
	if last.TotalSpins != 10 || last.State != domain.StateIdle {
		t.Errorf("Expected latest idle snapshot with 10 spins, got %+v", last)
	}
}

func TestController_CloseClosesSubscribers(t *testing.T) {
	c, _ := newTestController(t, 2)
	updates, unsubscribe := c.Subscribe()

	c.Close()
	if _, ok := <-updates; ok {
		t.Error("Expected subscriber channel to be closed")
	}
	unsubscribe()

	late, _ := c.Subscribe()
	if _, ok := <-late; ok {
		t.Error("Subscribing to a closed controller should yield a closed channel")
	}
}

func TestController_LastActive(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sched := &fakeScheduler{}
	c := NewController(testSet(t, 2), Options{
		Scheduler: sched,
		Now:       func() time.Time { return now },
	})
	if !c.LastActive().Equal(now) {
		t.Fatalf("Expected creation time, got %v", c.LastActive())
	}

	now = now.Add(time.Minute)
	_, _ = c.Spin()
	if !c.LastActive().Equal(now) {
		t.Errorf("Expected spin to refresh activity, got %v", c.LastActive())
	}
	if sched.delays[0] != DefaultSpinDelay {
		t.Errorf("Expected default delay, got %v", sched.delays[0])
	}
}

func TestController_RealTimer(t *testing.T) {
	c := NewController(testSet(t, 3), Options{SpinDelay: 10 * time.Millisecond})
	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	if _, err := c.Spin(); err != nil {
		t.Fatalf("Spin() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-updates:
			if snap.State == domain.StateChallengeShown {
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for spin to land")
		}
	}
}

func TestController_SubscriptionRefreshesActivity(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewController(testSet(t, 2), Options{
		Scheduler: &fakeScheduler{},
		Now:       func() time.Time { return now },
	})

	now = now.Add(time.Minute)
	_, unsubscribe := c.Subscribe()
	if c.Subscribers() != 1 || !c.LastActive().Equal(now) {
		t.Fatalf("Expected 1 subscriber active at %v, got %d at %v", now, c.Subscribers(), c.LastActive())
	}

	now = now.Add(time.Hour)
	unsubscribe()
	if c.Subscribers() != 0 || !c.LastActive().Equal(now) {
		t.Errorf("Expected no subscribers active at %v, got %d at %v", now, c.Subscribers(), c.LastActive())
	}
}
