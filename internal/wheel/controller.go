package wheel

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/mischief-wheel/internal/domain"
	"github.com/google/uuid"
)

// DefaultSpinDelay is how long the spin animation is given before the result shows.
const DefaultSpinDelay = 2500 * time.Millisecond

const subscriberBuffer = 4

// ErrClosed is returned by a controller that has been torn down.
var ErrClosed = errors.New("wheel session closed")

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	SpinDelay time.Duration
	Selector  *Selector
	Scheduler Scheduler
	Now       func() time.Time
}

// Controller owns one visitor's SpinSession and serialises its transitions.
// It is safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	token string
	set   *domain.ChallengeSet
	sel   *Selector
	sched Scheduler
	delay time.Duration
	now   func() time.Time

	session    domain.SpinSession
	timer      Timer
	closed     bool
	lastActive time.Time

	subs    map[int]chan Snapshot
	nextSub int
}

// NewController creates a controller in the idle state.
func NewController(set *domain.ChallengeSet, opts Options) *Controller {
	if opts.SpinDelay <= 0 {
		opts.SpinDelay = DefaultSpinDelay
	}
	if opts.Selector == nil {
		opts.Selector = NewSelector(nil)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		token:      uuid.NewString(),
		set:        set,
		sel:        opts.Selector,
		sched:      opts.Scheduler,
		delay:      opts.SpinDelay,
		now:        opts.Now,
		session:    domain.NewSpinSession(),
		lastActive: opts.Now(),
		subs:       make(map[int]chan Snapshot),
	}
}

// Token identifies this session instance. A recreated session gets a new token.
func (c *Controller) Token() string {
	return c.token
}

// Spin requests a spin. While a spin is in progress or a challenge is shown
// it returns ErrSpinRejected and changes nothing.
func (c *Controller) Spin() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, ErrClosed
	}

	next, err := RequestSpin(c.session, c.sel, c.set.Len())
	if err != nil {
		return c.snapshotLocked(), err
	}
	c.session = next
	c.lastActive = c.now()

	gen := next.Generation
	c.timer = c.sched.AfterFunc(c.delay, func() { c.elapse(gen) })

	slog.Debug("Spin accepted", "token", c.token, "generation", gen, "rotation", next.Rotation)
	return c.publishLocked(), nil
}

func (c *Controller) elapse(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		slog.Debug("Ignoring spin callback for closed session", "token", c.token, "generation", gen)
		return
	}

	next, ok := ElapseSpin(c.session, gen)
	if !ok {
		return
	}
	c.session = next
	c.timer = nil

	slog.Info("Challenge selected",
		"token", c.token,
		"index", next.PendingIndex,
		"total_spins", next.TotalSpins)
	c.publishLocked()
}

// Complete dismisses the shown challenge as done.
func (c *Controller) Complete() (Snapshot, error) {
	return c.dismiss(Complete)
}

// Skip dismisses the shown challenge without doing it.
func (c *Controller) Skip() (Snapshot, error) {
	return c.dismiss(Skip)
}

func (c *Controller) dismiss(fn func(domain.SpinSession) (domain.SpinSession, error)) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, ErrClosed
	}

	next, err := fn(c.session)
	if err != nil {
		return c.snapshotLocked(), err
	}
	c.session = next
	c.lastActive = c.now()
	return c.publishLocked(), nil
}

// Snapshot returns the current render view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Session returns a copy of the underlying session state.
func (c *Controller) Session() domain.SpinSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// LastActive returns the time of the last accepted visitor event,
// subscription or unsubscription.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Subscribe returns a channel receiving a snapshot after every transition.
// A slow reader misses intermediate snapshots but always gets the latest.
// The channel is closed on unsubscribe or when the controller closes.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.lastActive = c.now()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
			// The idle clock starts when the last viewer leaves.
			c.lastActive = c.now()
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (c *Controller) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close tears the session down. A pending spin callback becomes a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) snapshotLocked() Snapshot {
	return NewSnapshot(c.session, c.set)
}

func (c *Controller) publishLocked() Snapshot {
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so the newest is delivered.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	return snap
}
