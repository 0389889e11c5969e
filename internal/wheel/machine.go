package wheel

import (
	"errors"

	"github.com/ashureev/mischief-wheel/internal/domain"
)

var (
	// ErrSpinRejected is returned when a spin is requested outside the idle state.
	ErrSpinRejected = errors.New("spin not allowed in current state")
	// ErrNoChallenge is returned when complete or skip arrives with nothing on display.
	ErrNoChallenge = errors.New("no challenge is shown")
)

// RequestSpin starts a spin from the idle state. The session is returned
// unchanged with ErrSpinRejected from any other state, so a second request
// while spinning never moves the wheel or schedules another callback.
func RequestSpin(s domain.SpinSession, sel *Selector, n int) (domain.SpinSession, error) {
	if s.State != domain.StateIdle {
		return s, ErrSpinRejected
	}

	s.Rotation, s.PendingIndex = sel.Spin(s.Rotation, n)
	s.Generation++
	s.State = domain.StateSpinning
	return s, nil
}

// ElapseSpin lands the spin tagged gen. It reports false and leaves the
// session untouched if the session is not spinning or gen is stale.
func ElapseSpin(s domain.SpinSession, gen uint64) (domain.SpinSession, bool) {
	if s.State != domain.StateSpinning || s.Generation != gen {
		return s, false
	}

	idx := s.PendingIndex
	s.Selected = &idx
	s.TotalSpins++
	s.State = domain.StateChallengeShown
	return s, true
}

// Complete dismisses the shown challenge after the visitor did it.
func Complete(s domain.SpinSession) (domain.SpinSession, error) {
	return dismiss(s)
}

// Skip dismisses the shown challenge without doing it. The spin still counts.
func Skip(s domain.SpinSession) (domain.SpinSession, error) {
	return dismiss(s)
}

func dismiss(s domain.SpinSession) (domain.SpinSession, error) {
	if s.State != domain.StateChallengeShown {
		return s, ErrNoChallenge
	}
	s.Selected = nil
	s.State = domain.StateIdle
	return s, nil
}

// ChallengeView is a challenge together with its difficulty badge.
type ChallengeView struct {
	domain.Challenge
	Emoji    string `json:"emoji"`
	Gradient string `json:"gradient"`
}

// Snapshot is everything a renderer needs to draw the current state.
type Snapshot struct {
	State      domain.ViewState `json:"state"`
	Rotation   float64          `json:"rotation"`
	TotalSpins int              `json:"total_spins"`
	CanSpin    bool             `json:"can_spin"`
	Challenge  *ChallengeView   `json:"challenge,omitempty"`
}

// NewSnapshot builds the render view of s against set.
func NewSnapshot(s domain.SpinSession, set *domain.ChallengeSet) Snapshot {
	snap := Snapshot{
		State:      s.State,
		Rotation:   s.Rotation,
		TotalSpins: s.TotalSpins,
		CanSpin:    s.State == domain.StateIdle,
	}
	if idx, ok := s.SelectedIndex(); ok && s.State == domain.StateChallengeShown {
		c := set.At(idx)
		snap.Challenge = &ChallengeView{
			Challenge: c,
			Emoji:     c.Difficulty.Emoji(),
			Gradient:  c.Difficulty.Gradient(),
		}
	}
	return snap
}
