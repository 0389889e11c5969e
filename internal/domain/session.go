package domain

// ViewState is the wheel's current view.
type ViewState string

const (
	StateIdle           ViewState = "idle"
	StateSpinning       ViewState = "spinning"
	StateChallengeShown ViewState = "challenge_shown"
)

// SpinSession holds the ephemeral state of one visitor's wheel.
// It is a plain value; transitions return an updated copy.
type SpinSession struct {
	State ViewState
	// Rotation is the cumulative visual rotation in degrees. It never decreases.
	Rotation   float64
	TotalSpins int
	// Selected is the index of the challenge on display, set only in StateChallengeShown.
	Selected *int
	// PendingIndex is the index chosen by the last accepted spin.
	PendingIndex int
	// Generation increments on every accepted spin and tags its timer callback.
	Generation uint64
}

// NewSpinSession returns the initial idle session.
func NewSpinSession() SpinSession {
	return SpinSession{State: StateIdle}
}

// SelectedIndex returns the selected challenge index, if any.
func (s SpinSession) SelectedIndex() (int, bool) {
	if s.Selected == nil {
		return 0, false
	}
	return *s.Selected, true
}
