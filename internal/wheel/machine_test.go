package wheel

import (
	"errors"
	"testing"

	"github.com/ashureev/mischief-wheel/internal/domain"
)

func fixedSelector(v float64) *Selector {
	return NewSelector(func() float64 { return v })
}

func testSet(t *testing.T, n int) *domain.ChallengeSet {
	t.Helper()
	items := make([]domain.Challenge, n)
	for i := range items {
		items[i] = domain.Challenge{ID: i, Text: "Challenge text", Difficulty: domain.DifficultyMedium}
	}
	set, err := domain.NewChallengeSet(items)
	if err != nil {
		t.Fatalf("NewChallengeSet() error = %v", err)
	}
	return set
}

func TestRequestSpin_FromIdle(t *testing.T) {
	s := domain.NewSpinSession()

	// offset 10 degrees: rotation 1810, normalized 10, index 3 of 4.
	next, err := RequestSpin(s, fixedSelector(10.0/360), 4)
	if err != nil {
		t.Fatalf("RequestSpin() error = %v", err)
	}
	if next.State != domain.StateSpinning {
		t.Errorf("Expected spinning, got %s", next.State)
	}
	if next.PendingIndex != 3 {
		t.Errorf("Expected pending index 3, got %d", next.PendingIndex)
	}
	if next.Generation != 1 {
		t.Errorf("Expected generation 1, got %d", next.Generation)
	}
	if next.TotalSpins != 0 || next.Selected != nil {
		t.Error("Spin request must not select or count yet")
	}
}

func TestRequestSpin_RejectedWhileSpinning(t *testing.T) {
	s, err := RequestSpin(domain.NewSpinSession(), fixedSelector(0.5), 4)
	if err != nil {
		t.Fatalf("RequestSpin() error = %v", err)
	}

	again, err := RequestSpin(s, fixedSelector(0.1), 4)
	if !errors.Is(err, ErrSpinRejected) {
		t.Fatalf("Expected ErrSpinRejected, got %v", err)
	}
	if again.Rotation != s.Rotation || again.Generation != s.Generation {
		t.Error("Rejected spin must not change the session")
	}
}

func TestElapseSpin_StaleGeneration(t *testing.T) {
	s, _ := RequestSpin(domain.NewSpinSession(), fixedSelector(0.5), 4)

	if _, ok := ElapseSpin(s, s.Generation-1); ok {
		t.Error("Stale generation should be ignored")
	}
	if _, ok := ElapseSpin(domain.NewSpinSession(), 0); ok {
		t.Error("Elapse from idle should be ignored")
	}
}

func TestRoundTrip(t *testing.T) {
	set := testSet(t, 4)
	s := domain.NewSpinSession()

	s, err := RequestSpin(s, fixedSelector(0.3), set.Len())
	if err != nil {
		t.Fatalf("RequestSpin() error = %v", err)
	}

	s, ok := ElapseSpin(s, s.Generation)
	if !ok {
		t.Fatal("ElapseSpin() should land the current generation")
	}
	if s.State != domain.StateChallengeShown || s.TotalSpins != 1 {
		t.Fatalf("Expected challenge shown with 1 spin, got %s/%d", s.State, s.TotalSpins)
	}
	idx, shown := s.SelectedIndex()
	if !shown || idx < 0 || idx >= set.Len() {
		t.Fatalf("Expected a valid selection, got %d/%v", idx, shown)
	}

	snap := NewSnapshot(s, set)
	if snap.Challenge == nil || snap.Challenge.ID != idx || snap.CanSpin {
		t.Errorf("Unexpected snapshot %+v", snap)
	}

	s, err = Skip(s)
	if err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if s.State != domain.StateIdle || s.Selected != nil || s.TotalSpins != 1 {
		t.Errorf("Expected idle, cleared, 1 spin; got %s/%v/%d", s.State, s.Selected, s.TotalSpins)
	}
	if snap := NewSnapshot(s, set); snap.Challenge != nil || !snap.CanSpin {
		t.Errorf("Unexpected idle snapshot %+v", snap)
	}
}

func TestDismiss_RequiresShownChallenge(t *testing.T) {
	if _, err := Complete(domain.NewSpinSession()); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("Complete() from idle: expected ErrNoChallenge, got %v", err)
	}
	spinning, _ := RequestSpin(domain.NewSpinSession(), fixedSelector(0), 2)
	if _, err := Skip(spinning); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("Skip() while spinning: expected ErrNoChallenge, got %v", err)
	}
}

func TestCompleteAndSkip_CountOnce(t *testing.T) {
	s := domain.NewSpinSession()
	sel := fixedSelector(0.7)
	for i, dismiss := range []func(domain.SpinSession) (domain.SpinSession, error){Complete, Skip, Complete} {
		s, _ = RequestSpin(s, sel, 3)
		s, _ = ElapseSpin(s, s.Generation)
		var err error
		s, err = dismiss(s)
		if err != nil {
			t.Fatalf("dismiss %d error = %v", i, err)
		}
		if s.TotalSpins != i+1 {
			t.Errorf("After %d spins, TotalSpins = %d", i+1, s.TotalSpins)
		}
	}
}

func TestRotationIsMonotonic(t *testing.T) {
	s := domain.NewSpinSession()
	sel := NewSelector(nil)
	for i := 0; i < 50; i++ {
		prev := s.Rotation
		s, _ = RequestSpin(s, sel, 6)
		if d := s.Rotation - prev; d < SpinMinimum || d >= SpinMinimum+SpinJitter {
			t.Fatalf("spin %d advanced rotation by %v", i, d)
		}
		s, _ = ElapseSpin(s, s.Generation)
		s, _ = Complete(s)
	}
}

func TestSingleChallengeAlwaysIndexZero(t *testing.T) {
	s := domain.NewSpinSession()
	sel := NewSelector(nil)
	for i := 0; i < 20; i++ {
		s, _ = RequestSpin(s, sel, 1)
		if s.PendingIndex != 0 {
			t.Fatalf("Expected index 0, got %d", s.PendingIndex)
		}
		s, _ = ElapseSpin(s, s.Generation)
		s, _ = Skip(s)
	}
}
