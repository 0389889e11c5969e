// Package wheel maps spins to challenges and drives the wheel's view state.
package wheel

import (
	"math"
	"math/rand/v2"
)

const (
	// SpinMinimum is the rotation every spin adds before the random offset (five full turns).
	SpinMinimum = 1800.0
	// SpinJitter bounds the random offset added on top of SpinMinimum.
	SpinJitter = 360.0

	// MaxRotation bounds the accumulator for exact spin steps: float64
	// spacing is still below a millionth of a degree here, some 460,000 spins in.
	MaxRotation = 1e9

	fullTurn = 360.0
)

// Normalize reduces an angle in degrees into [0, 360).
func Normalize(angle float64) float64 {
	a := math.Mod(angle, fullTurn)
	if a < 0 {
		a += fullTurn
	}
	// -1e-15 + 360 rounds back up to 360.
	if a >= fullTurn {
		a = 0
	}
	return a
}

// SegmentSize returns the angular width of one of n equal segments.
func SegmentSize(n int) float64 {
	return fullTurn / float64(n)
}

// SelectedIndex returns the segment under the fixed pointer after the wheel
// has rotated by rotation degrees. n must be >= 1.
func SelectedIndex(rotation float64, n int) int {
	normalized := Normalize(rotation)
	idx := int(math.Floor((fullTurn-normalized)/SegmentSize(n))) % n
	if idx < 0 {
		idx += n
	}
	return idx
}

// NextRotation returns the accumulated rotation after a spin with the given
// offset. The result lies in [current+1800, current+2160) while current
// stays below MaxRotation; past that float64 spacing swallows the offset.
func NextRotation(current, offset float64) float64 {
	if offset < 0 || math.IsNaN(offset) {
		offset = 0
	}
	next := current + SpinMinimum + offset
	if limit := current + SpinMinimum + SpinJitter; next >= limit {
		next = math.Nextafter(limit, current)
	}
	return next
}

// Selector turns a random spin into a challenge index.
type Selector struct {
	random func() float64
}

// NewSelector creates a Selector drawing from random, which must return
// values in [0, 1). A nil random uses math/rand/v2.
func NewSelector(random func() float64) *Selector {
	if random == nil {
		random = rand.Float64
	}
	return &Selector{random: random}
}

// Spin advances current by one spin over n segments and returns the new
// accumulated rotation and the selected index.
func (s *Selector) Spin(current float64, n int) (float64, int) {
	rotation := NextRotation(current, s.random()*SpinJitter)
	return rotation, SelectedIndex(rotation, n)
}
