// Package domain contains core domain types for the wheel application.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyChallengeSet is returned when a wheel is built without challenges.
var ErrEmptyChallengeSet = errors.New("challenge set is empty")

// Difficulty tags how hard a challenge is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty converts a raw dataset value into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Emoji returns the badge icon shown next to the difficulty.
// Unknown values render like easy ones.
func (d Difficulty) Emoji() string {
	switch d {
	case DifficultyMedium:
		return "🔥"
	case DifficultyHard:
		return "💀"
	default:
		return "🌿"
	}
}

// Gradient returns the badge gradient classes for the difficulty.
func (d Difficulty) Gradient() string {
	switch d {
	case DifficultyMedium:
		return "from-yellow-500 to-orange-600"
	case DifficultyHard:
		return "from-red-500 to-pink-600"
	default:
		return "from-green-500 to-emerald-600"
	}
}

// Challenge is a single wheel segment's prompt.
type Challenge struct {
	ID         int        `json:"id"`
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
}

// ChallengeSet is the ordered, read-only list of challenges on the wheel.
type ChallengeSet struct {
	items []Challenge
}

// NewChallengeSet validates and freezes a challenge list.
// Each challenge's ID must match its position in the list.
func NewChallengeSet(items []Challenge) (*ChallengeSet, error) {
	if len(items) == 0 {
		return nil, ErrEmptyChallengeSet
	}

	frozen := make([]Challenge, len(items))
	for i, c := range items {
		if c.ID != i {
			return nil, fmt.Errorf("challenge at position %d has id %d", i, c.ID)
		}
		if strings.TrimSpace(c.Text) == "" {
			return nil, fmt.Errorf("challenge %d has empty text", c.ID)
		}
		d, err := ParseDifficulty(string(c.Difficulty))
		if err != nil {
			return nil, fmt.Errorf("challenge %d: %w", c.ID, err)
		}
		c.Difficulty = d
		frozen[i] = c
	}

	return &ChallengeSet{items: frozen}, nil
}

// Len returns the number of challenges (always >= 1).
func (s *ChallengeSet) Len() int {
	return len(s.items)
}

// At returns the challenge at index i. i must be in [0, Len()).
func (s *ChallengeSet) At(i int) Challenge {
	return s.items[i]
}

// All returns a copy of the challenges in wheel order.
func (s *ChallengeSet) All() []Challenge {
	out := make([]Challenge, len(s.items))
	copy(out, s.items)
	return out
}
