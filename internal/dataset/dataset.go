// Package dataset loads the static challenge list the wheel is built from.
package dataset

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ashureev/mischief-wheel/internal/domain"
	"github.com/go-playground/validator/v10"
)

//go:embed challenges.json
var defaultChallenges []byte

var validate = validator.New()

type record struct {
	ID         *int   `json:"id" validate:"required,min=0"`
	Text       string `json:"text" validate:"required"`
	Difficulty string `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

type document struct {
	Challenges []record `validate:"required,min=1,dive"`
}

// Default returns the bundled challenge set.
func Default() (*domain.ChallengeSet, error) {
	return Parse(defaultChallenges)
}

// Load reads a challenge set from path, or the bundled set when path is empty.
func Load(path string) (*domain.ChallengeSet, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read challenges %s: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load challenges %s: %w", path, err)
	}
	return set, nil
}

// Parse decodes a JSON array of {id, text, difficulty} records.
// An empty array yields domain.ErrEmptyChallengeSet.
func Parse(data []byte) (*domain.ChallengeSet, error) {
	var doc document
	if err := json.Unmarshal(data, &doc.Challenges); err != nil {
		return nil, fmt.Errorf("decode challenges: %w", err)
	}
	if len(doc.Challenges) == 0 {
		return nil, domain.ErrEmptyChallengeSet
	}
	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid challenge %s: failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("validate challenges: %w", err)
	}

	items := make([]domain.Challenge, len(doc.Challenges))
	for i, r := range doc.Challenges {
		items[i] = domain.Challenge{
			ID:         *r.ID,
			Text:       r.Text,
			Difficulty: domain.Difficulty(r.Difficulty),
		}
	}
	return domain.NewChallengeSet(items)
}
