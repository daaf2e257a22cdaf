package entities

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrMalformedRecord = errors.New("malformed record")
	ErrNoCorrectOption = errors.New("question has no correct option")
)

// Difficulty is the label attached to a quiz for display and sorting.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty accepts only the three known labels, compared exactly.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q: %w", s, ErrMalformedRecord)
	}
}

// Rank orders difficulties by severity: Easy < Medium < Hard.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	default:
		return 0
	}
}

// Quiz is a read-only catalog entry owned by the external store.
type Quiz struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
}

// Slug returns a URL-friendly form of the title.
func (q Quiz) Slug() string {
	return slug.Make(q.Title)
}

// Validate checks the record shape received from the store.
func (q Quiz) Validate() error {
	if q.ID <= 0 {
		return fmt.Errorf("quiz id %d: %w", q.ID, ErrMalformedRecord)
	}
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("quiz %d: empty title: %w", q.ID, ErrMalformedRecord)
	}
	if _, err := ParseDifficulty(string(q.Difficulty)); err != nil {
		return fmt.Errorf("quiz %d: %w", q.ID, err)
	}
	return nil
}
