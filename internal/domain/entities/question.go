package entities

import (
	"fmt"
	"strings"
)

// Option is a selectable answer for a question.
type Option struct {
	ID        int64  `json:"id"`
	Text      string `json:"option_text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question belongs to exactly one quiz and carries its options in display order.
type Question struct {
	ID      int64    `json:"id"`
	QuizID  int64    `json:"quiz_id"`
	Text    string   `json:"question_text"`
	Options []Option `json:"options"`
}

// Option returns the option with the given id.
func (q *Question) Option(id int64) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// CorrectOption returns the first option flagged as correct.
func (q *Question) CorrectOption() (Option, error) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o, nil
		}
	}
	return Option{}, fmt.Errorf("question %d: %w", q.ID, ErrNoCorrectOption)
}

// Validate checks the record shape received from the store.
// A question without a correct option is not rejected here; that case is
// reported when an answer is revealed.
func (q *Question) Validate() error {
	if q.ID <= 0 {
		return fmt.Errorf("question id %d: %w", q.ID, ErrMalformedRecord)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %d: empty text: %w", q.ID, ErrMalformedRecord)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("question %d: no options: %w", q.ID, ErrMalformedRecord)
	}

	seen := make(map[int64]struct{}, len(q.Options))
	for _, o := range q.Options {
		if o.ID <= 0 || strings.TrimSpace(o.Text) == "" {
			return fmt.Errorf("question %d: option %d: %w", q.ID, o.ID, ErrMalformedRecord)
		}
		if _, dup := seen[o.ID]; dup {
			return fmt.Errorf("question %d: duplicate option %d: %w", q.ID, o.ID, ErrMalformedRecord)
		}
		seen[o.ID] = struct{}{}
	}
	return nil
}
