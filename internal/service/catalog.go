package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aliskhannn/quizier/internal/domain/entities"
)

// SortKey selects the catalog ordering.
type SortKey string

const (
	SortByTitle      SortKey = "title"
	SortByDifficulty SortKey = "difficulty" // lexicographic on the label: Easy, Hard, Medium
	SortBySeverity   SortKey = "severity"   // Easy, Medium, Hard
)

var ErrUnknownSortKey = errors.New("unknown sort key")

// ParseSortKey maps user input to a SortKey. Empty input means title.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByTitle, nil
	case SortByTitle, SortByDifficulty, SortBySeverity:
		return k, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownSortKey)
	}
}

// Catalog holds the quizzes fetched for one browsing activation and derives
// filtered, sorted views from them.
type Catalog struct {
	lister QuizLister
	logger *zap.Logger

	mu      sync.RWMutex
	quizzes []entities.Quiz
}

func NewCatalog(lister QuizLister, logger *zap.Logger) *Catalog {
	return &Catalog{
		lister: lister,
		logger: logger,
	}
}

// Load fetches every quiz once. On failure the held set stays empty and the
// error is logged and returned; nothing is retried.
func (c *Catalog) Load(ctx context.Context) error {
	quizzes, err := c.lister.ListQuizzes(ctx)
	if err != nil {
		c.logger.Error("failed to fetch quizzes", zap.Error(err))

		c.mu.Lock()
		c.quizzes = nil
		c.mu.Unlock()

		return fmt.Errorf("fetch quizzes: %w", err)
	}

	c.mu.Lock()
	c.quizzes = quizzes
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", zap.Int("quizzes", len(quizzes)))
	return nil
}

// Len returns the size of the fetched set.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quizzes)
}

// View filters by a case-insensitive title substring and sorts by key.
// Ties keep fetch order. The result is a fresh slice.
func (c *Catalog) View(term string, key SortKey) []entities.Quiz {
	needle := strings.ToLower(term)

	c.mu.RLock()
	out := make([]entities.Quiz, 0, len(c.quizzes))
	for _, q := range c.quizzes {
		if strings.Contains(strings.ToLower(q.Title), needle) {
			out = append(out, q)
		}
	}
	c.mu.RUnlock()

	slices.SortStableFunc(out, compareFunc(key))
	return out
}

func compareFunc(key SortKey) func(a, b entities.Quiz) int {
	switch key {
	case SortByDifficulty:
		return func(a, b entities.Quiz) int {
			return strings.Compare(string(a.Difficulty), string(b.Difficulty))
		}
	case SortBySeverity:
		return func(a, b entities.Quiz) int {
			return a.Difficulty.Rank() - b.Difficulty.Rank()
		}
	default:
		// Collator keeps per-call buffers and is not safe for concurrent use.
		col := collate.New(language.English)
		return func(a, b entities.Quiz) int {
			return col.CompareString(a.Title, b.Title)
		}
	}
}
