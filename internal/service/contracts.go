package service

import (
	"context"
	"time"

	"github.com/aliskhannn/quizier/internal/domain/entities"
)

// QuizLister fetches the whole catalog.
type QuizLister interface {
	ListQuizzes(ctx context.Context) ([]entities.Quiz, error)
}

// QuizSource fetches one quiz and its questions with options embedded.
type QuizSource interface {
	GetQuiz(ctx context.Context, id int64) (*entities.Quiz, error)
	ListQuestions(ctx context.Context, quizID int64) ([]entities.Question, error)
}

// QuizStore is implemented by both the Postgres and the fixture repositories.
type QuizStore interface {
	QuizLister
	QuizSource
}

// Scheduler runs f once after d. The returned handle cancels it.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled function.
type Timer interface {
	Stop() bool
}

// SessionSweeper evicts sessions idle since before the cutoff.
type SessionSweeper interface {
	Sweep(cutoff time.Time) int
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler is backed by time.AfterFunc.
var RealScheduler Scheduler = timeScheduler{}
