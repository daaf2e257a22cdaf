package service

import (
	"context"
	"sync"
	"time"

	"github.com/aliskhannn/quizier/internal/domain/entities"
)

type fakeStore struct {
	mu sync.Mutex

	quizzes   []entities.Quiz
	questions map[int64][]entities.Question

	listErr      error
	quizErr      error
	questionsErr error

	listCalls      int
	quizCalls      int
	questionsCalls int
}

func (f *fakeStore) ListQuizzes(_ context.Context) ([]entities.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]entities.Quiz(nil), f.quizzes...), nil
}

func (f *fakeStore) GetQuiz(_ context.Context, id int64) (*entities.Quiz, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quizCalls++
	if f.quizErr != nil {
		return nil, f.quizErr
	}
	for _, q := range f.quizzes {
		if q.ID == id {
			q := q
			return &q, nil
		}
	}
	return nil, entities.ErrQuizNotFound
}

func (f *fakeStore) ListQuestions(_ context.Context, quizID int64) ([]entities.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questionsCalls++
	if f.questionsErr != nil {
		return nil, f.questionsErr
	}
	return append([]entities.Question(nil), f.questions[quizID]...), nil
}

// manualScheduler records scheduled functions; tests fire them explicitly.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{delay: d, fn: f}
	s.tasks = append(s.tasks, t)
	return t
}

// fireAll runs every pending task, ignoring stopped ones, and returns how many ran.
func (s *manualScheduler) fireAll() int {
	s.mu.Lock()
	pending := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	n := 0
	for _, t := range pending {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.fn()
		n++
	}
	return n
}

// fireStopped runs tasks even if they were stopped, as a timer that already
// fired before Stop would.
func (s *manualScheduler) fireStopped() {
	s.mu.Lock()
	pending := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, t := range pending {
		t.fn()
	}
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func threeQuestionQuiz() *fakeStore {
	return &fakeStore{
		quizzes: []entities.Quiz{{ID: 1, Title: "Capitals", Difficulty: entities.DifficultyEasy}},
		questions: map[int64][]entities.Question{
			1: {
				{ID: 11, QuizID: 1, Text: "France?", Options: []entities.Option{
					{ID: 111, Text: "Paris", IsCorrect: true},
					{ID: 112, Text: "Lyon"},
				}},
				{ID: 12, QuizID: 1, Text: "Japan?", Options: []entities.Option{
					{ID: 121, Text: "Osaka"},
					{ID: 122, Text: "Tokyo", IsCorrect: true},
				}},
				{ID: 13, QuizID: 1, Text: "Italy?", Options: []entities.Option{
					{ID: 131, Text: "Rome", IsCorrect: true},
					{ID: 132, Text: "Milan"},
				}},
			},
		},
	}
}
