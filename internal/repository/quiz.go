package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aliskhannn/quizier/internal/domain/entities"
)

// QuizFixtureRepository serves quizzes from a JSON file loaded once at startup.
// It backs local runs without a database and mirrors the Postgres repository.
type QuizFixtureRepository struct {
	quizzes   []entities.Quiz
	questions map[int64][]entities.Question
}

type fixtureQuiz struct {
	entities.Quiz
	Questions []entities.Question `json:"questions"`
}

// NewQuizFixtureRepository reads and validates the fixture at path.
func NewQuizFixtureRepository(path string) (*QuizFixtureRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz fixture: %w", err)
	}

	return ParseQuizFixture(data)
}

// ParseQuizFixture builds a repository from raw fixture JSON.
func ParseQuizFixture(data []byte) (*QuizFixtureRepository, error) {
	var wrapper struct {
		Quizzes []fixtureQuiz `json:"quizzes"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quizzes JSON: %w", err)
	}

	r := &QuizFixtureRepository{
		quizzes:   make([]entities.Quiz, 0, len(wrapper.Quizzes)),
		questions: make(map[int64][]entities.Question, len(wrapper.Quizzes)),
	}

	for _, fq := range wrapper.Quizzes {
		if err := fq.Quiz.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.questions[fq.ID]; dup {
			return nil, fmt.Errorf("duplicate quiz %d: %w", fq.ID, entities.ErrMalformedRecord)
		}

		questions := make([]entities.Question, 0, len(fq.Questions))
		for _, q := range fq.Questions {
			q.QuizID = fq.ID
			if err := q.Validate(); err != nil {
				return nil, fmt.Errorf("quiz %d: %w", fq.ID, err)
			}
			questions = append(questions, q)
		}

		r.quizzes = append(r.quizzes, fq.Quiz)
		r.questions[fq.ID] = questions
	}

	return r, nil
}

// ListQuizzes returns a copy of every quiz in fixture order.
func (r *QuizFixtureRepository) ListQuizzes(_ context.Context) ([]entities.Quiz, error) {
	out := make([]entities.Quiz, len(r.quizzes))
	copy(out, r.quizzes)
	return out, nil
}

// GetQuiz retrieves a quiz by ID.
func (r *QuizFixtureRepository) GetQuiz(_ context.Context, id int64) (*entities.Quiz, error) {
	for _, q := range r.quizzes {
		if q.ID == id {
			q := q
			return &q, nil
		}
	}
	return nil, entities.ErrQuizNotFound
}

// ListQuestions returns the questions of a quiz. An unknown quiz yields no questions.
func (r *QuizFixtureRepository) ListQuestions(_ context.Context, quizID int64) ([]entities.Question, error) {
	src := r.questions[quizID]
	out := make([]entities.Question, len(src))
	for i, q := range src {
		q.Options = append([]entities.Option(nil), q.Options...)
		out[i] = q
	}
	return out, nil
}
