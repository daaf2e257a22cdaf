package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/quizier/internal/domain/entities"
	"github.com/aliskhannn/quizier/internal/infra/postgres"
)

// QuizRepository provides read access to quizzes, questions and options.
type QuizRepository struct {
	db postgres.DBTX
}

// NewQuizRepository creates a new QuizRepository with the provided database handle.
func NewQuizRepository(db postgres.DBTX) *QuizRepository {
	return &QuizRepository{db: db}
}

// quizRow mirrors the quizzes table; text columns are nullable in the store.
type quizRow struct {
	ID          int64
	Title       *string
	Description *string
	Difficulty  *string
}

func (row quizRow) toEntity() (entities.Quiz, error) {
	q := entities.Quiz{
		ID:          row.ID,
		Title:       deref(row.Title),
		Description: deref(row.Description),
		Difficulty:  entities.Difficulty(deref(row.Difficulty)),
	}
	if err := q.Validate(); err != nil {
		return entities.Quiz{}, err
	}
	return q, nil
}

// ListQuizzes returns every quiz in the store.
func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]entities.Quiz, error) {
	query := `
		SELECT id, title, description, difficulty
		FROM quizzes
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []entities.Quiz
	for rows.Next() {
		var row quizRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Description, &row.Difficulty); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}

		q, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("list quizzes: %w", err)
		}
		quizzes = append(quizzes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	return quizzes, nil
}

// GetQuiz retrieves a single quiz by ID.
func (r *QuizRepository) GetQuiz(ctx context.Context, id int64) (*entities.Quiz, error) {
	query := `
		SELECT id, title, description, difficulty
		FROM quizzes
		WHERE id = $1
	`

	var row quizRow
	err := r.db.QueryRow(ctx, query, id).Scan(&row.ID, &row.Title, &row.Description, &row.Difficulty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	q, err := row.toEntity()
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	return &q, nil
}

// questionOptionRow is one row of the questions/options join.
// Option columns are NULL for a question without options.
type questionOptionRow struct {
	QuestionID int64
	QuizID     int64
	Text       *string
	OptionID   *int64
	OptionText *string
	IsCorrect  *bool
}

// ListQuestions returns the questions of a quiz with their options embedded,
// both ordered by ID.
func (r *QuizRepository) ListQuestions(ctx context.Context, quizID int64) ([]entities.Question, error) {
	query := `
		SELECT q.id, q.quiz_id, q.question_text, o.id, o.option_text, o.is_correct
		FROM questions q
		LEFT JOIN options o ON o.question_id = q.id
		WHERE q.quiz_id = $1
		ORDER BY q.id, o.id
	`

	rows, err := r.db.Query(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var joined []questionOptionRow
	for rows.Next() {
		var row questionOptionRow
		if err := rows.Scan(
			&row.QuestionID,
			&row.QuizID,
			&row.Text,
			&row.OptionID,
			&row.OptionText,
			&row.IsCorrect,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		joined = append(joined, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	questions, err := groupQuestions(joined)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	return questions, nil
}

// groupQuestions folds ordered join rows into questions and validates each one.
func groupQuestions(rows []questionOptionRow) ([]entities.Question, error) {
	var questions []entities.Question

	for _, row := range rows {
		n := len(questions)
		if n == 0 || questions[n-1].ID != row.QuestionID {
			questions = append(questions, entities.Question{
				ID:     row.QuestionID,
				QuizID: row.QuizID,
				Text:   deref(row.Text),
			})
			n++
		}

		if row.OptionID == nil {
			continue
		}

		questions[n-1].Options = append(questions[n-1].Options, entities.Option{
			ID:        *row.OptionID,
			Text:      deref(row.OptionText),
			IsCorrect: row.IsCorrect != nil && *row.IsCorrect,
		})
	}

	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, err
		}
	}

	return questions, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
