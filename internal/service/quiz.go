package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/quizier/internal/domain/entities"
)

// DefaultRevealDelay is how long a revealed answer stays on screen.
const DefaultRevealDelay = 4 * time.Second

var (
	ErrNotReady         = errors.New("quiz is still loading")
	ErrAlreadyLoaded    = errors.New("quiz already loaded")
	ErrEmptyQuiz        = errors.New("quiz has no questions")
	ErrAnswerLocked     = errors.New("answer already selected for this question")
	ErrUnknownOption    = errors.New("option does not belong to the current question")
	ErrSessionCompleted = errors.New("quiz session is completed")
	ErrNotCompleted     = errors.New("quiz session is not completed")
	ErrSessionClosed    = errors.New("quiz session is closed")
)

// stateVersions numbers runner state changes process-wide, so snapshots of
// a replaced runner always compare older than those of its successor.
var stateVersions atomic.Uint64

// State is a quiz runner state.
type State string

const (
	StateLoading        State = "loading"
	StateInProgress     State = "in_progress"
	StateAnswerRevealed State = "answer_revealed"
	StateCompleted      State = "completed"
)

// Reveal is the outcome of selecting an option.
type Reveal struct {
	QuestionID       int64  `json:"question_id"`
	SelectedOptionID int64  `json:"selected_option_id"`
	Correct          bool   `json:"correct"`
	CorrectOptionID  int64  `json:"correct_option_id,omitempty"`
	CorrectAnswer    string `json:"correct_answer,omitempty"`
	Score            int    `json:"score"`
}

// OptionView is an option as shown to the player. IsCorrect is only set once
// the answer for its question has been revealed.
type OptionView struct {
	ID        int64  `json:"id"`
	Text      string `json:"option_text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionView is the current question as shown to the player.
type QuestionView struct {
	ID      int64        `json:"id"`
	Text    string       `json:"question_text"`
	Options []OptionView `json:"options"`
}

// Snapshot is a consistent copy of the runner state. Version grows with every
// state change; a snapshot with a lower version is out of date.
type Snapshot struct {
	Version          uint64         `json:"version"`
	QuizID           int64          `json:"quiz_id"`
	Quiz             *entities.Quiz `json:"quiz,omitempty"`
	State            State          `json:"state"`
	Index            int            `json:"index"`
	Total            int            `json:"total"`
	Score            int            `json:"score"`
	Question         *QuestionView  `json:"question,omitempty"`
	SelectedOptionID *int64         `json:"selected_option_id,omitempty"`
	IsCorrect        *bool          `json:"is_correct,omitempty"`
	CorrectAnswer    string         `json:"correct_answer,omitempty"`
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRevealDelay overrides DefaultRevealDelay.
func WithRevealDelay(d time.Duration) RunnerOption {
	return func(r *Runner) { r.revealDelay = d }
}

// WithScheduler overrides RealScheduler.
func WithScheduler(s Scheduler) RunnerOption {
	return func(r *Runner) { r.scheduler = s }
}

// WithLogger sets the runner logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithTransitionListener registers fn to be called after every automatic
// advance. fn runs on the timer goroutine, outside the runner lock.
func WithTransitionListener(fn func(Snapshot)) RunnerOption {
	return func(r *Runner) { r.onAdvance = fn }
}

// Runner drives one player through one quiz: a question at a time, a timed
// reveal after each answer, then a score summary.
type Runner struct {
	quizID      int64
	source      QuizSource
	scheduler   Scheduler
	revealDelay time.Duration
	logger      *zap.Logger
	onAdvance   func(Snapshot)

	mu        sync.Mutex
	quiz      *entities.Quiz
	questions []entities.Question
	state     State
	index     int
	score     int
	selected  *int64
	isCorrect *bool
	pending   Timer
	gen       uint64 // bumped whenever a scheduled advance becomes stale
	version   uint64
	closed    bool
}

func NewRunner(quizID int64, source QuizSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		quizID:      quizID,
		source:      source,
		scheduler:   RealScheduler,
		revealDelay: DefaultRevealDelay,
		logger:      zap.NewNop(),
		state:       StateLoading,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.Int64("quiz_id", quizID))
	r.touch()
	return r
}

// QuizID returns the quiz this runner was created for.
func (r *Runner) QuizID() int64 {
	return r.quizID
}

// Load fetches the quiz record and then its questions. Both must succeed;
// on any failure the runner stays in StateLoading and nothing is retried.
func (r *Runner) Load(ctx context.Context) error {
	r.mu.Lock()
	switch {
	case r.closed:
		r.mu.Unlock()
		return ErrSessionClosed
	case r.state != StateLoading:
		r.mu.Unlock()
		return ErrAlreadyLoaded
	}
	r.mu.Unlock()

	quiz, err := r.source.GetQuiz(ctx, r.quizID)
	if err != nil {
		r.logger.Error("failed to fetch quiz", zap.Error(err))
		return fmt.Errorf("fetch quiz: %w", err)
	}

	questions, err := r.source.ListQuestions(ctx, r.quizID)
	if err != nil {
		r.logger.Error("failed to fetch questions", zap.Error(err))
		return fmt.Errorf("fetch questions: %w", err)
	}

	if len(questions) == 0 {
		r.logger.Warn("quiz has no questions")
		return ErrEmptyQuiz
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrSessionClosed
	}
	if r.state != StateLoading {
		return ErrAlreadyLoaded
	}

	r.quiz = quiz
	r.questions = questions
	r.index = 0
	r.score = 0
	r.state = StateInProgress
	r.touch()

	r.logger.Debug("quiz loaded", zap.Int("questions", len(questions)))
	return nil
}

// Select answers the current question. Only one selection is accepted per
// question; the next question (or the summary) follows after the reveal delay.
//
// If the choice is wrong and the question has no correct option, the
// selection still counts and the returned error wraps
// entities.ErrNoCorrectOption alongside a valid Reveal.
func (r *Runner) Select(optionID int64) (Reveal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkPlayable(); err != nil {
		return Reveal{}, err
	}

	q := &r.questions[r.index]
	opt, ok := q.Option(optionID)
	if !ok {
		return Reveal{}, fmt.Errorf("option %d: %w", optionID, ErrUnknownOption)
	}

	selected := opt.ID
	correct := opt.IsCorrect
	r.selected = &selected
	r.isCorrect = &correct
	if correct {
		r.score++
	}
	r.state = StateAnswerRevealed
	r.touch()
	r.scheduleAdvance()

	reveal := Reveal{
		QuestionID:       q.ID,
		SelectedOptionID: selected,
		Correct:          correct,
		Score:            r.score,
	}

	r.logger.Debug("answer selected",
		zap.Int64("question_id", q.ID),
		zap.Int64("option_id", selected),
		zap.Bool("correct", correct),
	)

	if correct {
		reveal.CorrectOptionID = opt.ID
		return reveal, nil
	}

	right, err := q.CorrectOption()
	if err != nil {
		r.logger.Warn("question without correct option", zap.Int64("question_id", q.ID))
		return reveal, err
	}
	reveal.CorrectOptionID = right.ID
	reveal.CorrectAnswer = right.Text

	return reveal, nil
}

func (r *Runner) checkPlayable() error {
	if r.closed {
		return ErrSessionClosed
	}
	switch r.state {
	case StateLoading:
		return ErrNotReady
	case StateAnswerRevealed:
		return ErrAnswerLocked
	case StateCompleted:
		return ErrSessionCompleted
	}
	return nil
}

// scheduleAdvance must be called with r.mu held.
func (r *Runner) scheduleAdvance() {
	r.gen++
	gen := r.gen
	r.pending = r.scheduler.AfterFunc(r.revealDelay, func() {
		r.advance(gen)
	})
}

func (r *Runner) advance(gen uint64) {
	r.mu.Lock()
	if r.closed || gen != r.gen || r.state != StateAnswerRevealed {
		r.mu.Unlock()
		return
	}

	if next := r.index + 1; next < len(r.questions) {
		r.index = next
		r.state = StateInProgress
	} else {
		r.state = StateCompleted
		r.logger.Info("quiz completed",
			zap.Int("score", r.score),
			zap.Int("total", len(r.questions)),
		)
	}
	r.selected = nil
	r.isCorrect = nil
	r.pending = nil
	r.touch()

	snap := r.snapshotLocked()
	listener := r.onAdvance
	r.mu.Unlock()

	if listener != nil {
		listener(snap)
	}
}

// Restart replays the already fetched questions from the first one.
func (r *Runner) Restart() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrSessionClosed
	}
	if r.state != StateCompleted {
		return ErrNotCompleted
	}

	r.gen++
	r.index = 0
	r.score = 0
	r.selected = nil
	r.isCorrect = nil
	r.state = StateInProgress
	r.touch()

	r.logger.Debug("quiz restarted")
	return nil
}

// Close tears the session down and cancels a pending advance.
// It is safe to call more than once.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.gen++
	r.touch()
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

// Closed reports whether Close has been called.
func (r *Runner) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Snapshot returns a copy of the current state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// touch must be called with r.mu held, or before r is shared.
func (r *Runner) touch() {
	r.version = stateVersions.Add(1)
}

func (r *Runner) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version: r.version,
		QuizID:  r.quizID,
		State:   r.state,
		Index:   r.index,
		Total:   len(r.questions),
		Score:   r.score,
	}

	if r.quiz != nil {
		quiz := *r.quiz
		snap.Quiz = &quiz
	}

	if r.state != StateInProgress && r.state != StateAnswerRevealed {
		return snap
	}

	q := r.questions[r.index]
	revealed := r.state == StateAnswerRevealed

	view := &QuestionView{
		ID:      q.ID,
		Text:    q.Text,
		Options: make([]OptionView, 0, len(q.Options)),
	}
	for _, o := range q.Options {
		ov := OptionView{ID: o.ID, Text: o.Text}
		if revealed {
			isCorrect := o.IsCorrect
			ov.IsCorrect = &isCorrect
		}
		view.Options = append(view.Options, ov)
	}
	snap.Question = view

	if revealed {
		selected := *r.selected
		isCorrect := *r.isCorrect
		snap.SelectedOptionID = &selected
		snap.IsCorrect = &isCorrect
		if !isCorrect {
			if right, err := q.CorrectOption(); err == nil {
				snap.CorrectAnswer = right.Text
			}
		}
	}

	return snap
}
