package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizier/internal/domain/entities"
	"github.com/aliskhannn/quizier/internal/service"
)

// SessionRegistry keeps live quiz runners by session ID.
type SessionRegistry interface {
	Store(id string, r *service.Runner) error
	Get(id string) (*service.Runner, bool)
	Delete(id string) bool
}

type sessionResponse struct {
	SessionID string           `json:"session_id"`
	Session   service.Snapshot `json:"session"`
}

type answerRequest struct {
	OptionID int64 `json:"option_id"`
}

type revealResponse struct {
	service.Reveal
	IntegrityError string `json:"integrity_error,omitempty"`
}

type answerResponse struct {
	Reveal  revealResponse   `json:"reveal"`
	Session service.Snapshot `json:"session"`
}

// SessionHandler runs quiz sessions over HTTP. Clients poll the session to
// observe the timed advance after a reveal.
type SessionHandler struct {
	store       service.QuizStore
	sessions    SessionRegistry
	revealDelay time.Duration
	logger      *zap.Logger
}

func NewSessionHandler(store service.QuizStore, sessions SessionRegistry, revealDelay time.Duration, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		store:       store,
		sessions:    sessions,
		revealDelay: revealDelay,
		logger:      logger,
	}
}

// CreateSession handles POST /quizzes/{quizID}/sessions.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	quizID, err := quizIDParam(r)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	id := uuid.NewString()
	runner := service.NewRunner(quizID, h.store,
		service.WithRevealDelay(h.revealDelay),
		service.WithLogger(h.logger.With(zap.String("session_id", id))),
	)

	if err := runner.Load(r.Context()); err != nil {
		runner.Close()
		respondWithDomainError(w, err)
		return
	}

	if err := h.sessions.Store(id, runner); err != nil {
		runner.Close()
		h.logger.Warn("quiz session rejected", zap.Int64("quiz_id", quizID), zap.Error(err))
		respondWithDomainError(w, err)
		return
	}
	h.logger.Info("quiz session started", zap.String("session_id", id), zap.Int64("quiz_id", quizID))

	respondWithJSON(w, http.StatusCreated, sessionResponse{SessionID: id, Session: runner.Snapshot()})
}

// GetSession handles GET /sessions/{sessionID}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, runner, err := h.runner(r)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sessionResponse{SessionID: id, Session: runner.Snapshot()})
}

// Answer handles POST /sessions/{sessionID}/answers.
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	id, runner, err := h.runner(r)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	reveal, err := runner.Select(req.OptionID)
	resp := answerResponse{Reveal: revealResponse{Reveal: reveal}}
	switch {
	case errors.Is(err, entities.ErrNoCorrectOption):
		// The selection still counts; report the broken question alongside it.
		h.logger.Warn("question has no correct option",
			zap.String("session_id", id),
			zap.Int64("question_id", reveal.QuestionID),
		)
		resp.Reveal.IntegrityError = err.Error()
	case err != nil:
		respondWithDomainError(w, err)
		return
	}

	resp.Session = runner.Snapshot()
	respondWithJSON(w, http.StatusOK, resp)
}

// Restart handles POST /sessions/{sessionID}/restart.
func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	id, runner, err := h.runner(r)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	if err := runner.Restart(); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, sessionResponse{SessionID: id, Session: runner.Snapshot()})
}

// DeleteSession handles DELETE /sessions/{sessionID}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !h.sessions.Delete(id) {
		respondWithDomainError(w, fmt.Errorf("session %q: %w", id, errSessionNotFound))
		return
	}

	h.logger.Info("quiz session closed", zap.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) runner(r *http.Request) (string, *service.Runner, error) {
	id := chi.URLParam(r, "sessionID")
	runner, ok := h.sessions.Get(id)
	if !ok {
		return id, nil, fmt.Errorf("session %q: %w", id, errSessionNotFound)
	}
	return id, runner, nil
}
