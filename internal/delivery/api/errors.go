package api

import (
	"errors"
	"net/http"

	"github.com/aliskhannn/quizier/internal/domain/entities"
	"github.com/aliskhannn/quizier/internal/service"
	"github.com/aliskhannn/quizier/internal/storage"
)

var (
	errSessionNotFound = errors.New("quiz session not found")
	errBadRequest      = errors.New("bad request")
)

// statusFromError maps domain errors to HTTP status codes. Errors it does not
// know come from the quiz store and are reported as 503.
func statusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, storage.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, entities.ErrQuizNotFound),
		errors.Is(err, errSessionNotFound),
		errors.Is(err, service.ErrSessionClosed):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrUnknownOption),
		errors.Is(err, service.ErrUnknownSortKey):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAnswerLocked),
		errors.Is(err, service.ErrSessionCompleted),
		errors.Is(err, service.ErrNotCompleted),
		errors.Is(err, service.ErrNotReady),
		errors.Is(err, service.ErrAlreadyLoaded):
		return http.StatusConflict
	case errors.Is(err, entities.ErrMalformedRecord),
		errors.Is(err, service.ErrEmptyQuiz):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusServiceUnavailable
	}
}

func respondWithDomainError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	msg := err.Error()
	if status == http.StatusServiceUnavailable && !errors.Is(err, storage.ErrTooManySessions) {
		msg = "quiz store unavailable"
	}
	respondWithError(w, status, msg)
}
