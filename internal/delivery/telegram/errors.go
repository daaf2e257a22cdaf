package telegram

import (
	"errors"

	"github.com/aliskhannn/quizier/internal/domain/entities"
	"github.com/aliskhannn/quizier/internal/service"
	"github.com/aliskhannn/quizier/internal/storage"
)

var (
	errCatalogUnavailable = errors.New("catalog unavailable")
	errQuizUnavailable    = errors.New("quiz unavailable")
	errNoSession          = errors.New("no active quiz session")
	errBadCallback        = errors.New("malformed callback data")
)

// userMessage maps an error to the text shown in chat.
func userMessage(err error) string {
	switch {
	case errors.Is(err, entities.ErrQuizNotFound):
		return msgQuizNotFound
	case errors.Is(err, service.ErrEmptyQuiz):
		return msgQuizEmpty
	case errors.Is(err, entities.ErrMalformedRecord):
		return msgQuizBroken
	case errors.Is(err, storage.ErrTooManySessions):
		return msgBusy
	case errors.Is(err, errCatalogUnavailable):
		return msgCatalogUnavailable
	case errors.Is(err, errQuizUnavailable):
		return msgQuizUnavailable
	case errors.Is(err, errNoSession), errors.Is(err, service.ErrSessionClosed):
		return msgNoActiveQuiz
	case errors.Is(err, service.ErrAnswerLocked):
		return msgAnswerLocked
	case errors.Is(err, service.ErrUnknownOption):
		return msgStaleButton
	case errors.Is(err, service.ErrSessionCompleted):
		return msgQuizCompleted
	case errors.Is(err, service.ErrNotCompleted):
		return msgNotCompleted
	default:
		return msgInternalError
	}
}
