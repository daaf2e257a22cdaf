package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizier/internal/domain/entities"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		h.answerCallback(cb.ID, "")
		return
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	cd := decodeCallback(cb.Data)

	var (
		toast string
		err   error
	)

	switch cd.Action {
	case actionCatalog:
		err = h.handleCatalogCallback(ctx, chatID, messageID, cd)
	case actionQuiz:
		switch cd.param(0) {
		case quizStart:
			err = h.handleQuizStartCallback(ctx, chatID, cd)
		case quizAnswer:
			toast, err = h.handleQuizAnswerCallback(chatID, cd)
		case quizRestart:
			err = h.handleQuizRestartCallback(chatID)
		case quizStop:
			err = h.handleQuizStopCallback(chatID, messageID)
		default:
			err = fmt.Errorf("%q: %w", cb.Data, errBadCallback)
		}
	default:
		err = fmt.Errorf("%q: %w", cb.Data, errBadCallback)
	}

	if err != nil {
		h.logger.Warn("callback failed",
			zap.Int64("chat_id", chatID),
			zap.String("data", cb.Data),
			zap.Error(err),
		)
		toast = userMessage(err)
	}

	h.answerCallback(cb.ID, toast)
}

func (h *Handler) handleCatalogCallback(ctx context.Context, chatID int64, messageID int, cd callbackData) error {
	key, term, err := decodeCatalogCallback(cd)
	if err != nil {
		return fmt.Errorf("%w: %w", errBadCallback, err)
	}

	text, kb, err := h.buildCatalog(ctx, key, term)
	if err != nil {
		return err
	}

	edit := newEdit(chatID, messageID, text)
	edit.ReplyMarkup = &kb
	h.send(edit)
	return nil
}

func (h *Handler) handleQuizStartCallback(ctx context.Context, chatID int64, cd callbackData) error {
	quizID, err := strconv.ParseInt(cd.param(1), 10, 64)
	if err != nil {
		return fmt.Errorf("quiz id: %w", errBadCallback)
	}
	return h.startQuiz(ctx, chatID, quizID)
}

// handleQuizAnswerCallback selects an option and returns the toast to show.
func (h *Handler) handleQuizAnswerCallback(chatID int64, cd callbackData) (string, error) {
	optionID, err := strconv.ParseInt(cd.param(1), 10, 64)
	if err != nil {
		return "", fmt.Errorf("option id: %w", errBadCallback)
	}

	runner, ok := h.sessions.Get(sessionID(chatID))
	if !ok {
		return "", errNoSession
	}

	reveal, err := runner.Select(optionID)
	switch {
	case errors.Is(err, entities.ErrNoCorrectOption):
		h.logger.Warn("question has no correct option",
			zap.Int64("chat_id", chatID),
			zap.Int64("question_id", reveal.QuestionID),
		)
	case err != nil:
		return "", err
	}

	h.renderSession(chatID, runner.Snapshot())

	if reveal.Correct {
		return msgCorrect, nil
	}
	return msgWrong, nil
}

func (h *Handler) handleQuizRestartCallback(chatID int64) error {
	runner, ok := h.sessions.Get(sessionID(chatID))
	if !ok {
		return errNoSession
	}

	if err := runner.Restart(); err != nil {
		return err
	}

	h.renderSession(chatID, runner.Snapshot())
	return nil
}

func (h *Handler) handleQuizStopCallback(chatID int64, messageID int) error {
	id := sessionID(chatID)
	runner, ok := h.sessions.Get(id)
	if !ok || !h.sessions.Delete(id) {
		return errNoSession
	}

	// The closed runner's version is newer than any advance still in flight,
	// so such an advance can no longer overwrite the stopped message.
	cr := h.chatRender(chatID)
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.version = max(cr.version, runner.Snapshot().Version)

	h.send(newEdit(chatID, messageID, msgQuizStopped))
	return nil
}
