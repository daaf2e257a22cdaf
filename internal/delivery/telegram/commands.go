package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizier/internal/service"
)

// handleCatalog sends a fresh catalog message.
func (h *Handler) handleCatalog(key service.SortKey, term string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		text, kb, err := h.buildCatalog(ctx, key, term)
		if err != nil {
			return err
		}

		msg := newHTMLMessage(chatID, text)
		msg.ReplyMarkup = kb
		h.send(msg)
		return nil
	}
}

// buildCatalog fetches the quizzes once and renders the requested view.
func (h *Handler) buildCatalog(ctx context.Context, key service.SortKey, term string) (string, tgbotapi.InlineKeyboardMarkup, error) {
	term = strings.TrimSpace(term)

	catalog := service.NewCatalog(h.store, h.logger)
	if err := catalog.Load(ctx); err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, fmt.Errorf("%w: %w", errCatalogUnavailable, err)
	}

	view := catalog.View(term, key)
	return formatCatalog(view, term, key, catalog.Len()), buildCatalogKeyboard(view, key, term), nil
}

// startQuiz replaces the chat's runner with a new one for quizID and sends
// the first question.
func (h *Handler) startQuiz(ctx context.Context, chatID, quizID int64) error {
	id := sessionID(chatID)

	runner := service.NewRunner(quizID, h.store,
		service.WithRevealDelay(h.revealDelay),
		service.WithLogger(h.logger.With(zap.Int64("chat_id", chatID))),
		service.WithTransitionListener(func(s service.Snapshot) {
			h.renderSession(chatID, s)
		}),
	)

	if err := runner.Load(ctx); err != nil {
		runner.Close()
		return fmt.Errorf("%w: %w", errQuizUnavailable, err)
	}

	if err := h.sessions.Store(id, runner); err != nil {
		runner.Close()
		return err
	}
	h.logger.Info("quiz started", zap.Int64("chat_id", chatID), zap.Int64("quiz_id", quizID))

	// A fresh session has no message yet, so this sends a new one.
	h.renderSession(chatID, runner.Snapshot())
	return nil
}

// renderSession shows s in the chat's quiz message, sending a new one if the
// previous message is unknown. Renders of one chat run one at a time and a
// snapshot older than the one already shown is dropped.
func (h *Handler) renderSession(chatID int64, s service.Snapshot) {
	cr := h.chatRender(chatID)
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if s.Version <= cr.version {
		h.logger.Debug("stale quiz snapshot skipped",
			zap.Int64("chat_id", chatID),
			zap.Uint64("version", s.Version),
			zap.Uint64("shown", cr.version),
		)
		return
	}
	cr.version = s.Version

	id := sessionID(chatID)
	text, kb := renderSnapshot(s)

	msgID, ok := h.sessions.MessageID(id)
	if !ok {
		msg := newHTMLMessage(chatID, text)
		if kb != nil {
			msg.ReplyMarkup = *kb
		}
		if sent, ok := h.send(msg); ok {
			h.sessions.SetMessageID(id, sent.MessageID)
		}
		return
	}

	edit := newEdit(chatID, msgID, text)
	edit.ReplyMarkup = kb
	h.send(edit)
}
