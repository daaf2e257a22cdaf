package telegram

import (
	"context"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizier/internal/service"
)

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// SessionRegistry keeps one quiz runner per chat along with the message
// that renders it.
type SessionRegistry interface {
	Store(id string, r *service.Runner) error
	Get(id string) (*service.Runner, bool)
	Delete(id string) bool
	SetMessageID(id string, messageID int)
	MessageID(id string) (int, bool)
}

// chatRender serializes updates of one chat's quiz message and remembers the
// newest snapshot version shown.
type chatRender struct {
	mu      sync.Mutex
	version uint64
}

type Handler struct {
	bot         BotAPI
	logger      *zap.Logger
	store       service.QuizStore
	sessions    SessionRegistry
	revealDelay time.Duration

	rendersMu sync.Mutex
	renders   map[int64]*chatRender
}

func NewHandler(
	bot BotAPI,
	logger *zap.Logger,
	store service.QuizStore,
	sessions SessionRegistry,
	revealDelay time.Duration,
) *Handler {
	return &Handler{
		bot:         bot,
		logger:      logger,
		store:       store,
		sessions:    sessions,
		revealDelay: revealDelay,
		renders:     make(map[int64]*chatRender),
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	chatID := update.Message.Chat.ID

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			h.send(newHTMLMessage(chatID, msgWelcome))
			_ = h.withErrorHandling(h.handleCatalog(service.SortByTitle, ""))(ctx, chatID)

		case "quizzes":
			_ = h.withErrorHandling(h.handleCatalog(service.SortByTitle, update.Message.CommandArguments()))(ctx, chatID)

		case "help":
			h.send(newHTMLMessage(chatID, msgCommands))

		default:
			h.send(newHTMLMessage(chatID, msgUnknownCommand))
		}

		return
	}

	// Stickers, photos and other media carry no text to search for.
	if update.Message.Text == "" {
		return
	}

	_ = h.withErrorHandling(h.handleCatalog(service.SortByTitle, update.Message.Text))(ctx, chatID)
}

func (h *Handler) chatRender(chatID int64) *chatRender {
	h.rendersMu.Lock()
	defer h.rendersMu.Unlock()

	cr, ok := h.renders[chatID]
	if !ok {
		cr = &chatRender{}
		h.renders[chatID] = cr
	}
	return cr
}

// sessionID keys the per-chat runner in the registry.
func sessionID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func (h *Handler) sendError(chatID int64, err string) {
	msg := newHTMLMessage(chatID, err)
	h.send(msg)
}

func (h *Handler) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	sent, err := h.bot.Send(c)
	if err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
		return sent, false
	}
	return sent, true
}

// answerCallback removes the loading indicator, optionally with a toast.
func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.logger.Warn("failed to answer callback", zap.Error(err))
	}
}
