package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizier/internal/domain/entities"
	"github.com/aliskhannn/quizier/internal/repository"
	"github.com/aliskhannn/quizier/internal/service"
	"github.com/aliskhannn/quizier/internal/storage"
)

const testChatID int64 = 4242

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	updates  chan tgbotapi.Update
	stopped  bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 1)}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.sent))
	for _, c := range b.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) last() tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return nil
	}
	return b.sent[len(b.sent)-1]
}

func (b *fakeBot) lastToast() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return ""
	}
	cb, _ := b.requests[len(b.requests)-1].(tgbotapi.CallbackConfig)
	return cb.Text
}

type brokenStore struct{}

func (brokenStore) ListQuizzes(context.Context) ([]entities.Quiz, error) {
	return nil, errors.New("db down")
}
func (brokenStore) GetQuiz(context.Context, int64) (*entities.Quiz, error) {
	return nil, errors.New("db down")
}
func (brokenStore) ListQuestions(context.Context, int64) ([]entities.Question, error) {
	return nil, errors.New("db down")
}

func newTestHandler(t *testing.T, store service.QuizStore, revealDelay time.Duration) (*Handler, *fakeBot, *storage.SessionStorage) {
	t.Helper()
	bot := newFakeBot()
	sessions := storage.NewSessionStorage(0)
	return NewHandler(bot, zap.NewNop(), store, sessions, revealDelay), bot, sessions
}

func fixture(t *testing.T) service.QuizStore {
	t.Helper()
	repo, err := repository.NewQuizFixtureRepository("../../../assets/data/quizzes.json")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return repo
}

func commandUpdate(text string) tgbotapi.Update {
	cmdLen := len(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		cmdLen = i
	}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: testChatID},
		From:     &tgbotapi.User{ID: 1},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}}
}

func callbackUpdate(data string, messageID int) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: 1},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: testChatID},
		},
	}}
}

func TestHandler_QuizzesCommand(t *testing.T) {
	h, bot, _ := newTestHandler(t, fixture(t), time.Hour)

	h.handleUpdate(context.Background(), commandUpdate("/quizzes sci"))

	msg, ok := bot.last().(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected a new message, got %T", bot.last())
	}
	if !strings.Contains(msg.Text, "Basic Science") || strings.Contains(msg.Text, "World Capitals") {
		t.Fatalf("unexpected catalog text: %q", msg.Text)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("expected inline keyboard")
	}
	if data := *kb.InlineKeyboard[0][0].CallbackData; data != buildQuizStartCallback(2) {
		t.Fatalf("unexpected start button data %q", data)
	}
}

func TestHandler_CatalogUnavailable(t *testing.T) {
	h, bot, _ := newTestHandler(t, brokenStore{}, time.Hour)

	h.handleUpdate(context.Background(), commandUpdate("/quizzes"))

	texts := bot.texts()
	if len(texts) != 1 || texts[0] != msgCatalogUnavailable {
		t.Fatalf("unexpected messages: %q", texts)
	}
}

func TestHandler_SortCallbackEditsCatalog(t *testing.T) {
	h, bot, _ := newTestHandler(t, fixture(t), time.Hour)

	h.handleUpdate(context.Background(), callbackUpdate(buildCatalogCallback(service.SortBySeverity, ""), 7))

	edit, ok := bot.last().(tgbotapi.EditMessageTextConfig)
	if !ok || edit.MessageID != 7 {
		t.Fatalf("expected edit of message 7, got %#v", bot.last())
	}
	easy := strings.Index(edit.Text, "World Capitals")
	medium := strings.Index(edit.Text, "Basic Science")
	hard := strings.Index(edit.Text, "Algorithms")
	if !(easy < medium && medium < hard) {
		t.Fatalf("catalog not sorted by severity:\n%s", edit.Text)
	}
}

func TestHandler_QuizFlow(t *testing.T) {
	h, bot, sessions := newTestHandler(t, fixture(t), time.Hour)
	ctx := context.Background()

	h.handleUpdate(ctx, callbackUpdate(buildQuizStartCallback(1), 1))

	first, ok := bot.last().(tgbotapi.MessageConfig)
	if !ok || !strings.Contains(first.Text, "capital of France") {
		t.Fatalf("expected first question message, got %#v", bot.last())
	}
	msgID, ok := sessions.MessageID(sessionID(testChatID))
	if !ok {
		t.Fatalf("quiz message id must be remembered")
	}

	h.handleUpdate(ctx, callbackUpdate(buildQuizAnswerCallback(1002), msgID))
	if toast := bot.lastToast(); toast != msgCorrect {
		t.Fatalf("toast = %q, want %q", toast, msgCorrect)
	}
	edit, ok := bot.last().(tgbotapi.EditMessageTextConfig)
	if !ok || edit.MessageID != msgID || edit.ReplyMarkup != nil {
		t.Fatalf("revealed answer must edit in place without keyboard: %#v", bot.last())
	}
	if !strings.Contains(edit.Text, "Score: 1") {
		t.Fatalf("unexpected reveal text: %q", edit.Text)
	}

	h.handleUpdate(ctx, callbackUpdate(buildQuizAnswerCallback(1001), msgID))
	if toast := bot.lastToast(); toast != msgAnswerLocked {
		t.Fatalf("toast = %q, want %q", toast, msgAnswerLocked)
	}

	h.handleUpdate(ctx, callbackUpdate(buildQuizRestartCallback(), msgID))
	if toast := bot.lastToast(); toast != msgNotCompleted {
		t.Fatalf("toast = %q, want %q", toast, msgNotCompleted)
	}

	h.handleUpdate(ctx, callbackUpdate(buildQuizStopCallback(), msgID))
	if _, ok := sessions.Get(sessionID(testChatID)); ok {
		t.Fatalf("stop must remove the session")
	}
	if edit, ok := bot.last().(tgbotapi.EditMessageTextConfig); !ok || edit.Text != msgQuizStopped {
		t.Fatalf("expected stopped message, got %#v", bot.last())
	}

	h.handleUpdate(ctx, callbackUpdate(buildQuizAnswerCallback(1002), msgID))
	if toast := bot.lastToast(); toast != msgNoActiveQuiz {
		t.Fatalf("toast = %q, want %q", toast, msgNoActiveQuiz)
	}
}

func TestHandler_AdvancesAfterRevealDelay(t *testing.T) {
	h, bot, _ := newTestHandler(t, fixture(t), 50*time.Millisecond)
	ctx := context.Background()

	h.handleUpdate(ctx, callbackUpdate(buildQuizStartCallback(2), 1))
	h.handleUpdate(ctx, callbackUpdate(buildQuizAnswerCallback(2002), 2))

	waitForText := func(substr string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			for _, text := range bot.texts() {
				if strings.Contains(text, substr) {
					return
				}
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("no message containing %q; got %q", substr, bot.texts())
	}

	waitForText("Question 2 of 2")

	h.handleUpdate(ctx, callbackUpdate(buildQuizAnswerCallback(2011), 2))
	waitForText("You scored <b>1</b> out of <b>2</b>")

	edit, ok := bot.last().(tgbotapi.EditMessageTextConfig)
	if !ok || edit.ReplyMarkup == nil {
		t.Fatalf("results must carry the play again keyboard")
	}
	if data := *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData; data != buildQuizRestartCallback() {
		t.Fatalf("unexpected first results button %q", data)
	}

	h.handleUpdate(ctx, callbackUpdate(buildQuizRestartCallback(), 2))
	restarted, ok := bot.last().(tgbotapi.EditMessageTextConfig)
	if !ok || restarted.ReplyMarkup == nil || !strings.Contains(restarted.Text, "Question 1 of 2 · Score: 0") {
		t.Fatalf("restart must show the first question again: %#v", bot.last())
	}
}

func TestHandler_StartUnknownQuiz(t *testing.T) {
	h, bot, sessions := newTestHandler(t, fixture(t), time.Hour)

	h.handleUpdate(context.Background(), callbackUpdate(buildQuizStartCallback(99), 1))

	if toast := bot.lastToast(); toast != msgQuizNotFound {
		t.Fatalf("toast = %q, want %q", toast, msgQuizNotFound)
	}
	if sessions.Len() != 0 {
		t.Fatalf("failed start must not register a session")
	}
}

func TestHandler_RunStopsOnCancel(t *testing.T) {
	h, bot, _ := newTestHandler(t, fixture(t), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	bot.updates <- commandUpdate("/help")
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("handler did not stop")
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	if !bot.stopped {
		t.Fatalf("expected updates to be stopped")
	}
}

// slowEditBot holds back the first message edit, as a slow Bot API call would.
type slowEditBot struct {
	*fakeBot
	delay time.Duration
	once  sync.Once
}

func (b *slowEditBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if _, ok := c.(tgbotapi.EditMessageTextConfig); ok {
		b.once.Do(func() { time.Sleep(b.delay) })
	}
	return b.fakeBot.Send(c)
}

func TestHandler_SlowRevealEditDoesNotHideNextQuestion(t *testing.T) {
	bot := &slowEditBot{fakeBot: newFakeBot(), delay: 100 * time.Millisecond}
	h := NewHandler(bot, zap.NewNop(), fixture(t), storage.NewSessionStorage(0), 10*time.Millisecond)
	ctx := context.Background()

	h.handleUpdate(ctx, callbackUpdate(buildQuizStartCallback(2), 1))
	h.handleUpdate(ctx, callbackUpdate(buildQuizAnswerCallback(2002), 1))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if edit, ok := bot.last().(tgbotapi.EditMessageTextConfig); ok && strings.Contains(edit.Text, "Question 2 of 2") {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Nothing may land after the next question.
	time.Sleep(50 * time.Millisecond)

	edit, ok := bot.last().(tgbotapi.EditMessageTextConfig)
	if !ok || !strings.Contains(edit.Text, "Question 2 of 2 · Score: 1") {
		t.Fatalf("expected the second question last, got %q", bot.texts())
	}
	if edit.ReplyMarkup == nil {
		t.Fatalf("the current question must keep its answer buttons")
	}
}

func TestHandler_RenderSkipsOutdatedSnapshot(t *testing.T) {
	h, bot, sessions := newTestHandler(t, fixture(t), time.Hour)
	ctx := context.Background()

	h.handleUpdate(ctx, callbackUpdate(buildQuizStartCallback(1), 1))
	runner, ok := sessions.Get(sessionID(testChatID))
	if !ok {
		t.Fatalf("expected a running quiz")
	}
	outdated := runner.Snapshot()

	h.handleUpdate(ctx, callbackUpdate(buildQuizAnswerCallback(1002), 1))
	sent := len(bot.texts())

	h.renderSession(testChatID, outdated)
	if got := len(bot.texts()); got != sent {
		t.Fatalf("outdated snapshot was rendered: %q", bot.texts()[sent:])
	}

	h.renderSession(testChatID, runner.Snapshot())
	if got := len(bot.texts()); got != sent {
		t.Fatalf("an already shown snapshot must not be rendered twice")
	}
}

func TestHandler_StopBlocksLaterRenders(t *testing.T) {
	h, bot, sessions := newTestHandler(t, fixture(t), time.Hour)
	ctx := context.Background()

	h.handleUpdate(ctx, callbackUpdate(buildQuizStartCallback(1), 1))
	runner, _ := sessions.Get(sessionID(testChatID))

	// A state change whose render has not happened yet.
	if _, err := runner.Select(1002); err != nil {
		t.Fatalf("select: %v", err)
	}
	inFlight := runner.Snapshot()

	h.handleUpdate(ctx, callbackUpdate(buildQuizStopCallback(), 1))
	sent := len(bot.texts())

	h.renderSession(testChatID, inFlight)
	if got := len(bot.texts()); got != sent {
		t.Fatalf("render after stop must be dropped, got %q", bot.texts()[sent:])
	}
}

func TestHandler_IgnoresMessagesWithoutText(t *testing.T) {
	h, bot, _ := newTestHandler(t, fixture(t), time.Hour)

	h.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:    &tgbotapi.Chat{ID: testChatID},
		From:    &tgbotapi.User{ID: 1},
		Sticker: &tgbotapi.Sticker{FileID: "sticker"},
	}})

	if texts := bot.texts(); len(texts) != 0 {
		t.Fatalf("expected no reply, got %q", texts)
	}
}

func TestHandler_SessionLimit(t *testing.T) {
	bot := newFakeBot()
	sessions := storage.NewSessionStorage(1)
	h := NewHandler(bot, zap.NewNop(), fixture(t), sessions, time.Hour)
	ctx := context.Background()

	h.handleUpdate(ctx, callbackUpdate(buildQuizStartCallback(1), 1))

	other := callbackUpdate(buildQuizStartCallback(2), 1)
	other.CallbackQuery.Message.Chat.ID = testChatID + 1
	h.handleUpdate(ctx, other)

	if toast := bot.lastToast(); toast != msgBusy {
		t.Fatalf("toast = %q, want %q", toast, msgBusy)
	}
	if sessions.Len() != 1 {
		t.Fatalf("expected one live session, got %d", sessions.Len())
	}

	h.handleUpdate(ctx, callbackUpdate(buildQuizStartCallback(2), 1))
	if toast := bot.lastToast(); toast != "" {
		t.Fatalf("restarting in the same chat must not hit the limit, toast %q", toast)
	}
}
