package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quizier/internal/domain/entities"
	"github.com/aliskhannn/quizier/internal/service"
)

var sortKeys = []service.SortKey{service.SortByTitle, service.SortByDifficulty, service.SortBySeverity}

// buildCatalogKeyboard builds one start button per quiz and a row of sort
// buttons. The active sort key is marked.
func buildCatalogKeyboard(view []entities.Quiz, key service.SortKey, term string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(view)+1)
	for _, q := range view {
		label := fmt.Sprintf("%s %s", difficultyBadge(q.Difficulty), q.Title)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildQuizStartCallback(q.ID)),
		))
	}

	sortRow := make([]tgbotapi.InlineKeyboardButton, 0, len(sortKeys))
	for _, k := range sortKeys {
		label := sortButtonLabel(k)
		if k == key {
			label = "• " + label
		}
		sortRow = append(sortRow, tgbotapi.NewInlineKeyboardButtonData(label, buildCatalogCallback(k, term)))
	}
	rows = append(rows, sortRow)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func sortButtonLabel(key service.SortKey) string {
	switch key {
	case service.SortByDifficulty:
		return "🔤 Level"
	case service.SortBySeverity:
		return "📈 Easy→Hard"
	default:
		return "🔠 Title"
	}
}

// buildQuizAnswerKeyboard builds keyboard for quiz question.
func buildQuizAnswerKeyboard(q *service.QuestionView) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Options)+1)
	for _, option := range q.Options {
		button := tgbotapi.NewInlineKeyboardButtonData(option.Text, buildQuizAnswerCallback(option.ID))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✖️ Stop", buildQuizStopCallback()),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildQuizResultKeyboard builds keyboard for quiz results screen.
func buildQuizResultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Play again", buildQuizRestartCallback()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 All quizzes", buildCatalogCallback(service.SortByTitle, "")),
		),
	)
}

// renderSnapshot picks the text and keyboard for the current runner state.
// A revealed answer has no keyboard until the runner advances.
func renderSnapshot(s service.Snapshot) (string, *tgbotapi.InlineKeyboardMarkup) {
	switch s.State {
	case service.StateInProgress:
		kb := buildQuizAnswerKeyboard(s.Question)
		return formatQuestion(s), &kb
	case service.StateAnswerRevealed:
		return formatQuestion(s), nil
	case service.StateCompleted:
		kb := buildQuizResultKeyboard()
		return formatResults(s), &kb
	default:
		return "Loading…", nil
	}
}
