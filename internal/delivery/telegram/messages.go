// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quizier/internal/domain/entities"
	"github.com/aliskhannn/quizier/internal/service"
)

const (
	msgWelcome = "<b>Welcome to Quizier!</b>\n\n" +
		"Pick a quiz, answer one question at a time and see how you score.\n\n" +
		msgCommands
	msgCommands = "/quizzes - browse all quizzes\n" +
		"/quizzes <i>term</i> - search quizzes by title\n" +
		"/help - show this list\n\n" +
		"You can also just send a word to search."
	msgUnknownCommand     = "Unknown command.\n\n" + msgCommands
	msgInternalError      = "Something went wrong. Please try again later."
	msgCatalogUnavailable = "Couldn't load quizzes right now. Please try again later."
	msgQuizUnavailable    = "Couldn't load this quiz right now. Please try again later."
	msgQuizNotFound       = "This quiz no longer exists."
	msgQuizEmpty          = "This quiz has no questions yet."
	msgQuizBroken         = "This quiz contains invalid data and can't be played."
	msgQuizStopped        = "Quiz stopped. Use /quizzes to pick another one."
	msgBusy               = "Too many quizzes are running right now. Please try again in a few minutes."
	msgNoQuizzes          = "No quizzes match your search."
	msgNoActiveQuiz       = "No active quiz. Use /quizzes to start one."
	msgAnswerLocked       = "You've already answered this question."
	msgStaleButton        = "This button belongs to another question."
	msgQuizCompleted      = "The quiz is over."
	msgNotCompleted       = "Finish the quiz first."
	msgCorrect            = "✅ Correct!"
	msgWrong              = "❌ Wrong"
)

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

// newHTMLMessage creates a message with HTML parse mode.
func newHTMLMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

// newEdit creates an edit with HTML parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	return edit
}

func difficultyBadge(d entities.Difficulty) string {
	switch d {
	case entities.DifficultyEasy:
		return "🟢"
	case entities.DifficultyMedium:
		return "🟡"
	case entities.DifficultyHard:
		return "🔴"
	default:
		return "⚪"
	}
}

func sortLabel(key service.SortKey) string {
	switch key {
	case service.SortByDifficulty:
		return "difficulty (A–Z)"
	case service.SortBySeverity:
		return "difficulty (easy → hard)"
	default:
		return "title"
	}
}

// formatCatalog renders the list of quizzes shown above the catalog keyboard.
func formatCatalog(view []entities.Quiz, term string, key service.SortKey, total int) string {
	var sb strings.Builder

	sb.WriteString("<b>📚 Quizzes</b>\n")
	if term != "" {
		fmt.Fprintf(&sb, "Search: <i>%s</i> · ", esc(term))
	}
	fmt.Fprintf(&sb, "Sorted by %s · %d of %d\n\n", sortLabel(key), len(view), total)

	if len(view) == 0 {
		sb.WriteString(msgNoQuizzes)
		return sb.String()
	}

	for i, q := range view {
		fmt.Fprintf(&sb, "%d. %s <b>%s</b> (%s)\n", i+1, difficultyBadge(q.Difficulty), esc(q.Title), q.Difficulty)
		if q.Description != "" {
			fmt.Fprintf(&sb, "    <i>%s</i>\n", esc(q.Description))
		}
	}

	return sb.String()
}

// formatQuestion renders the current question. After an answer it marks the
// options and states the outcome.
func formatQuestion(s service.Snapshot) string {
	var sb strings.Builder

	if s.Quiz != nil {
		fmt.Fprintf(&sb, "<b>%s</b>\n", esc(s.Quiz.Title))
	}
	fmt.Fprintf(&sb, "Question %d of %d · Score: %d\n\n", s.Index+1, s.Total, s.Score)

	if s.Question == nil {
		return sb.String()
	}
	sb.WriteString(esc(s.Question.Text))

	if s.State != service.StateAnswerRevealed {
		return sb.String()
	}

	sb.WriteString("\n\n")
	for _, o := range s.Question.Options {
		mark := "▫️"
		switch {
		case o.IsCorrect != nil && *o.IsCorrect:
			mark = "✅"
		case s.SelectedOptionID != nil && *s.SelectedOptionID == o.ID:
			mark = "❌"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, esc(o.Text))
	}

	sb.WriteString("\n")
	if s.IsCorrect != nil && *s.IsCorrect {
		sb.WriteString("<b>" + msgCorrect + "</b>")
	} else if s.CorrectAnswer != "" {
		fmt.Fprintf(&sb, "<b>%s.</b> The correct answer is <b>%s</b>.", msgWrong, esc(s.CorrectAnswer))
	} else {
		fmt.Fprintf(&sb, "<b>%s.</b> This question has no correct answer on record.", msgWrong)
	}

	return sb.String()
}

// formatResults renders the score summary.
func formatResults(s service.Snapshot) string {
	var sb strings.Builder

	sb.WriteString("<b>🏁 Quiz complete!</b>\n")
	if s.Quiz != nil {
		fmt.Fprintf(&sb, "%s\n", esc(s.Quiz.Title))
	}

	percent := 0
	if s.Total > 0 {
		percent = s.Score * 100 / s.Total
	}
	fmt.Fprintf(&sb, "\nYou scored <b>%d</b> out of <b>%d</b> (%d%%).", s.Score, s.Total, percent)

	return sb.String()
}
