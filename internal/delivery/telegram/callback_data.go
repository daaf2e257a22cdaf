package telegram

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aliskhannn/quizier/internal/service"
)

// Telegram rejects callback data longer than this many bytes.
const maxCallbackData = 64

// Callback action constants.
const (
	actionCatalog = "catalog"
	actionQuiz    = "quiz"
)

// Quiz sub-actions.
const (
	quizStart   = "start"
	quizAnswer  = "answer"
	quizRestart = "restart"
	quizStop    = "stop"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// param returns the i-th parameter or an empty string.
func (cd callbackData) param(i int) string {
	if i < len(cd.Params) {
		return cd.Params[i]
	}
	return ""
}

// buildCatalogCallback re-renders the catalog with another sort key. The
// search term is carried along and cut to fit the callback size limit.
func buildCatalogCallback(key service.SortKey, term string) string {
	prefix := callbackData{Action: actionCatalog, Params: []string{string(key)}}.encode()
	if term == "" {
		return prefix
	}
	return prefix + ":" + truncateBytes(term, maxCallbackData-len(prefix)-1)
}

// decodeCatalogCallback returns the sort key and search term. Colons inside
// the term survive the round trip.
func decodeCatalogCallback(cd callbackData) (service.SortKey, string, error) {
	key, err := service.ParseSortKey(cd.param(0))
	if err != nil {
		return "", "", err
	}
	term := ""
	if len(cd.Params) > 1 {
		term = strings.Join(cd.Params[1:], ":")
	}
	return key, term, nil
}

func buildQuizStartCallback(quizID int64) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizStart, strconv.FormatInt(quizID, 10)},
	}.encode()
}

func buildQuizAnswerCallback(optionID int64) string {
	return callbackData{
		Action: actionQuiz,
		Params: []string{quizAnswer, strconv.FormatInt(optionID, 10)},
	}.encode()
}

func buildQuizRestartCallback() string {
	return callbackData{Action: actionQuiz, Params: []string{quizRestart}}.encode()
}

func buildQuizStopCallback() string {
	return callbackData{Action: actionQuiz, Params: []string{quizStop}}.encode()
}

func truncateBytes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
