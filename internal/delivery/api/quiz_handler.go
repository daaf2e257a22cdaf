package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizier/internal/domain/entities"
	"github.com/aliskhannn/quizier/internal/service"
)

type quizResponse struct {
	entities.Quiz
	Slug string `json:"slug"`
}

type catalogResponse struct {
	Quizzes []quizResponse  `json:"quizzes"`
	Search  string          `json:"search"`
	Sort    service.SortKey `json:"sort"`
	Total   int             `json:"total"`
}

func toQuizResponses(quizzes []entities.Quiz) []quizResponse {
	out := make([]quizResponse, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, quizResponse{Quiz: q, Slug: q.Slug()})
	}
	return out
}

// QuizHandler serves the quiz catalog.
type QuizHandler struct {
	store  service.QuizStore
	logger *zap.Logger
}

func NewQuizHandler(store service.QuizStore, logger *zap.Logger) *QuizHandler {
	return &QuizHandler{store: store, logger: logger}
}

// ListQuizzes handles GET /quizzes?search=&sort=.
// Every request is a fresh catalog activation.
func (h *QuizHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	key, err := service.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	catalog := service.NewCatalog(h.store, h.logger)
	if err := catalog.Load(r.Context()); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "failed to load quizzes")
		return
	}

	view := catalog.View(search, key)
	respondWithJSON(w, http.StatusOK, catalogResponse{
		Quizzes: toQuizResponses(view),
		Search:  search,
		Sort:    key,
		Total:   catalog.Len(),
	})
}

// GetQuiz handles GET /quizzes/{quizID}.
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := quizIDParam(r)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	quiz, err := h.store.GetQuiz(r.Context(), quizID)
	if err != nil {
		h.logger.Warn("failed to get quiz", zap.Int64("quiz_id", quizID), zap.Error(err))
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, quizResponse{Quiz: *quiz, Slug: quiz.Slug()})
}

func quizIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "quizID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid quiz id %q: %w", raw, errBadRequest)
	}
	return id, nil
}
