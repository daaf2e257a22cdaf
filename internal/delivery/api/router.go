package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the quiz API.
func NewRouter(quizzes *QuizHandler, sessions *SessionHandler, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(requestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/quizzes", func(r chi.Router) {
			r.Get("/", quizzes.ListQuizzes)
			r.Get("/{quizID}", quizzes.GetQuiz)
			r.Post("/{quizID}/sessions", sessions.CreateSession)
		})

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", sessions.GetSession)
			r.Delete("/", sessions.DeleteSession)
			r.Post("/answers", sessions.Answer)
			r.Post("/restart", sessions.Restart)
		})
	})

	return r
}
