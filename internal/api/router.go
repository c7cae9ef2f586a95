// Package api serves the bonus tracker over HTTP for browser front ends.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the chi router with every route registered.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(h.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/parse-bonus", h.handleParseBonus)
		r.Get("/analytics", h.handleAnalytics)

		r.Route("/bonuses", func(r chi.Router) {
			r.Get("/", h.handleListBonuses)
			r.Post("/", h.handleCreateBonus)
			r.Get("/{id}", h.handleGetBonus)
			r.Put("/{id}", h.handleUpdateBonus)
			r.Delete("/{id}", h.handleDeleteBonus)
			r.Post("/{id}/deposits", h.handleAddDeposit)
		})
	})

	return r
}
