package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/felo/mailroom/internal/db"
	"github.com/felo/mailroom/internal/pipeline"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	db          *db.DB
	logger      *zap.Logger
	highlighter *pipeline.Highlighter
}

// New creates a new Handlers instance
func New(database *db.DB, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		db:          database,
		logger:      logger,
		highlighter: pipeline.NewHighlighter("go", "python", "javascript", "json", "bash", "sql", "html", "css"),
	}
}

// Routes mounts all API routes on the given router.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/messages", h.ListMessages)
		r.Get("/messages/{id}", h.GetMessage)
		r.Get("/messages/{id}/reply", h.GetReply)
		r.Get("/messages/{id}/thread", h.GetThread)
		r.Get("/search", h.Search)
		r.Get("/attachments/{id}", h.DownloadAttachment)
	})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}
