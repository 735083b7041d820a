package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type searchResultView struct {
	messageSummary
	Snippet string `json:"snippet"`
}

// Search handles full-text search over stored messages
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := queryInt(r, "limit", defaultPageSize)

	results, err := h.db.SearchMessages(query, limit)
	if err != nil {
		h.logger.Error("search failed", zap.String("query", query), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	views := make([]searchResultView, len(results))
	for i, res := range results {
		views[i] = searchResultView{
			messageSummary: summarize(&res.Message),
			Snippet:        res.Snippet,
		}
	}
	h.respondJSON(w, http.StatusOK, views)
}
