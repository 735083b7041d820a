package handlers

import (
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// sanitizeFilename removes dangerous characters from attachment filenames
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 || r == '"' || r == '\'' {
			return -1
		}
		return r
	}, filename)

	if len(cleaned) > 255 {
		cleaned = cleaned[:255]
	}
	if cleaned == "" {
		cleaned = "download.bin"
	}
	return cleaned
}

// DownloadAttachment serves stored attachment content
func (h *Handlers) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid attachment ID")
		return
	}

	att, err := h.db.GetAttachment(id)
	if err != nil {
		h.logger.Error("failed to load attachment", zap.Int64("attachment", id), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to load attachment")
		return
	}
	if att == nil {
		h.respondError(w, http.StatusNotFound, "Attachment not found")
		return
	}

	safeFilename := sanitizeFilename(att.Filename)

	// Inline disposition would let HTML attachments run in our origin.
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{
			"filename": safeFilename,
		}))
	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(att.Content)), 10))
	w.Header().Set("X-Content-Type-Options", "nosniff")

	w.Write(att.Content)
}
