package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/felo/mailroom/internal/db"
	"github.com/felo/mailroom/internal/pipeline"
)

const defaultPageSize = 50

// messageSummary is the listing shape: enough to draw an inbox row.
type messageSummary struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	From           string    `json:"from"`
	FromName       string    `json:"fromName,omitempty"`
	Date           time.Time `json:"date"`
	HasAttachments bool      `json:"hasAttachments"`
}

// messageView is the full message shape with display-ready HTML.
type messageView struct {
	messageSummary
	To            []string         `json:"to,omitempty"`
	CC            []string         `json:"cc,omitempty"`
	ReplyTo       string           `json:"replyTo,omitempty"`
	Body          string           `json:"body"`
	HTML          string           `json:"html"`
	Simple        bool             `json:"simple"`
	AutoGenerated bool             `json:"autoGenerated"`
	Priority      string           `json:"priority,omitempty"`
	EmailClient   string           `json:"emailClient,omitempty"`
	Identifiers   []string         `json:"identifiers,omitempty"`
	Attachments   []attachmentView `json:"attachments,omitempty"`
}

type attachmentView struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
}

// replyView is the quote-free body used to prefill a reply editor.
type replyView struct {
	HTML      string `json:"html"`
	HasQuotes bool   `json:"hasQuotes"`
}

// ListMessages handles the inbox listing
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultPageSize)
	offset := queryInt(r, "offset", 0)

	msgs, err := h.db.ListMessages(limit, offset)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	summaries := make([]messageSummary, len(msgs))
	for i, msg := range msgs {
		summaries[i] = summarize(msg)
	}
	h.respondJSON(w, http.StatusOK, summaries)
}

// GetMessage handles displaying a single message
func (h *Handlers) GetMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.loadMessage(w, r)
	if !ok {
		return
	}

	atts, err := h.db.GetAttachments(msg.ID)
	if err != nil {
		h.logger.Error("failed to load attachments",
			zap.Int64("message", msg.ID), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to load attachments")
		return
	}

	h.respondJSON(w, http.StatusOK, h.buildView(msg, atts))
}

// GetReply returns the message HTML with quoted history removed, for
// prefilling a reply editor.
func (h *Handlers) GetReply(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.loadMessage(w, r)
	if !ok {
		return
	}

	h.respondJSON(w, http.StatusOK, replyView{
		HTML:      pipeline.ExtractQuotes(msg.Email.BodyHTML),
		HasQuotes: pipeline.HasQuotes(msg.Email.BodyHTML),
	})
}

// GetThread returns the conversation a message belongs to, oldest first.
func (h *Handlers) GetThread(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.loadMessage(w, r)
	if !ok {
		return
	}

	thread, err := h.db.GetThread(msg.ID)
	if err != nil {
		h.logger.Error("failed to load thread",
			zap.Int64("message", msg.ID), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to load thread")
		return
	}

	summaries := make([]messageSummary, len(thread))
	for i, m := range thread {
		summaries[i] = summarize(m)
	}
	h.respondJSON(w, http.StatusOK, summaries)
}

// loadMessage parses the id route param and loads the message, writing the
// error response itself when anything goes wrong.
func (h *Handlers) loadMessage(w http.ResponseWriter, r *http.Request) (*db.Message, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid message ID")
		return nil, false
	}

	msg, err := h.db.GetMessage(id)
	if err != nil {
		h.logger.Error("failed to load message", zap.Int64("message", id), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "Failed to load message")
		return nil, false
	}
	if msg == nil {
		h.respondError(w, http.StatusNotFound, "Message not found")
		return nil, false
	}
	return msg, true
}

func (h *Handlers) buildView(msg *db.Message, atts []*db.Attachment) messageView {
	attViews := make([]attachmentView, len(atts))
	pipelineAtts := make([]pipeline.Attachment, len(atts))
	for i, att := range atts {
		url := fmt.Sprintf("/api/attachments/%d", att.ID)
		attViews[i] = attachmentView{
			ID:          att.ID,
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        att.Size,
			URL:         url,
		}
		pipelineAtts[i] = pipeline.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        att.Size,
		}
	}

	// Inline images resolve to the attachment download URL.
	urls := make(map[string]string, len(attViews))
	for _, av := range attViews {
		urls[av.Filename] = av.URL
	}
	resolve := func(att pipeline.Attachment) string { return urls[att.Filename] }

	e := &msg.Email
	return messageView{
		messageSummary: summarize(msg),
		To:             e.To,
		CC:             e.CC,
		ReplyTo:        e.ReplyTo,
		Body:           e.Body,
		HTML:           pipeline.Render(e.Body, e.BodyHTML, pipelineAtts, resolve, h.highlighter),
		Simple:         pipeline.IsSimpleHTML(e.BodyHTML),
		AutoGenerated:  pipeline.IsAutoGenerated(e.Headers),
		Priority:       e.Priority,
		EmailClient:    e.EmailClient,
		Identifiers:    pipeline.ExtractIdentifiers(e.Body),
		Attachments:    attViews,
	}
}

func summarize(msg *db.Message) messageSummary {
	return messageSummary{
		ID:             msg.ID,
		Subject:        msg.Email.Subject,
		From:           msg.Email.From,
		FromName:       msg.Email.FromName,
		Date:           msg.Email.Date,
		HasAttachments: msg.AttachmentCount > 0,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
