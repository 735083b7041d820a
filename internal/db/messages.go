package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felo/mailroom/internal/pipeline"
)

// Message is a stored canonical record plus its database identity.
type Message struct {
	ID              int64
	Email           pipeline.Email
	AttachmentCount int
	CreatedAt       time.Time
}

// Attachment is a stored attachment row.
type Attachment struct {
	ID          int64
	MessageID   int64
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// messageColumns builds the select list for message rows, optionally
// table-qualified for joins against the FTS table.
func messageColumns(alias string) string {
	cols := []string{
		"id", "message_id", "in_reply_to", "thread_references", "subject",
		"sender", "sender_name", "reply_to", "recipients", "cc", "bcc",
		"body_text", "body_html", "body_html_stripped", "date", "priority",
		"received_date", "original_to", "email_client", "headers",
		"attachment_count", "created_at",
	}
	if alias != "" {
		for i, c := range cols {
			cols[i] = alias + "." + c
		}
	}
	return " " + strings.Join(cols, ", ")
}

// InsertMessage stores a canonical record and its attachments in one
// transaction and returns the new message id.
func (db *DB) InsertMessage(e *pipeline.Email) (int64, error) {
	headersJSON, err := json.Marshal(e.Headers)
	if err != nil {
		return 0, fmt.Errorf("failed to encode headers: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO messages (
			message_id, in_reply_to, thread_references, subject, sender, sender_name,
			reply_to, recipients, cc, bcc, body_text, body_html, body_html_stripped,
			date, priority, received_date, original_to, email_client, headers,
			has_attachments, attachment_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.MessageID, e.InReplyTo, strings.Join(e.References, " "),
		e.Subject, e.From, e.FromName, e.ReplyTo,
		joinAddresses(e.To), joinAddresses(e.CC), joinAddresses(e.BCC),
		e.Body, e.BodyHTML, e.BodyHTMLStripped,
		nullTime(e.Date), e.Priority, nullTime(e.ReceivedDate),
		e.OriginalTo, e.EmailClient, string(headersJSON),
		len(e.Attachments) > 0, len(e.Attachments),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get message id: %w", err)
	}

	for _, att := range e.Attachments {
		_, err := tx.Exec(`
			INSERT INTO attachments (message_id, filename, content_type, size, content)
			VALUES (?, ?, ?, ?, ?)`,
			id, att.Filename, att.ContentType, att.Size, att.Content,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert attachment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit message: %w", err)
	}
	return id, nil
}

// GetMessage loads a stored message by id. Returns nil when not found.
func (db *DB) GetMessage(id int64) (*Message, error) {
	row := db.QueryRow(`SELECT`+messageColumns("")+` FROM messages WHERE id = ?`, id)
	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return msg, nil
}

// ListMessages returns recent messages ordered by date descending.
func (db *DB) ListMessages(limit, offset int) ([]*Message, error) {
	rows, err := db.Query(
		`SELECT`+messageColumns("")+` FROM messages ORDER BY date DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MessageExists reports whether a message with the given Message-ID was
// already ingested. Messages without a Message-ID are never deduplicated.
func (db *DB) MessageExists(messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE message_id = ?`, messageID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check message existence: %w", err)
	}
	return count > 0, nil
}

// GetAttachments loads the attachments of a message, content included.
func (db *DB) GetAttachments(messageID int64) ([]*Attachment, error) {
	rows, err := db.Query(`
		SELECT id, message_id, filename, content_type, size, content
		FROM attachments WHERE message_id = ? ORDER BY id`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}
	defer rows.Close()

	var atts []*Attachment
	for rows.Next() {
		att := &Attachment{}
		if err := rows.Scan(&att.ID, &att.MessageID, &att.Filename,
			&att.ContentType, &att.Size, &att.Content); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		atts = append(atts, att)
	}
	return atts, rows.Err()
}

// GetAttachment loads a single attachment by id. Returns nil when not found.
func (db *DB) GetAttachment(id int64) (*Attachment, error) {
	att := &Attachment{}
	err := db.QueryRow(`
		SELECT id, message_id, filename, content_type, size, content
		FROM attachments WHERE id = ?`, id).
		Scan(&att.ID, &att.MessageID, &att.Filename, &att.ContentType, &att.Size, &att.Content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attachment: %w", err)
	}
	return att, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner, extra ...any) (*Message, error) {
	msg := &Message{}
	var (
		references  string
		recipients  string
		cc, bcc     string
		headersJSON string
		date        NullTime
		received    NullTime
		createdAt   NullTime
	)

	dest := []any{
		&msg.ID, &msg.Email.MessageID, &msg.Email.InReplyTo, &references,
		&msg.Email.Subject, &msg.Email.From, &msg.Email.FromName,
		&msg.Email.ReplyTo, &recipients, &cc, &bcc,
		&msg.Email.Body, &msg.Email.BodyHTML, &msg.Email.BodyHTMLStripped,
		&date, &msg.Email.Priority, &received,
		&msg.Email.OriginalTo, &msg.Email.EmailClient, &headersJSON,
		&msg.AttachmentCount, &createdAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	msg.Email.References = splitFields(references)
	msg.Email.To = splitAddresses(recipients)
	msg.Email.CC = splitAddresses(cc)
	msg.Email.BCC = splitAddresses(bcc)
	if date.Valid {
		msg.Email.Date = date.Time
	}
	if received.Valid {
		msg.Email.ReceivedDate = received.Time
	}
	if createdAt.Valid {
		msg.CreatedAt = createdAt.Time
	}
	if headersJSON != "" {
		if err := json.Unmarshal([]byte(headersJSON), &msg.Email.Headers); err != nil {
			return nil, fmt.Errorf("failed to decode headers: %w", err)
		}
	}

	return msg, nil
}

func scanMessages(rows *sql.Rows) ([]*Message, error) {
	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func joinAddresses(addrs []string) string {
	return strings.Join(addrs, ", ")
}

func splitAddresses(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ", ")
	return parts
}

func splitFields(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

