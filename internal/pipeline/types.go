// Package pipeline contains the email content pipeline: pure transformations
// that turn decoded, often malformed, sometimes adversarial email content into
// a canonical, safe, renderable form. Nothing in this package performs I/O.
package pipeline

import "time"

// Email is the canonical record produced by Normalize for every inbound
// message. It is created once at ingestion and never mutated afterwards.
// Optional string fields use "" for absence.
type Email struct {
	Subject  string
	From     string
	FromName string
	ReplyTo  string

	To  []string
	CC  []string
	BCC []string

	// Body is the cleaned plaintext body (quotes and signatures stripped).
	Body string
	// BodyHTML is the raw HTML body as decoded. It is NOT sanitized here;
	// sanitization happens at render time, every time.
	BodyHTML string
	// BodyHTMLStripped is the plain-text projection of BodyHTML, always
	// computed, used for search indexing. Empty when BodyHTML is empty.
	BodyHTMLStripped string

	MessageID  string
	InReplyTo  string
	References []string

	Attachments []Attachment

	Date         time.Time
	Priority     string
	ReceivedDate time.Time
	OriginalTo   string
	EmailClient  string

	// Headers holds every decoded header. The Date value is re-serialized
	// to RFC 3339 when parseable.
	Headers map[string][]string
}

// Attachment is a decoded attachment buffer. Entries with empty content are
// dropped during normalization.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
	Size        int64
}
