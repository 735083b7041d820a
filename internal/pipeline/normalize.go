package pipeline

import (
	"net/mail"
	"strings"
	"time"
)

// DecodedEmail is the structural email handed over by the MIME-decoding
// collaborator: decoded headers, address lists, bodies and attachment
// buffers. The pipeline never sees raw MIME bytes.
type DecodedEmail struct {
	Headers map[string][]string

	From    []Address
	To      []Address
	CC      []Address
	BCC     []Address
	ReplyTo []Address

	Text string
	HTML string

	Attachments []Attachment

	MessageID  string
	InReplyTo  string
	References []string

	Date time.Time
}

// Address is a decoded mailbox with optional display name.
type Address struct {
	Name  string
	Email string
}

const (
	noSubjectPlaceholder   = "(No Subject)"
	fallbackAttachmentName = "attachment"
	fallbackContentType    = "application/octet-stream"
)

// Normalize assembles the canonical record for a decoded email. Every field
// it cannot confidently extract becomes a documented default rather than
// failing the transformation.
func Normalize(decoded *DecodedEmail) *Email {
	e := &Email{
		Subject:          headerGet(decoded.Headers, "Subject"),
		ReplyTo:          firstAddress(decoded.ReplyTo),
		To:               flattenAddresses(decoded.To),
		CC:               flattenAddresses(decoded.CC),
		BCC:              flattenAddresses(decoded.BCC),
		Body:             CleanBody(decoded.Text),
		BodyHTML:         decoded.HTML,
		BodyHTMLStripped: StripHTML(decoded.HTML),
		MessageID:        strings.TrimSpace(decoded.MessageID),
		InReplyTo:        strings.TrimSpace(decoded.InReplyTo),
		References:       normalizeReferences(decoded.References),
		Date:             decoded.Date,
		Priority:         headerGet(decoded.Headers, "X-Priority"),
		OriginalTo:       headerGet(decoded.Headers, "X-Original-To"),
		EmailClient:      emailClient(decoded.Headers),
		Headers:          normalizeHeaders(decoded.Headers),
	}

	if e.Subject == "" {
		e.Subject = noSubjectPlaceholder
	}
	if len(decoded.From) > 0 {
		e.From = decoded.From[0].Email
		e.FromName = decoded.From[0].Name
	}
	if v := headerGet(decoded.Headers, "Delivery-Date"); v != "" {
		if t, err := mail.ParseDate(v); err == nil {
			e.ReceivedDate = t
		}
	}
	e.Attachments = normalizeAttachments(decoded.Attachments)

	return e
}

// headerGet returns the first value for a header name, compared
// case-insensitively.
func headerGet(headers map[string][]string, name string) string {
	for k, vs := range headers {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
	}
	return ""
}

func firstAddress(addrs []Address) string {
	if len(addrs) == 0 {
		return ""
	}
	return addrs[0].Email
}

// flattenAddresses keeps order and duplicates; the record mirrors the message.
func flattenAddresses(addrs []Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Email)
	}
	return out
}

func normalizeReferences(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// emailClient identifies the sending client, preferring X-Mailer over
// User-Agent.
func emailClient(headers map[string][]string) string {
	if v := headerGet(headers, "X-Mailer"); v != "" {
		return v
	}
	return headerGet(headers, "User-Agent")
}

// normalizeHeaders copies the header map, re-serializing date-valued headers
// to RFC 3339 when they parse.
func normalizeHeaders(headers map[string][]string) map[string][]string {
	out := make(map[string][]string, len(headers))
	for k, vs := range headers {
		copied := make([]string, len(vs))
		copy(copied, vs)
		if strings.EqualFold(k, "Date") || strings.EqualFold(k, "Delivery-Date") {
			for i, v := range copied {
				if t, err := mail.ParseDate(v); err == nil {
					copied[i] = t.Format(time.RFC3339)
				}
			}
		}
		out[k] = copied
	}
	return out
}

// normalizeAttachments drops empty buffers and fills in the documented
// defaults for filename, content type and size.
func normalizeAttachments(atts []Attachment) []Attachment {
	out := make([]Attachment, 0, len(atts))
	for _, att := range atts {
		if len(att.Content) == 0 {
			continue
		}
		if att.Filename == "" {
			att.Filename = fallbackAttachmentName
		}
		if att.ContentType == "" {
			att.ContentType = fallbackContentType
		}
		if att.Size == 0 {
			att.Size = int64(len(att.Content))
		}
		out = append(out, att)
	}
	return out
}
