// Package parser decodes raw RFC 5322 messages into the structural form the
// content pipeline consumes. It owns all MIME concerns: header decoding,
// charset conversion, multipart traversal and attachment buffers.
package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"

	"github.com/felo/mailroom/internal/pipeline"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// inlineImageExts maps inline image content types to the extension used when
// naming a CID-referenced part, so the render pipeline can resolve it.
var inlineImageExts = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/bmp":     "bmp",
	"image/svg+xml": "svg",
}

// DecodeFile decodes a single .eml file.
func DecodeFile(filePath string) (*pipeline.DecodedEmail, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode decodes an email from a reader into the structural form handed to
// the pipeline. Individual malformed fields degrade to their zero value; only
// an unreadable message is an error.
func Decode(r io.Reader) (*pipeline.DecodedEmail, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail reader: %w", err)
	}

	header := mr.Header
	decoded := &pipeline.DecodedEmail{
		Headers:   decodeHeaderMap(header),
		MessageID: header.Get("Message-Id"),
		InReplyTo: strings.TrimSpace(header.Get("In-Reply-To")),
	}

	if references := header.Get("References"); references != "" {
		// References is a space-separated list of Message-IDs
		decoded.References = splitMessageIDList(references)
	}

	decoded.From = addressList(header, "From")
	decoded.To = addressList(header, "To")
	decoded.CC = addressList(header, "Cc")
	decoded.BCC = addressList(header, "Bcc")
	decoded.ReplyTo = addressList(header, "Reply-To")

	if date, err := header.Date(); err == nil {
		decoded.Date = date
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Salvage what was decoded so far; real-world MIME is
			// frequently truncated or mis-nested.
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				// Keep the first text part (multipart emails carry both)
				if decoded.Text == "" {
					decoded.Text = string(body)
				}
			case strings.HasPrefix(contentType, "text/html"):
				decoded.HTML = string(body)
			default:
				// Inline non-text parts are usually CID-referenced
				// images; name them after their Content-ID so the
				// render pipeline can resolve them.
				if att, ok := inlineAttachment(h, contentType, body); ok {
					decoded.Attachments = append(decoded.Attachments, att)
				}
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}

			decoded.Attachments = append(decoded.Attachments, pipeline.Attachment{
				Filename:    filename,
				ContentType: contentType,
				Size:        int64(len(data)),
				Content:     data,
			})
		}
	}

	return decoded, nil
}

// decodeHeaderMap flattens every header into decoded string values.
func decodeHeaderMap(header mail.Header) map[string][]string {
	out := make(map[string][]string)
	fields := header.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			// Undecodable MIME words fall back to the raw value
			value = fields.Value()
		}
		out[fields.Key()] = append(out[fields.Key()], value)
	}
	return out
}

func addressList(header mail.Header, key string) []pipeline.Address {
	addrs, err := header.AddressList(key)
	if err != nil || len(addrs) == 0 {
		return nil
	}
	out := make([]pipeline.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, pipeline.Address{Name: a.Name, Email: a.Address})
	}
	return out
}

// inlineAttachment converts a CID-referenced inline part into an attachment
// named <cid>.<ext>.
func inlineAttachment(h *mail.InlineHeader, contentType string, body []byte) (pipeline.Attachment, bool) {
	ext, ok := inlineImageExts[contentType]
	if !ok {
		return pipeline.Attachment{}, false
	}
	cid := strings.Trim(strings.TrimSpace(h.Get("Content-Id")), "<>")
	if cid == "" {
		return pipeline.Attachment{}, false
	}
	// Strip the domain part some clients append to the Content-ID
	if at := strings.IndexByte(cid, '@'); at > 0 {
		cid = cid[:at]
	}
	return pipeline.Attachment{
		Filename:    cid + "." + ext,
		ContentType: contentType,
		Size:        int64(len(body)),
		Content:     body,
	}, true
}

// splitMessageIDList splits a space-separated list of Message-IDs
// Example: "<id1@example.com> <id2@example.com>" -> ["<id1@example.com>", "<id2@example.com>"]
func splitMessageIDList(s string) []string {
	var ids []string
	for _, part := range strings.Fields(s) {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
