package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalize_Defaults tests documented defaults for a near-empty message
func TestNormalize_Defaults(t *testing.T) {
	e := Normalize(&DecodedEmail{})

	assert.Equal(t, "(No Subject)", e.Subject)
	assert.Equal(t, "", e.From, "from is never null, defaults to empty")
	assert.Equal(t, "", e.FromName)
	assert.Empty(t, e.To)
	assert.Empty(t, e.References)
	assert.Equal(t, "", e.Body)
	assert.Equal(t, "", e.BodyHTML)
	assert.Equal(t, "", e.BodyHTMLStripped, "stripped projection is defined even without HTML")
	assert.Empty(t, e.Attachments)
	assert.NotNil(t, e.Headers)
}

// TestNormalize_Addresses tests address flattening and precedence
func TestNormalize_Addresses(t *testing.T) {
	decoded := &DecodedEmail{
		From: []Address{
			{Name: "Jane Customer", Email: "jane@example.com"},
			{Name: "Ignored", Email: "second@example.com"},
		},
		ReplyTo: []Address{{Email: "replies@example.com"}},
		To: []Address{
			{Email: "support@shop.test"},
			{Email: "support@shop.test"}, // duplicates retained
			{Email: "billing@shop.test"},
		},
		CC:  []Address{{Email: "boss@example.com"}},
		BCC: []Address{{Email: "archive@shop.test"}},
	}

	e := Normalize(decoded)

	assert.Equal(t, "jane@example.com", e.From)
	assert.Equal(t, "Jane Customer", e.FromName)
	assert.Equal(t, "replies@example.com", e.ReplyTo)
	assert.Equal(t, []string{"support@shop.test", "support@shop.test", "billing@shop.test"}, e.To)
	assert.Equal(t, []string{"boss@example.com"}, e.CC)
	assert.Equal(t, []string{"archive@shop.test"}, e.BCC)
}

// TestNormalize_Bodies tests cleaning and the stripped projection
func TestNormalize_Bodies(t *testing.T) {
	decoded := &DecodedEmail{
		Text: "Hi, thanks!\n\nOn Mon, Jan 1 wrote:\n> previous text\n--\nJohn",
		HTML: "<p>Hi, <b>thanks</b>!</p>",
	}

	e := Normalize(decoded)

	assert.Equal(t, "Hi, thanks!", e.Body)
	assert.Equal(t, "<p>Hi, <b>thanks</b>!</p>", e.BodyHTML, "raw HTML is stored unsanitized")
	assert.Equal(t, "Hi, thanks !", e.BodyHTMLStripped)
}

// TestNormalize_Headers tests header metadata extraction
func TestNormalize_Headers(t *testing.T) {
	decoded := &DecodedEmail{
		Headers: map[string][]string{
			"Subject":       {"Order question"},
			"x-original-to": {"shop@forwarder.test"},
			"X-Mailer":      {"Thunderbird 115"},
			"User-Agent":    {"should lose to X-Mailer"},
			"X-Priority":    {"1"},
			"Date":          {"Mon, 1 Jan 2024 10:00:00 +0000"},
		},
	}

	e := Normalize(decoded)

	assert.Equal(t, "Order question", e.Subject)
	assert.Equal(t, "shop@forwarder.test", e.OriginalTo, "x-original-to read case-insensitively")
	assert.Equal(t, "Thunderbird 115", e.EmailClient)
	assert.Equal(t, "1", e.Priority)

	require.Contains(t, e.Headers, "Date")
	assert.Equal(t, []string{"2024-01-01T10:00:00Z"}, e.Headers["Date"],
		"date header values re-serialized to ISO-8601")
}

// TestNormalize_EmailClientFallback tests User-Agent fallback
func TestNormalize_EmailClientFallback(t *testing.T) {
	e := Normalize(&DecodedEmail{
		Headers: map[string][]string{"User-Agent": {"Mutt/2.2"}},
	})
	assert.Equal(t, "Mutt/2.2", e.EmailClient)

	e = Normalize(&DecodedEmail{})
	assert.Equal(t, "", e.EmailClient)
}

// TestNormalize_References tests reference list normalization
func TestNormalize_References(t *testing.T) {
	e := Normalize(&DecodedEmail{
		References: []string{" <a@example.com> ", "", "<b@example.com>", "   "},
	})
	assert.Equal(t, []string{"<a@example.com>", "<b@example.com>"}, e.References)
}

// TestNormalize_Attachments tests filtering and defaulting
func TestNormalize_Attachments(t *testing.T) {
	decoded := &DecodedEmail{
		Attachments: []Attachment{
			{Filename: "empty.bin"}, // no content, dropped
			{Content: []byte{1, 2, 3}},
			{Filename: "report.pdf", Content: []byte{9}, ContentType: "application/pdf", Size: 1},
		},
	}

	e := Normalize(decoded)

	require.Len(t, e.Attachments, 2)
	assert.Equal(t, "attachment", e.Attachments[0].Filename)
	assert.Equal(t, "application/octet-stream", e.Attachments[0].ContentType)
	assert.Equal(t, int64(3), e.Attachments[0].Size)
	assert.Equal(t, "report.pdf", e.Attachments[1].Filename)
}

// TestNormalize_Dates tests timestamp carry-over
func TestNormalize_Dates(t *testing.T) {
	sent := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	e := Normalize(&DecodedEmail{
		Date: sent,
		Headers: map[string][]string{
			"Delivery-Date": {"Mon, 1 Jan 2024 10:05:00 +0000"},
		},
	})

	assert.Equal(t, sent, e.Date)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC).Unix(), e.ReceivedDate.Unix())
}
