package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecode_SimpleEmail tests decoding a basic plain text email
func TestDecode_SimpleEmail(t *testing.T) {
	eml := "From: Jane Customer <jane@example.com>\r\n" +
		"To: support@shop.test\r\n" +
		"Subject: Simple Test Email\r\n" +
		"Message-Id: <simple123@example.com>\r\n" +
		"Date: Mon, 1 Jan 2024 10:00:00 +0000\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"This is a simple test email.\r\n"

	decoded, err := Decode(strings.NewReader(eml))
	require.NoError(t, err)

	require.Len(t, decoded.From, 1)
	assert.Equal(t, "jane@example.com", decoded.From[0].Email)
	assert.Equal(t, "Jane Customer", decoded.From[0].Name)
	require.Len(t, decoded.To, 1)
	assert.Equal(t, "support@shop.test", decoded.To[0].Email)
	assert.Equal(t, "<simple123@example.com>", decoded.MessageID)
	assert.Contains(t, decoded.Text, "This is a simple test email")
	assert.Empty(t, decoded.HTML)
	assert.Empty(t, decoded.Attachments)
	assert.False(t, decoded.Date.IsZero())
	assert.Equal(t, 2024, decoded.Date.Year())
}

// TestDecode_MIMEEncodedSubject tests that encoded header words are decoded
// into the header map
func TestDecode_MIMEEncodedSubject(t *testing.T) {
	eml := "From: sender@example.com\r\n" +
		"Subject: =?UTF-8?Q?Invitaci=C3=B3n:_Reuni=C3=B3n_de_proyecto?=\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"body\r\n"

	decoded, err := Decode(strings.NewReader(eml))
	require.NoError(t, err)

	require.Contains(t, decoded.Headers, "Subject")
	assert.Equal(t, "Invitación: Reunión de proyecto", decoded.Headers["Subject"][0])
}

// TestDecode_MultipartAlternative tests that both text and HTML bodies are
// captured
func TestDecode_MultipartAlternative(t *testing.T) {
	eml := "From: sender@example.com\r\n" +
		"Subject: HTML Email Test\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"BOUND\"\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain text version\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<h1>This is an HTML email</h1>\r\n" +
		"--BOUND--\r\n"

	decoded, err := Decode(strings.NewReader(eml))
	require.NoError(t, err)

	assert.Contains(t, decoded.Text, "plain text version")
	assert.Contains(t, decoded.HTML, "<h1>This is an HTML email</h1>")
}

// TestDecode_Attachment tests attachment buffer extraction
func TestDecode_Attachment(t *testing.T) {
	eml := "From: sender@example.com\r\n" +
		"Subject: Email with Attachment\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"BOUND\"\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"This email has an attachment.\r\n" +
		"--BOUND\r\n" +
		"Content-Type: application/pdf\r\n" +
		"Content-Disposition: attachment; filename=\"document.pdf\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"JVBERi0xLjQ=\r\n" +
		"--BOUND--\r\n"

	decoded, err := Decode(strings.NewReader(eml))
	require.NoError(t, err)

	require.Len(t, decoded.Attachments, 1)
	att := decoded.Attachments[0]
	assert.Equal(t, "document.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Greater(t, att.Size, int64(0))
	assert.NotEmpty(t, att.Content)
}

// TestDecode_InlineImage tests that CID-referenced inline parts become
// attachments named after their Content-ID
func TestDecode_InlineImage(t *testing.T) {
	eml := "From: sender@example.com\r\n" +
		"Subject: Inline image\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related; boundary=\"BOUND\"\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<img src=\"cid:logo42\">\r\n" +
		"--BOUND\r\n" +
		"Content-Type: image/png\r\n" +
		"Content-Disposition: inline\r\n" +
		"Content-Id: <logo42@mailer.test>\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"iVBORw0KGgo=\r\n" +
		"--BOUND--\r\n"

	decoded, err := Decode(strings.NewReader(eml))
	require.NoError(t, err)

	require.Len(t, decoded.Attachments, 1)
	assert.Equal(t, "logo42.png", decoded.Attachments[0].Filename)
	assert.Equal(t, "image/png", decoded.Attachments[0].ContentType)
}

// TestDecode_References tests threading header extraction
func TestDecode_References(t *testing.T) {
	eml := "From: sender@example.com\r\n" +
		"Subject: Re: thread\r\n" +
		"In-Reply-To: <parent@example.com>\r\n" +
		"References: <root@example.com> <parent@example.com>\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"reply\r\n"

	decoded, err := Decode(strings.NewReader(eml))
	require.NoError(t, err)

	assert.Equal(t, "<parent@example.com>", decoded.InReplyTo)
	assert.Equal(t, []string{"<root@example.com>", "<parent@example.com>"}, decoded.References)
}

// TestDecode_MissingHeaders tests decoding with most headers absent
func TestDecode_MissingHeaders(t *testing.T) {
	eml := "Subject: Missing Headers Test\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"missing some headers\r\n"

	decoded, err := Decode(strings.NewReader(eml))
	require.NoError(t, err)

	assert.Empty(t, decoded.From)
	assert.Empty(t, decoded.MessageID)
	assert.True(t, decoded.Date.IsZero())
	assert.Contains(t, decoded.Text, "missing some headers")
}

// TestDecodeFile_InvalidFile tests error handling for non-existent files
func TestDecodeFile_InvalidFile(t *testing.T) {
	_, err := DecodeFile("testdata/does-not-exist.eml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}
