package pipeline

import (
	"regexp"
	"strings"
)

var (
	// Script and style bodies must disappear entirely, matched through to
	// the real closing tag even when the content contains stray angle
	// brackets.
	scriptRe = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	styleRe  = regexp.MustCompile(`(?is)<style\b.*?</style\s*>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// entityReplacements is the fixed entity set decoded for indexing. Ordered so
// that &amp; is decoded last: a literal "&amp;lt;" becomes "&lt;" text and is
// never decoded a second time.
var entityReplacements = [][2]string{
	{"&nbsp;", " "},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&apos;", "'"},
	{"&amp;", "&"},
}

// StripHTML produces the plain-text projection of an HTML body for full-text
// indexing. It is total: malformed markup degrades to a best-effort result,
// and empty input yields empty output.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	s = scriptRe.ReplaceAllString(s, " ")
	s = styleRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")

	for _, r := range entityReplacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}

	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
