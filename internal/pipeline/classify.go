package pipeline

import (
	"regexp"
	"strings"
)

// Classification flags are recomputed on demand from content alone. They must
// stay deterministic: no clock, no environment, no randomness.

// IsAutoGenerated reports whether a message is bulk/auto-generated mail based
// on its Precedence header. Only "bulk" and "junk" count: "list", bounces and
// out-of-office replies are real signal for a support inbox and stay in.
func IsAutoGenerated(headers map[string][]string) bool {
	for name, values := range headers {
		if !strings.EqualFold(name, "Precedence") {
			continue
		}
		for _, v := range values {
			v = strings.TrimSpace(strings.ToLower(v))
			if v == "bulk" || v == "junk" {
				return true
			}
		}
	}
	return false
}

// complexityMarkers flag HTML that needs isolated (bounded-height,
// expandable) rendering instead of inline display. Matched case-insensitively
// against the original, pre-sanitization HTML. Open list; add client quirks
// here.
var complexityMarkers = []string{
	"<table",
	"<style",
	"<iframe",
	"<form",
	"<script",
	"background:",
	"gmail_quote",
}

// simpleHTMLMaxLen is the size above which HTML is always rendered isolated.
const simpleHTMLMaxLen = 1000

// IsSimpleHTML decides inline vs. isolated rendering for an HTML body. It
// inspects the original stored HTML, independent of what sanitization later
// removes.
func IsSimpleHTML(html string) bool {
	if len(html) > simpleHTMLMaxLen {
		return false
	}
	lower := strings.ToLower(html)
	for _, marker := range complexityMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

var (
	// Order-number-like tokens: "order" or "#", an optional separator, then
	// an alphanumeric run of at least 4 characters.
	orderNumberRe = regexp.MustCompile(`(?i)(?:order|#)[\s:#-]?([A-Za-z0-9]{4,})`)
	// Generic tracking-number-like runs.
	trackingNumberRe = regexp.MustCompile(`\b[A-Za-z0-9]{10,}\b`)
)

// ExtractIdentifiers pulls order- and tracking-number-like tokens out of a
// cleaned plaintext body. Results are de-duplicated; ordering is not
// guaranteed, which is acceptable for this auxiliary signal.
func ExtractIdentifiers(text string) []string {
	seen := make(map[string]struct{})

	for _, m := range orderNumberRe.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}
	for _, m := range trackingNumberRe.FindAllString(text, -1) {
		seen[m] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}
