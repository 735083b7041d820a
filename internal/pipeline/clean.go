package pipeline

import (
	"regexp"
	"strings"
)

// Signature and reply sentinels. These are tuned against real mail clients
// and grow over time; keep them as an ordered table, not inline conditions.
var (
	signatureRes = []*regexp.Regexp{
		regexp.MustCompile(`^--\s*$`),
		regexp.MustCompile(`^_{3,}\s*$`),
		regexp.MustCompile(`(?i)^sent from my`),
	}
	wroteRe = regexp.MustCompile(`(?i)^on .*wrote:\s*$`)
)

// CleanBody strips quoted history and signatures from a plaintext email body.
// A single forward pass: signature sentinels discard everything that follows,
// "> " lines are dropped, and an "On ... wrote:" line terminates processing.
// Idempotent.
func CleanBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")

	var kept []string
	inSignature := false
	inQuote := false

	for _, line := range strings.Split(body, "\n") {
		if inSignature {
			continue
		}

		if wroteRe.MatchString(strings.TrimSpace(line)) {
			break
		}

		if matchesSignature(line) {
			inSignature = true
			continue
		}

		if strings.HasPrefix(line, ">") {
			inQuote = true
			continue
		}
		if inQuote {
			// First non-quoted line after a quote block: the quote is
			// over, but the line itself is kept if it has content.
			inQuote = false
		}

		if len(kept) == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func matchesSignature(line string) bool {
	for _, re := range signatureRes {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
