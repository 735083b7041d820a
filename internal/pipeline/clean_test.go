package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCleanBody tests quote and signature stripping on plaintext bodies
func TestCleanBody(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain body unchanged",
			input:    "Hello,\nplease check my order.",
			expected: "Hello,\nplease check my order.",
		},
		{
			name:     "Wrote sentinel terminates before signature rule",
			input:    "Hi, thanks!\n\nOn Mon, Jan 1 wrote:\n> previous text\n--\nJohn",
			expected: "Hi, thanks!",
		},
		{
			name:     "Dash signature discards everything after",
			input:    "Body text\n--\nJohn Doe\nACME Corp",
			expected: "Body text",
		},
		{
			name:     "Dash signature with trailing whitespace",
			input:    "Body\n--   \nsig",
			expected: "Body",
		},
		{
			name:     "Underscore rule",
			input:    "Hi there\n_____\ncorporate footer",
			expected: "Hi there",
		},
		{
			name:     "Sent from my sentinel",
			input:    "Quick reply\nSent from my iPhone",
			expected: "Quick reply",
		},
		{
			name:     "Sent from my is case-insensitive",
			input:    "Reply\nsent from my Galaxy",
			expected: "Reply",
		},
		{
			name:     "Quoted lines dropped, following line kept",
			input:    "My answer\n> quoted one\n> quoted two\nand one more thing",
			expected: "My answer\nand one more thing",
		},
		{
			name:     "Leading blank lines skipped",
			input:    "\n\n\nHello",
			expected: "Hello",
		},
		{
			name:     "Trailing blank lines trimmed",
			input:    "Hello\n\n\n",
			expected: "Hello",
		},
		{
			name:     "CRLF normalized",
			input:    "Hello\r\nworld",
			expected: "Hello\nworld",
		},
		{
			name:     "Entirely quoted message yields empty body",
			input:    "> a\n> b\n> c",
			expected: "",
		},
		{
			name:     "On wrote must anchor the whole line",
			input:    "Carry on and note what he wrote: stuff\nmore",
			expected: "Carry on and note what he wrote: stuff\nmore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanBody(tt.input))
		})
	}
}

// TestCleanBody_Idempotent tests that cleaning an already-cleaned body is a
// no-op
func TestCleanBody_Idempotent(t *testing.T) {
	inputs := []string{
		"Hi, thanks!\n\nOn Mon, Jan 1 wrote:\n> previous text\n--\nJohn",
		"Body text\n--\nJohn Doe",
		"My answer\n> quoted\nkept line",
		"\n\nleading blanks\n\n",
		"plain text",
		"",
	}

	for _, input := range inputs {
		once := CleanBody(input)
		assert.Equal(t, once, CleanBody(once), "CleanBody should be idempotent for %q", input)
	}
}
