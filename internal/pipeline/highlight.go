package pipeline

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter is an immutable registry of syntax-highlighting grammars,
// constructed once at startup and passed into the render pipeline. A nil
// Highlighter disables highlighting.
type Highlighter struct {
	grammars  map[string]chroma.Lexer
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter builds a registry for the given language tags. Unknown tags
// are skipped.
func NewHighlighter(languages ...string) *Highlighter {
	h := &Highlighter{
		grammars: make(map[string]chroma.Lexer, len(languages)),
		style:    styles.Get("github"),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
	for _, lang := range languages {
		if lx := lexers.Get(lang); lx != nil {
			h.grammars[strings.ToLower(lang)] = chroma.Coalesce(lx)
		}
	}
	return h
}

// Highlight returns highlighted markup for source, or ok=false when no
// grammar is registered for the language tag.
func (h *Highlighter) Highlight(lang, source string) (string, bool) {
	if h == nil {
		return "", false
	}
	lx, ok := h.grammars[strings.ToLower(lang)]
	if !ok {
		return "", false
	}
	it, err := lx.Tokenise(nil, source)
	if err != nil {
		return "", false
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		return "", false
	}
	return buf.String(), true
}
