package pipeline

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Mail clients wrap quoted history in wildly different markup. Three layers of
// detection, in order: known quote-container selectors, a bare trailing
// blockquote, and text sentinels whose nearest block ancestor is removed.

// quoteSelectors identify known quote-container elements by class. Ordered,
// open list; new client quirks are additive.
var quoteSelectors = []struct {
	name  string
	match func(n *html.Node) bool
}{
	{"gmail", func(n *html.Node) bool { return hasClassToken(n, "gmail_quote") }},
	{"outlook", func(n *html.Node) bool { return hasClassToken(n, "OutlookMessageHeader") }},
	{"generic", func(n *html.Node) bool {
		return strings.Contains(strings.ToLower(attrValue(n, "class")), "quote")
	}},
}

// quoteSentinels match text nodes that introduce quoted or forwarded history.
var quoteSentinels = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*on .+wrote:\s*$`),
	regexp.MustCompile(`(?i)^\s*-{2,}\s*original message\s*-{2,}\s*$`),
	regexp.MustCompile(`(?i)^\s*sent:\s`),
	regexp.MustCompile(`(?i)^\s*from:\s`),
}

// blockAncestorAtoms are the elements a sentinel match may remove.
var blockAncestorAtoms = map[atom.Atom]bool{
	atom.Div:        true,
	atom.P:          true,
	atom.Blockquote: true,
	atom.Section:    true,
}

// ExtractQuotes removes quoted/forwarded history from an HTML fragment so a
// reply draft does not duplicate prior conversation. The input is parsed into
// an owned node tree, mutated in a single pass and re-serialized. When nothing
// matches, the input is returned byte-for-byte unchanged.
func ExtractQuotes(fragment string) string {
	body := parseFragmentBody(fragment)
	if body == nil {
		return fragment
	}

	changed := false

	// Known quote containers, subtree and all.
	for _, n := range collectElements(body, matchesQuoteSelector) {
		n.Parent.RemoveChild(n)
		changed = true
	}

	// Clients that wrap history in a bare, unclassed blockquote at the end.
	// Repeat so stacked trailing blockquotes cannot survive one pass.
	for {
		last := lastElementChild(body)
		if last == nil || last.DataAtom != atom.Blockquote {
			break
		}
		body.RemoveChild(last)
		changed = true
	}

	// Text sentinels: remove the nearest block ancestor of each match. A
	// match with no qualifying ancestor is an acknowledged miss.
	marked := make(map[*html.Node]struct{})
	walkTextNodes(body, func(t *html.Node) {
		if !matchesQuoteSentinel(t.Data) {
			return
		}
		if anc := blockAncestor(t, body); anc != nil {
			marked[anc] = struct{}{}
		}
	})
	for n := range marked {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
			changed = true
		}
	}

	if !changed {
		return fragment
	}
	return renderChildren(body)
}

// HasQuotes reports whether ExtractQuotes would remove anything, without
// touching the input. HasQuotes(x) == false guarantees ExtractQuotes(x) == x.
func HasQuotes(fragment string) bool {
	body := parseFragmentBody(fragment)
	if body == nil {
		return false
	}

	if len(collectElements(body, matchesQuoteSelector)) > 0 {
		return true
	}

	if last := lastElementChild(body); last != nil && last.DataAtom == atom.Blockquote {
		return true
	}

	found := false
	walkTextNodes(body, func(t *html.Node) {
		if found || !matchesQuoteSentinel(t.Data) {
			return
		}
		if blockAncestor(t, body) != nil {
			found = true
		}
	})
	return found
}

func matchesQuoteSelector(n *html.Node) bool {
	for _, sel := range quoteSelectors {
		if sel.match(n) {
			return true
		}
	}
	return false
}

func matchesQuoteSentinel(text string) bool {
	for _, re := range quoteSentinels {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// blockAncestor returns the nearest div/p/blockquote/section ancestor of n,
// stopping below the fragment root.
func blockAncestor(n, root *html.Node) *html.Node {
	for p := n.Parent; p != nil && p != root; p = p.Parent {
		if p.Type == html.ElementNode && blockAncestorAtoms[p.DataAtom] {
			return p
		}
	}
	return nil
}

// parseFragmentBody parses an HTML fragment in body context and returns an
// owned root element holding its content. Parsing in fragment context keeps
// style and friends inline instead of hoisting them into a synthetic head.
// x/net/html tolerates arbitrary malformed input.
func parseFragmentBody(fragment string) *html.Node {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil
	}
	root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root
}

// collectElements gathers matching element nodes in document order. Matched
// subtrees are not descended into; removing the root removes it all.
func collectElements(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && match(c) {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func walkTextNodes(root *html.Node, fn func(*html.Node)) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				fn(c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
}

// lastElementChild returns the last child element, skipping whitespace-only
// text nodes.
func lastElementChild(n *html.Node) *html.Node {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		switch c.Type {
		case html.ElementNode:
			return c
		case html.TextNode:
			if strings.TrimSpace(c.Data) == "" {
				continue
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

func hasClassToken(n *html.Node, token string) bool {
	for _, f := range strings.Fields(attrValue(n, "class")) {
		if f == token {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderChildren(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&buf, c)
	}
	return buf.String()
}
