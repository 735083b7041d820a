package pipeline

import (
	"bytes"
	stdhtml "html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// trackingPathSegment appears in the src of open-tracking pixels injected by
// outbound mail; any img pointing back at it is dropped on display.
const trackingPathSegment = "/api/track/"

// cidImageRe matches attachment filenames of the form <cid>.<image-ext>,
// the shape mail clients give inline images referenced as cid: URLs.
var cidImageRe = regexp.MustCompile(`(?i)^(.+)\.(png|jpe?g|gif|webp|bmp|svg)$`)

// renderPolicy is the allow-list sanitization policy for displaying stored
// email HTML. Built once; bluemonday policies are safe for concurrent use.
//
// style elements and the target/style/loading/class attributes are allowed on
// purpose: embedded CSS and language-tagged code blocks need them. data-*
// attributes stay denied (bluemonday's default).
var renderPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("style")
	p.AllowAttrs("target", "style", "loading", "class").Globally()
	return p
}()

// AttachmentURLResolver maps an attachment to the URL the UI serves it from.
// The pipeline only substitutes URLs; it never touches storage.
type AttachmentURLResolver func(Attachment) string

// Render produces safe, display-ready HTML for a stored message body. Stored
// HTML is treated as attacker-influenced: CID references are resolved, the
// result is sanitized, tracking pixels dropped, images annotated for lazy
// loading and tagged code blocks enhanced. Without HTML the plaintext body is
// escaped with newlines as line breaks.
func Render(body, bodyHTML string, attachments []Attachment, resolve AttachmentURLResolver, hl *Highlighter) string {
	if bodyHTML == "" {
		escaped := stdhtml.EscapeString(body)
		return strings.ReplaceAll(escaped, "\n", "<br>\n")
	}

	bodyHTML = resolveCIDs(bodyHTML, attachments, resolve)
	sanitized := renderPolicy.Sanitize(bodyHTML)

	root := parseFragmentBody(sanitized)
	if root == nil {
		return sanitized
	}

	for _, img := range collectElements(root, isTrackingPixel) {
		img.Parent.RemoveChild(img)
	}
	for _, img := range collectElements(root, isElement(atom.Img)) {
		setAttr(img, "loading", "lazy")
		setAttr(img, "decoding", "async")
	}
	enhanceCodeBlocks(root, hl)

	return renderChildren(root)
}

// resolveCIDs replaces cid: references with resolvable attachment URLs for
// every attachment named like an inline image.
func resolveCIDs(bodyHTML string, attachments []Attachment, resolve AttachmentURLResolver) string {
	if resolve == nil {
		return bodyHTML
	}
	for _, att := range attachments {
		m := cidImageRe.FindStringSubmatch(att.Filename)
		if m == nil {
			continue
		}
		cid := m[1]
		if strings.Contains(bodyHTML, "cid:"+cid) {
			bodyHTML = strings.ReplaceAll(bodyHTML, "cid:"+cid, resolve(att))
		}
	}
	return bodyHTML
}

func isTrackingPixel(n *html.Node) bool {
	if n.DataAtom != atom.Img {
		return false
	}
	if strings.Contains(attrValue(n, "src"), trackingPathSegment) {
		return true
	}
	return attrValue(n, "width") == "1" && attrValue(n, "height") == "1"
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a }
}

// enhanceCodeBlocks upgrades <pre><code class="language-X"> blocks: markdown
// is rendered (and re-sanitized), registered languages are syntax-highlighted.
func enhanceCodeBlocks(root *html.Node, hl *Highlighter) {
	for _, pre := range collectElements(root, isElement(atom.Pre)) {
		code := firstElementChild(pre)
		if code == nil || code.DataAtom != atom.Code {
			continue
		}
		lang := languageTag(code)
		if lang == "" {
			continue
		}
		source := textContent(code)

		if strings.EqualFold(lang, "markdown") {
			var buf bytes.Buffer
			if err := goldmark.Convert([]byte(source), &buf); err != nil {
				continue
			}
			rendered := renderPolicy.Sanitize(buf.String())
			replaceWithFragment(pre, rendered)
			continue
		}

		if highlighted, ok := hl.Highlight(lang, source); ok {
			setChildrenFromFragment(code, highlighted)
			setAttr(pre, "class", strings.TrimSpace(attrValue(pre, "class")+" language-"+lang))
		}
	}
}

func languageTag(code *html.Node) string {
	for _, f := range strings.Fields(attrValue(code, "class")) {
		if rest, ok := strings.CutPrefix(f, "language-"); ok {
			return rest
		}
	}
	return ""
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var buf bytes.Buffer
	walkTextNodes(n, func(t *html.Node) { buf.WriteString(t.Data) })
	return buf.String()
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// parseChildFragment parses markup in the context of the given parent element.
func parseChildFragment(markup string, parent *html.Node) []*html.Node {
	ctx := &html.Node{Type: html.ElementNode, Data: parent.Data, DataAtom: parent.DataAtom}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil
	}
	return nodes
}

func replaceWithFragment(n *html.Node, markup string) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for _, repl := range parseChildFragment(markup, parent) {
		parent.InsertBefore(repl, n)
	}
	parent.RemoveChild(n)
}

func setChildrenFromFragment(n *html.Node, markup string) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	for _, c := range parseChildFragment(markup, n) {
		n.AppendChild(c)
	}
}
