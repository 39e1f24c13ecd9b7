package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skippedElements never contribute rendered text.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Noscript: true,
	atom.Head:     true,
}

// blockElements start and end on their own line.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true, atom.Ol: true,
	atom.Pre: true, atom.Section: true, atom.Table: true, atom.Tr: true, atom.Ul: true,
}

// Break markers written between blocks. Adjacent markers merge into the
// largest line break they ask for.
const (
	blockBreak = '\uE000'
	paraBreak  = '\uE001'
)

// innerText approximates the browser's innerText for a selection taken
// from a DOM snapshot: whitespace inside text runs collapses to one space,
// <br> and block boundaries become line breaks, paragraphs are separated
// by a blank line, and script or style content is dropped. The result is
// trimmed line by line.
func innerText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		writeInnerText(&b, n)
	}
	return normalizeLines(resolveBreaks(b.String()))
}

func writeInnerText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(collapseSpace(n.Data))
		return
	case html.ElementNode:
		if skippedElements[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	var mark rune
	switch {
	case n.DataAtom == atom.P:
		mark = paraBreak
	case blockElements[n.DataAtom]:
		mark = blockBreak
	}

	if mark != 0 {
		b.WriteRune(mark)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeInnerText(b, c)
	}
	if mark != 0 {
		b.WriteRune(mark)
	}
}

// resolveBreaks turns runs of break markers into newlines. Spaces next to
// a break are dropped and breaks at either end of the text vanish.
func resolveBreaks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := 0
	started := false
	for _, r := range s {
		switch r {
		case blockBreak:
			pending = max(pending, 1)
		case paraBreak:
			pending = max(pending, 2)
		case ' ':
			if pending == 0 {
				b.WriteByte(' ')
			}
		default:
			if pending > 0 && started {
				b.WriteString(strings.Repeat("\n", pending))
			}
			pending = 0
			started = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseSpace replaces runs of HTML whitespace with a single space.
// Non-breaking spaces are content and are kept.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
		default:
			b.WriteRune(r)
			inSpace = false
		}
	}
	return b.String()
}

// normalizeLines trims spaces at both ends of every line and blank lines
// at both ends of the text.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Trim(line, " ")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}
