// Package render turns the current document markup into the textual block
// shown after each command: optional text simplification, a hard character
// budget, and the current URL as a header.
package render

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Mode selects how document content is presented.
type Mode string

const (
	ModeHTML Mode = "html"
	ModeText Mode = "text"
)

// ParseMode validates a user-supplied mode token.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(s)) {
	case ModeHTML:
		return ModeHTML, true
	case ModeText:
		return ModeText, true
	default:
		return "", false
	}
}

// DefaultBudget matches the historical per-render cap.
const DefaultBudget = 200000

// Renderer holds the current mode and the fixed character budget. It always
// reflects the main document; commands aimed at a child frame do not change
// what gets rendered.
type Renderer struct {
	mode   Mode
	budget int
}

func New(mode Mode, budget int) *Renderer {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Renderer{mode: mode, budget: budget}
}

func (r *Renderer) Mode() Mode { return r.mode }

func (r *Renderer) SetMode(mode Mode) { r.mode = mode }

func (r *Renderer) Budget() int { return r.budget }

// Render produces the final output for one command: the content in the
// current mode, clipped to the budget with an omitted-count marker.
func (r *Renderer) Render(markup string) string {
	out := markup
	if r.mode == ModeText {
		out = SimplifyHTML(markup)
	}
	return Clip(out, r.budget)
}

// Header is the contextual line printed above every render.
func Header(url string) string {
	return "URL: " + url
}

// Clip truncates s to budget characters and appends a marker naming exactly
// how many characters were dropped. The budget counts runes, not bytes, so
// multibyte content is never cut mid-character.
func Clip(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	omitted := len(runes) - budget
	return string(runes[:budget]) + fmt.Sprintf("\n\n[... clipped %d chars ...]", omitted)
}

// SimplifyHTML strips script/style/noscript content and flattens the rest to
// visible text: one trimmed, whitespace-collapsed line per text block, empty
// lines dropped. Unparseable markup is returned unchanged.
func SimplifyHTML(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	doc.Find("script, style, noscript").Remove()
	var lines []string
	for _, root := range doc.Selection.Nodes {
		collectText(root, &lines)
	}
	return strings.Join(lines, "\n")
}

func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if line := strings.Join(strings.Fields(n.Data), " "); line != "" {
			*lines = append(*lines, line)
		}
		return
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}
