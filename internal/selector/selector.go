// Package selector classifies raw selector strings as CSS or XPath and
// produces the engine-ready form.
package selector

import "strings"

// Kind tags how a selector should be interpreted by the engine.
type Kind int

const (
	KindCSS Kind = iota
	KindXPath
)

func (k Kind) String() string {
	if k == KindXPath {
		return "xpath"
	}
	return "css"
}

// Selector carries the raw user token and the engine-ready form. XPath
// selectors get the "xpath=" marker the engine expects; CSS passes through
// unchanged. No syntax validation happens here; a malformed selector is
// rejected by the engine at execution time.
type Selector struct {
	Raw    string
	Engine string
	Kind   Kind
}

// Normalize trims the raw string and tags it. A selector is XPath iff it
// starts with "//" or "./"; everything else is CSS.
func Normalize(raw string) Selector {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "./") {
		return Selector{Raw: trimmed, Engine: "xpath=" + trimmed, Kind: KindXPath}
	}
	return Selector{Raw: trimmed, Engine: trimmed, Kind: KindCSS}
}
