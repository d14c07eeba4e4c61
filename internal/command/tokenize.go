package command

import (
	"fmt"
	"strings"
	"unicode"
)

// Token is one shell-style word from an input line. Quoted tokens are never
// reclaimed as trailing indexes, states or timeouts, which gives the operator
// an escape hatch for selectors that end in something numeric.
type Token struct {
	Text   string
	Quoted bool
}

// Tokenize splits a line the way a POSIX shell would: whitespace separates
// words, single and double quotes group them, backslash escapes the next
// character outside single quotes.
func Tokenize(line string) ([]Token, error) {
	var (
		tokens  []Token
		current strings.Builder
		quoted  bool
		started bool
	)
	runes := []rune(line)
	i := 0
	flush := func() {
		if !started {
			return
		}
		tokens = append(tokens, Token{Text: current.String(), Quoted: quoted})
		current.Reset()
		quoted = false
		started = false
	}
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '\\':
			if i+1 >= len(runes) {
				return nil, fmt.Errorf("trailing backslash")
			}
			current.WriteRune(runes[i+1])
			started = true
			i += 2
		case r == '\'' || r == '"':
			mark := r
			i++
			start := i
			for i < len(runes) && runes[i] != mark {
				if mark == '"' && runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				i++
			}
			if i >= len(runes) {
				return nil, fmt.Errorf("unclosed %c quote", mark)
			}
			segment := string(runes[start:i])
			if mark == '"' {
				segment = unescape(segment)
			}
			current.WriteString(segment)
			quoted = true
			started = true
			i++
		case unicode.IsSpace(r):
			flush()
			i++
		default:
			current.WriteRune(r)
			started = true
			i++
		}
	}
	flush()
	return tokens, nil
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

func joinTexts(tokens []Token) string {
	return strings.Join(texts(tokens), " ")
}

// numeric reports whether the token may be reclaimed as a number: unquoted
// and made of digits only.
func numeric(t Token) bool {
	if t.Quoted || t.Text == "" {
		return false
	}
	for _, r := range t.Text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
