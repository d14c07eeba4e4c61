// Package command parses raw input lines into verbs and shaped arguments.
//
// Several verbs accept a selector that may itself contain whitespace, plus
// optional trailing modifiers (an index, a state name, a timeout). Those
// shapes are parsed by reclaiming tokens from the right: a trailing token is
// consumed as a modifier only when it matches the expected form and was not
// quoted, and whatever remains joins back into the selector.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Defaults for reclaimed modifiers.
const (
	DefaultWaitForState   = "visible"
	DefaultWaitForTimeout = 10000
	DefaultListLimit      = 20
)

// ErrEmpty marks a blank input line; the REPL skips it silently.
var ErrEmpty = errors.New("empty command")

// SyntaxError covers unknown verbs and malformed argument lists. It carries
// the offending line so the report can echo it back.
type SyntaxError struct {
	Line   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("unknown or malformed command: %s (%s)", e.Line, e.Reason)
}

// States accepted by waitfor.
var waitStates = map[string]bool{
	"attached": true,
	"detached": true,
	"visible":  true,
	"hidden":   true,
}

// Command is one parsed input line: the lowercased verb, its argument
// tokens, and the raw text after the verb (eval needs the unsplit form).
type Command struct {
	Verb string
	Line string
	Rest string
	Args []Token
}

// Parse tokenizes a line and extracts the verb. Shape validation happens in
// the per-verb accessors so a malformed tail can still echo the full line.
func Parse(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{}, ErrEmpty
	}
	tokens, err := Tokenize(trimmed)
	if err != nil {
		return Command{}, &SyntaxError{Line: trimmed, Reason: err.Error()}
	}
	if len(tokens) == 0 {
		return Command{}, ErrEmpty
	}
	rest := ""
	if idx := strings.IndexFunc(trimmed, unicode.IsSpace); idx >= 0 {
		rest = strings.TrimSpace(trimmed[idx:])
	}
	return Command{
		Verb: strings.ToLower(tokens[0].Text),
		Line: trimmed,
		Rest: rest,
		Args: tokens[1:],
	}, nil
}

func (c Command) syntaxErr(reason string) error {
	return &SyntaxError{Line: c.Line, Reason: reason}
}

// GotoArgs returns the url argument joined from all tokens.
func (c Command) GotoArgs() (string, error) {
	if len(c.Args) == 0 {
		return "", c.syntaxErr("goto needs a url")
	}
	return joinTexts(c.Args), nil
}

// ClickArgs reclaims a trailing numeric token as the 0-based element index;
// the rest joins into the selector. Index -1 means "first match".
func (c Command) ClickArgs() (sel string, nth int, err error) {
	if len(c.Args) == 0 {
		return "", 0, c.syntaxErr("click needs a selector")
	}
	nth = -1
	args := c.Args
	if len(args) >= 2 && numeric(args[len(args)-1]) {
		nth, _ = strconv.Atoi(args[len(args)-1].Text)
		args = args[:len(args)-1]
	}
	return joinTexts(args), nth, nil
}

// TypeArgs splits "type <selector> <text>": first token is the selector,
// the rest joins into the text.
func (c Command) TypeArgs() (sel, text string, err error) {
	if len(c.Args) < 2 {
		return "", "", c.syntaxErr("type needs a selector and text")
	}
	return c.Args[0].Text, joinTexts(c.Args[1:]), nil
}

// SelectArgs splits "select <selector> <value>" the same way as type.
func (c Command) SelectArgs() (sel, value string, err error) {
	if len(c.Args) < 2 {
		return "", "", c.syntaxErr("select needs a selector and value")
	}
	return c.Args[0].Text, joinTexts(c.Args[1:]), nil
}

// PressArgs distinguishes page-level from element-level key dispatch:
// exactly one token is a bare key; with more, the first token is the
// selector and the rest joins into the key name.
func (c Command) PressArgs() (sel, key string, err error) {
	switch {
	case len(c.Args) == 0:
		return "", "", c.syntaxErr("press needs a key")
	case len(c.Args) == 1:
		return "", c.Args[0].Text, nil
	default:
		return c.Args[0].Text, joinTexts(c.Args[1:]), nil
	}
}

// WaitForArgs scans from the right: a trailing numeric token is the timeout
// in ms, the token before it (or the trailing one, if no timeout) is the
// state when it names one; everything left joins into the selector.
func (c Command) WaitForArgs() (sel, state string, timeoutMS int, err error) {
	if len(c.Args) == 0 {
		return "", "", 0, c.syntaxErr("waitfor needs a selector")
	}
	state = DefaultWaitForState
	timeoutMS = DefaultWaitForTimeout
	args := c.Args
	if len(args) >= 2 && numeric(args[len(args)-1]) {
		timeoutMS, _ = strconv.Atoi(args[len(args)-1].Text)
		args = args[:len(args)-1]
	}
	if len(args) >= 2 {
		last := args[len(args)-1]
		if !last.Quoted && waitStates[strings.ToLower(last.Text)] {
			state = strings.ToLower(last.Text)
			args = args[:len(args)-1]
		}
	}
	return joinTexts(args), state, timeoutMS, nil
}

// ListArgs reclaims a trailing numeric token as the report cap.
func (c Command) ListArgs() (sel string, limit int, err error) {
	if len(c.Args) == 0 {
		return "", 0, c.syntaxErr("list needs a selector")
	}
	limit = DefaultListLimit
	args := c.Args
	if len(args) >= 2 && numeric(args[len(args)-1]) {
		limit, _ = strconv.Atoi(args[len(args)-1].Text)
		args = args[:len(args)-1]
	}
	return joinTexts(args), limit, nil
}

// WaitArgs parses the pure-delay duration.
func (c Command) WaitArgs() (ms int, err error) {
	if len(c.Args) != 1 || !numeric(c.Args[0]) {
		return 0, c.syntaxErr("wait needs a millisecond count")
	}
	ms, _ = strconv.Atoi(c.Args[0].Text)
	return ms, nil
}

// ViewArgs returns the requested render mode, empty when absent.
func (c Command) ViewArgs() string {
	if len(c.Args) == 0 {
		return ""
	}
	return strings.ToLower(c.Args[0].Text)
}

// FrameToken returns the useframe argument.
func (c Command) FrameToken() (string, error) {
	if len(c.Args) == 0 {
		return "", c.syntaxErr("useframe needs an index, name= or url= token")
	}
	return joinTexts(c.Args), nil
}

// PathArg returns a single filesystem path argument.
func (c Command) PathArg() (string, error) {
	if len(c.Args) == 0 {
		return "", c.syntaxErr("savestate needs a path")
	}
	return joinTexts(c.Args), nil
}
