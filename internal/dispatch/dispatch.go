// Package dispatch maps parsed commands onto browser actions and shapes the
// result of each one. Every failure below session start is caught here and
// reported as a regular outcome; nothing in this package ends the session.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/polzovatel/console-browser/internal/browser"
	"github.com/polzovatel/console-browser/internal/command"
	"github.com/polzovatel/console-browser/internal/render"
	"github.com/polzovatel/console-browser/internal/selector"
	"github.com/polzovatel/console-browser/internal/ui"
)

// Outcome is the uniform result of one command line.
type Outcome struct {
	Kind  ui.Kind
	Title string
	Body  string
	// Render asks the loop to re-dump the page after showing the panel.
	Render bool
	// Quit ends the session cleanly.
	Quit bool
}

func success(title, body string) Outcome {
	return Outcome{Kind: ui.KindSuccess, Title: title, Body: body}
}

func failure(title string, err error) Outcome {
	return Outcome{Kind: ui.KindError, Title: title, Body: err.Error()}
}

// Dispatcher executes commands against the driver, one at a time. The only
// state it mutates besides the driver's active target is the render mode.
type Dispatcher struct {
	driver   browser.Driver
	renderer *render.Renderer
	logger   zerolog.Logger
}

func New(driver browser.Driver, renderer *render.Renderer, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{driver: driver, renderer: renderer, logger: logger}
}

// Execute parses and runs one input line. Blank lines yield a zero Outcome
// with an empty title, which the loop skips.
func (d *Dispatcher) Execute(ctx context.Context, line string) Outcome {
	cmd, err := command.Parse(line)
	if errors.Is(err, command.ErrEmpty) {
		return Outcome{}
	}
	if err != nil {
		return d.malformed(line, err)
	}
	d.logger.Debug().Str("verb", cmd.Verb).Msg("dispatch")

	switch cmd.Verb {
	case "exit", "quit", ":q":
		return Outcome{Kind: ui.KindInfo, Title: "exit", Body: "bye", Quit: true}
	case "help", "h", "?":
		return Outcome{Kind: ui.KindInfo, Title: "help", Body: Usage()}
	case "goto":
		return d.goTo(ctx, cmd)
	case "back":
		return d.history(ctx, "back", d.driver.GoBack, "No previous page in history")
	case "forward":
		return d.history(ctx, "forward", d.driver.GoForward, "No forward page in history")
	case "reload":
		return d.reload(ctx)
	case "click":
		return d.click(ctx, cmd)
	case "type":
		return d.typeInto(ctx, cmd)
	case "fill":
		return d.fill(ctx, cmd)
	case "select":
		return d.selectOption(ctx, cmd)
	case "press":
		return d.press(ctx, cmd)
	case "waitfor":
		return d.waitFor(ctx, cmd)
	case "list":
		return d.list(ctx, cmd)
	case "eval":
		return d.eval(ctx, cmd)
	case "view":
		return d.view(cmd)
	case "wait":
		return d.wait(ctx, cmd)
	case "title":
		return d.title(ctx)
	case "url":
		return success("url", d.driver.URL())
	case "frames":
		return d.frames(ctx)
	case "useframe":
		return d.useFrame(ctx, cmd)
	case "usemainframe":
		d.driver.UseMainFrame()
		return success("usemainframe", "Active target reset to main document")
	case "savestate":
		return d.saveState(ctx, cmd)
	default:
		return d.malformed(cmd.Line, fmt.Errorf("unknown verb %q", cmd.Verb))
	}
}

func (d *Dispatcher) malformed(line string, err error) Outcome {
	return Outcome{
		Kind:  ui.KindError,
		Title: "error",
		Body:  fmt.Sprintf("Unknown or malformed command: %s\n%s\n\n%s", line, err, Usage()),
	}
}

func (d *Dispatcher) goTo(ctx context.Context, cmd command.Command) Outcome {
	rawURL, err := cmd.GotoArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	res, err := d.driver.Navigate(ctx, rawURL)
	if err != nil {
		return failure("error", fmt.Errorf("failed to navigate to %s: %w", rawURL, err))
	}
	status := "-"
	if res.HasStatus {
		status = fmt.Sprintf("%d", res.Status)
	}
	out := success("goto", fmt.Sprintf("Navigated to %s (status: %s)", res.URL, status))
	out.Render = true
	return out
}

func (d *Dispatcher) history(ctx context.Context, verb string, move func(context.Context) (bool, error), noEntry string) Outcome {
	moved, err := move(ctx)
	if err != nil {
		return failure("error", fmt.Errorf("failed to go %s: %w", verb, err))
	}
	out := success(verb, "")
	if !moved {
		out.Kind = ui.KindWarn
		out.Body = noEntry
	}
	out.Render = true
	return out
}

func (d *Dispatcher) reload(ctx context.Context) Outcome {
	if err := d.driver.Reload(ctx); err != nil {
		return failure("error", fmt.Errorf("failed to reload: %w", err))
	}
	out := success("reload", "")
	out.Render = true
	return out
}

func (d *Dispatcher) click(ctx context.Context, cmd command.Command) Outcome {
	raw, nth, err := cmd.ClickArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	sel := selector.Normalize(raw)
	navigated, err := d.driver.Click(ctx, sel, nth)
	if err != nil {
		return failure("error", fmt.Errorf("failed to click %s: %w", sel.Raw, err))
	}
	body := "click " + sel.Raw
	if nth >= 0 {
		body = fmt.Sprintf("click %s %d", sel.Raw, nth)
	}
	if navigated {
		body += " (navigated)"
	}
	out := success("click", body)
	out.Render = true
	return out
}

func (d *Dispatcher) typeInto(ctx context.Context, cmd command.Command) Outcome {
	raw, text, err := cmd.TypeArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	sel := selector.Normalize(raw)
	if err := d.driver.TypeInto(ctx, sel, text); err != nil {
		return failure("error", fmt.Errorf("failed to type into %s: %w", sel.Raw, err))
	}
	out := success("type", fmt.Sprintf("typed into %s: %s", sel.Raw, text))
	out.Render = true
	return out
}

func (d *Dispatcher) fill(ctx context.Context, cmd command.Command) Outcome {
	raw, text, err := cmd.TypeArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	sel := selector.Normalize(raw)
	if err := d.driver.Fill(ctx, sel, text); err != nil {
		return failure("error", fmt.Errorf("failed to fill %s: %w", sel.Raw, err))
	}
	out := success("fill", fmt.Sprintf("filled %s: %s", sel.Raw, text))
	out.Render = true
	return out
}

func (d *Dispatcher) selectOption(ctx context.Context, cmd command.Command) Outcome {
	raw, value, err := cmd.SelectArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	sel := selector.Normalize(raw)
	if err := d.driver.SelectOption(ctx, sel, value); err != nil {
		return failure("error", fmt.Errorf("failed to select %q in %s: %w", value, sel.Raw, err))
	}
	out := success("select", fmt.Sprintf("selected %q in %s", value, sel.Raw))
	out.Render = true
	return out
}

func (d *Dispatcher) press(ctx context.Context, cmd command.Command) Outcome {
	rawSel, key, err := cmd.PressArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	if rawSel == "" {
		if err := d.driver.PressKey(ctx, key); err != nil {
			return failure("error", fmt.Errorf("failed to press %s: %w", key, err))
		}
		out := success("press", fmt.Sprintf("pressed %s (page)", key))
		out.Render = true
		return out
	}
	sel := selector.Normalize(rawSel)
	if err := d.driver.PressOn(ctx, sel, key); err != nil {
		return failure("error", fmt.Errorf("failed to press %s on %s: %w", key, sel.Raw, err))
	}
	out := success("press", fmt.Sprintf("pressed %s on %s", key, sel.Raw))
	out.Render = true
	return out
}

func (d *Dispatcher) waitFor(ctx context.Context, cmd command.Command) Outcome {
	raw, state, timeoutMS, err := cmd.WaitForArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	sel := selector.Normalize(raw)
	timeout := time.Duration(timeoutMS) * time.Millisecond
	if err := d.driver.WaitFor(ctx, sel, state, timeout); err != nil {
		return failure("error", fmt.Errorf("waitfor %s %s %dms: %w", sel.Raw, state, timeoutMS, err))
	}
	out := success("waitfor", fmt.Sprintf("%s reached state %s", sel.Raw, state))
	out.Render = true
	return out
}

func (d *Dispatcher) list(ctx context.Context, cmd command.Command) Outcome {
	raw, limit, err := cmd.ListArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	sel := selector.Normalize(raw)
	report, err := d.driver.DescribeElements(ctx, sel, limit)
	if err != nil {
		return failure("error", fmt.Errorf("failed to list %s: %w", sel.Raw, err))
	}
	return success("list", formatReport(sel.Raw, report))
}

func formatReport(rawSel string, report browser.ElementReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d match(es) for %s", report.Total, rawSel)
	if len(report.Items) < report.Total {
		fmt.Fprintf(&b, " (showing %d)", len(report.Items))
	}
	for i, el := range report.Items {
		fmt.Fprintf(&b, "\n%d) <%s", i, el.Tag)
		if el.ID != "" {
			fmt.Fprintf(&b, " id=%q", el.ID)
		}
		if el.Classes != "" {
			fmt.Fprintf(&b, " class=%q", el.Classes)
		}
		if el.Type != "" {
			fmt.Fprintf(&b, " type=%q", el.Type)
		}
		if el.Name != "" {
			fmt.Fprintf(&b, " name=%q", el.Name)
		}
		if el.Href != "" {
			fmt.Fprintf(&b, " href=%q", el.Href)
		}
		b.WriteString(">")
		if el.Text != "" {
			fmt.Fprintf(&b, " %s", el.Text)
		}
	}
	return b.String()
}

func (d *Dispatcher) eval(ctx context.Context, cmd command.Command) Outcome {
	if strings.TrimSpace(cmd.Rest) == "" {
		return d.malformed(cmd.Line, fmt.Errorf("eval needs an expression"))
	}
	result, err := d.driver.Evaluate(ctx, cmd.Rest)
	if err != nil {
		return failure("error", fmt.Errorf("failed to eval: %w", err))
	}
	out := success("eval", result)
	out.Render = true
	return out
}

func (d *Dispatcher) view(cmd command.Command) Outcome {
	mode, ok := render.ParseMode(cmd.ViewArgs())
	if !ok {
		return Outcome{
			Kind:   ui.KindWarn,
			Title:  "view",
			Body:   fmt.Sprintf("Usage: view [html|text] (current: %s)", d.renderer.Mode()),
			Render: true,
		}
	}
	d.renderer.SetMode(mode)
	out := success("view", fmt.Sprintf("Render mode set to %s", mode))
	out.Render = true
	return out
}

func (d *Dispatcher) wait(ctx context.Context, cmd command.Command) Outcome {
	ms, err := cmd.WaitArgs()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	select {
	case <-ctx.Done():
		return failure("error", ctx.Err())
	case <-time.After(time.Duration(ms) * time.Millisecond):
	}
	out := success("wait", fmt.Sprintf("waited %dms", ms))
	out.Render = true
	return out
}

func (d *Dispatcher) title(ctx context.Context) Outcome {
	title, err := d.driver.Title(ctx)
	if err != nil {
		return failure("error", fmt.Errorf("failed to read title: %w", err))
	}
	return success("title", title)
}

func (d *Dispatcher) frames(ctx context.Context) Outcome {
	snap, err := d.driver.Frames(ctx)
	if err != nil {
		return failure("error", fmt.Errorf("failed to list frames: %w", err))
	}
	var b strings.Builder
	marker := ""
	if snap.MainActive {
		marker = "  * active"
	}
	fmt.Fprintf(&b, "main) %s%s", snap.MainURL, marker)
	for _, fr := range snap.Children {
		marker = ""
		if fr.Active {
			marker = "  * active"
		}
		fmt.Fprintf(&b, "\n%d) name=%q url=%s%s", fr.Index, fr.Name, fr.URL, marker)
	}
	return success("frames", b.String())
}

func (d *Dispatcher) useFrame(ctx context.Context, cmd command.Command) Outcome {
	token, err := cmd.FrameToken()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	info, err := d.driver.UseFrame(ctx, token)
	if err != nil {
		return failure("error", fmt.Errorf("useframe %s: %w", token, err))
	}
	return success("useframe", fmt.Sprintf("Active target is now frame %d (name=%q url=%s)", info.Index, info.Name, info.URL))
}

func (d *Dispatcher) saveState(ctx context.Context, cmd command.Command) Outcome {
	path, err := cmd.PathArg()
	if err != nil {
		return d.malformed(cmd.Line, err)
	}
	if err := d.driver.SaveState(ctx, path); err != nil {
		return failure("error", fmt.Errorf("failed to save state: %w", err))
	}
	return success("savestate", "storage state saved to "+path)
}

// Usage lists every command; the error panel for a malformed line includes
// it so the operator never has to guess.
func Usage() string {
	return strings.TrimSpace(`
Commands:
  - goto <url>                       : navigate to a URL (bare domains get https://)
  - back / forward                   : move through history
  - reload                           : reload current page
  - click <selector> [nth]           : click element by CSS or XPath; optional 0-based index
  - type <selector> <text>           : focus element and type text with key events
  - fill <selector> <text>           : set element value directly
  - select <selector> <value>        : choose an option in a select control
  - press <key>                      : send a key at page level (e.g. Enter)
  - press <selector> <key>           : send a key to an element
  - waitfor <selector> [state] [ms]  : wait for attached|detached|visible|hidden (default visible, 10000ms)
  - list <selector> [limit]          : enumerate matching elements (default limit 20, 0 = no limit)
  - eval <js>                        : evaluate JavaScript in the active target
  - view [html|text]                 : switch render mode
  - wait <ms>                        : pause for milliseconds
  - title / url                      : main document metadata
  - frames                           : list frames with the active one marked
  - useframe <token>                 : target a frame by index, name=, url= or bare token
  - usemainframe                     : target the main document again
  - savestate <path>                 : write cookies/localStorage to a JSON file
  - help                             : show this help
  - exit                             : quit

Selector notes:
  - CSS examples: a#login, button.submit, input[name="q"]
  - XPath examples: //a[contains(., 'Next')], (//button)[1]
  - Quote arguments containing spaces; quoting also stops a trailing number
    or state word from being read as an index/state/timeout.
`)
}
