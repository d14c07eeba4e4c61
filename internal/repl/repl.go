// Package repl runs the strictly sequential command loop: read one line,
// fully resolve it against the engine, render, then accept the next. No two
// actions ever run concurrently against the session.
package repl

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/polzovatel/console-browser/internal/browser"
	"github.com/polzovatel/console-browser/internal/dispatch"
	"github.com/polzovatel/console-browser/internal/render"
	"github.com/polzovatel/console-browser/internal/ui"
)

// Loop wires input, dispatch and rendering together.
type Loop struct {
	driver   browser.Driver
	disp     *dispatch.Dispatcher
	renderer *render.Renderer
	out      *ui.Writer
	in       io.Reader
	logger   zerolog.Logger
}

func New(driver browser.Driver, disp *dispatch.Dispatcher, renderer *render.Renderer, out *ui.Writer, in io.Reader, logger zerolog.Logger) *Loop {
	return &Loop{driver: driver, disp: disp, renderer: renderer, out: out, in: in, logger: logger}
}

// Preload runs one command before the loop starts, panel only; the loop's
// own initial render follows right after.
func (l *Loop) Preload(ctx context.Context, line string) {
	outcome := l.disp.Execute(ctx, line)
	if outcome.Title != "" {
		l.out.Panel(outcome.Kind, outcome.Title, outcome.Body)
	}
}

// Run renders the initial page, then serves commands until exit, EOF or a
// context interrupt. With a preloaded command it runs that one line and
// returns.
func (l *Loop) Run(ctx context.Context, once string) error {
	l.renderPage(ctx)

	if strings.TrimSpace(once) != "" {
		l.execute(ctx, once)
		return nil
	}

	lines := make(chan string)
	readErrs := make(chan error, 1)
	reader := bufio.NewReader(l.in)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				readErrs <- err
				return
			}
			lines <- line
		}
	}()

	for {
		l.out.Prompt(l.driver.URL())
		select {
		case <-ctx.Done():
			// Interrupt during the blocking read: end cleanly.
			l.logger.Info().Msg("interrupted, exiting")
			return nil
		case err := <-readErrs:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case line := <-lines:
			if quit := l.execute(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

// execute runs one line and reports whether the session should end.
func (l *Loop) execute(ctx context.Context, line string) bool {
	outcome := l.disp.Execute(ctx, line)
	if outcome.Title == "" {
		return false
	}
	l.out.Panel(outcome.Kind, outcome.Title, outcome.Body)
	if outcome.Quit {
		return true
	}
	if outcome.Render {
		l.renderPage(ctx)
	}
	return false
}

func (l *Loop) renderPage(ctx context.Context) {
	markup, err := l.driver.Content(ctx)
	if err != nil {
		l.out.Panel(ui.KindError, "error", "failed to fetch content: "+err.Error())
		return
	}
	l.out.PageDump(render.Header(l.driver.URL()), l.renderer.Render(markup))
}
