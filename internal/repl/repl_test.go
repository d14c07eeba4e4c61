package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/console-browser/internal/browser"
	"github.com/polzovatel/console-browser/internal/dispatch"
	"github.com/polzovatel/console-browser/internal/render"
	"github.com/polzovatel/console-browser/internal/selector"
	"github.com/polzovatel/console-browser/internal/ui"
)

// stubDriver serves a fixed page; element actions are not exercised here.
type stubDriver struct {
	url     string
	content string
	title   string
}

func (s *stubDriver) Close(context.Context) error { return nil }
func (s *stubDriver) Navigate(_ context.Context, rawURL string) (browser.NavResult, error) {
	s.url = browser.NormalizeURL(rawURL)
	return browser.NavResult{URL: s.url, Status: 200, HasStatus: true}, nil
}
func (s *stubDriver) GoBack(context.Context) (bool, error)    { return false, nil }
func (s *stubDriver) GoForward(context.Context) (bool, error) { return false, nil }
func (s *stubDriver) Reload(context.Context) error            { return nil }
func (s *stubDriver) Click(context.Context, selector.Selector, int) (bool, error) {
	return false, nil
}
func (s *stubDriver) TypeInto(context.Context, selector.Selector, string) error     { return nil }
func (s *stubDriver) Fill(context.Context, selector.Selector, string) error         { return nil }
func (s *stubDriver) SelectOption(context.Context, selector.Selector, string) error { return nil }
func (s *stubDriver) PressKey(context.Context, string) error                        { return nil }
func (s *stubDriver) PressOn(context.Context, selector.Selector, string) error      { return nil }
func (s *stubDriver) WaitFor(context.Context, selector.Selector, string, time.Duration) error {
	return nil
}
func (s *stubDriver) DescribeElements(context.Context, selector.Selector, int) (browser.ElementReport, error) {
	return browser.ElementReport{}, nil
}
func (s *stubDriver) Evaluate(context.Context, string) (string, error) { return "2", nil }
func (s *stubDriver) Frames(context.Context) (browser.FramesSnapshot, error) {
	return browser.FramesSnapshot{MainURL: s.url, MainActive: true}, nil
}
func (s *stubDriver) UseFrame(context.Context, string) (browser.FrameInfo, error) {
	return browser.FrameInfo{}, nil
}
func (s *stubDriver) UseMainFrame()                          {}
func (s *stubDriver) Title(context.Context) (string, error)  { return s.title, nil }
func (s *stubDriver) URL() string                            { return s.url }
func (s *stubDriver) Content(context.Context) (string, error) {
	return s.content, nil
}
func (s *stubDriver) SaveState(context.Context, string) error { return nil }

func newLoop(in string, drv *stubDriver) (*Loop, *bytes.Buffer) {
	var out bytes.Buffer
	renderer := render.New(render.ModeHTML, render.DefaultBudget)
	disp := dispatch.New(drv, renderer, zerolog.Nop())
	loop := New(drv, disp, renderer, ui.New(&out), strings.NewReader(in), zerolog.Nop())
	return loop, &out
}

func TestRunExitsOnExitCommand(t *testing.T) {
	drv := &stubDriver{url: "about:blank", content: "<html><body>hi</body></html>"}
	loop, out := newLoop("title\nexit\n", drv)
	require.NoError(t, loop.Run(context.Background(), ""))
	assert.Contains(t, out.String(), "URL: about:blank")
	assert.Contains(t, out.String(), "bye")
}

func TestRunExitsOnEOF(t *testing.T) {
	drv := &stubDriver{url: "about:blank"}
	loop, _ := newLoop("url\n", drv)
	require.NoError(t, loop.Run(context.Background(), ""))
}

func TestRunOnceExecutesSingleCommand(t *testing.T) {
	drv := &stubDriver{url: "about:blank", content: "<html></html>"}
	loop, out := newLoop("", drv)
	require.NoError(t, loop.Run(context.Background(), "goto example.com"))
	assert.Contains(t, out.String(), "https://example.com")
	assert.Contains(t, out.String(), "status: 200")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	drv := &stubDriver{url: "about:blank"}
	// No newline: the reader blocks, so only cancellation can end the loop.
	loop, _ := newLoop("", drv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx, "") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on context cancellation")
	}
}

func TestPreloadPrintsPanelOnly(t *testing.T) {
	drv := &stubDriver{url: "about:blank", content: "<html></html>"}
	loop, out := newLoop("", drv)
	loop.Preload(context.Background(), "goto example.com")
	assert.Contains(t, out.String(), "Navigated to https://example.com")
}
