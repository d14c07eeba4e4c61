// Package browser owns the playwright lifecycle and the single live session
// the console drives. Action methods carry the per-action wait policy; the
// dispatcher above only decides which action to ask for.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"

	"github.com/polzovatel/console-browser/internal/selector"
)

const (
	navTimeout         = 30 * time.Second
	settleTimeout      = 6 * time.Second
	settleDelay        = 200 * time.Millisecond
	clickNavWindow     = 3 * time.Second
	elementWait        = 5 * time.Second
	typeKeyDelay       = 20 * time.Millisecond
	defaultViewportW   = 1280
	defaultViewportH   = 800
	defaultUserDataDir = ".console_browser_userdata"
)

// NavResult reports where a navigation landed. Status is meaningful only
// when HasStatus is set; non-HTTP navigations produce no response.
type NavResult struct {
	URL       string
	Status    int
	HasStatus bool
}

// Driver is the action surface the dispatcher consumes. One implementation
// wraps playwright; tests substitute a fake.
type Driver interface {
	Close(ctx context.Context) error
	Navigate(ctx context.Context, rawURL string) (NavResult, error)
	GoBack(ctx context.Context) (bool, error)
	GoForward(ctx context.Context) (bool, error)
	Reload(ctx context.Context) error
	Click(ctx context.Context, sel selector.Selector, nth int) (bool, error)
	TypeInto(ctx context.Context, sel selector.Selector, text string) error
	Fill(ctx context.Context, sel selector.Selector, text string) error
	SelectOption(ctx context.Context, sel selector.Selector, value string) error
	PressKey(ctx context.Context, key string) error
	PressOn(ctx context.Context, sel selector.Selector, key string) error
	WaitFor(ctx context.Context, sel selector.Selector, state string, timeout time.Duration) error
	DescribeElements(ctx context.Context, sel selector.Selector, limit int) (ElementReport, error)
	Evaluate(ctx context.Context, expression string) (string, error)
	Frames(ctx context.Context) (FramesSnapshot, error)
	UseFrame(ctx context.Context, token string) (FrameInfo, error)
	UseMainFrame()
	Title(ctx context.Context) (string, error)
	URL() string
	Content(ctx context.Context) (string, error)
	SaveState(ctx context.Context, path string) error
}

// Options configures the launcher and session.
type Options struct {
	Headless    bool
	UserDataDir string
	// ConsoleSink receives page console messages; nil discards them.
	ConsoleSink func(msgType, text string)
}

// Launcher owns the playwright process and the persistent context.
type Launcher struct {
	pw      *playwright.Playwright
	context playwright.BrowserContext
	logger  zerolog.Logger
}

// NewLauncher starts playwright and launches a persistent Chromium context
// so cookies and local storage survive across runs. Any failure here is the
// one fatal startup path the process has.
func NewLauncher(ctx context.Context, opts Options, logger zerolog.Logger) (*Launcher, error) {
	_ = ctx
	if err := ensureBrowsers(logger); err != nil {
		logger.Warn().Err(err).Msg("browser install check failed, trying launch anyway")
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	dataDir := strings.TrimSpace(opts.UserDataDir)
	if dataDir == "" {
		dataDir = defaultUserDataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("user data dir: %w", err)
	}
	browserCtx, err := pw.Chromium.LaunchPersistentContext(dataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:        playwright.Bool(opts.Headless),
		Viewport:        &playwright.Size{Width: defaultViewportW, Height: defaultViewportH},
		AcceptDownloads: playwright.Bool(false),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &Launcher{pw: pw, context: browserCtx, logger: logger}, nil
}

// NewSession binds the single page. The persistent context may already carry
// a page; otherwise one is opened.
func (l *Launcher) NewSession(ctx context.Context, opts Options) (*Session, error) {
	_ = ctx
	var page playwright.Page
	if pages := l.context.Pages(); len(pages) > 0 {
		page = pages[0]
	} else {
		p, err := l.context.NewPage()
		if err != nil {
			return nil, fmt.Errorf("new page: %w", err)
		}
		page = p
	}
	page.SetDefaultTimeout(float64(navTimeout.Milliseconds()))
	if opts.ConsoleSink != nil {
		sink := opts.ConsoleSink
		page.OnConsole(func(msg playwright.ConsoleMessage) {
			sink(msg.Type(), msg.Text())
		})
	}
	return &Session{context: l.context, page: page, logger: l.logger}, nil
}

func (l *Launcher) Close() error {
	if l.context != nil {
		_ = l.context.Close()
	}
	if l.pw != nil {
		return l.pw.Stop()
	}
	return nil
}

// Session is the one live browsing context. The active frame is the only
// mutable targeting state; nil means the main document. The command loop is
// strictly sequential, so no locking discipline is needed here.
type Session struct {
	context playwright.BrowserContext
	page    playwright.Page
	active  playwright.Frame
	logger  zerolog.Logger
}

var _ Driver = (*Session)(nil)

func (s *Session) Close(ctx context.Context) error {
	_ = ctx
	if s.page != nil {
		_ = s.page.Close()
	}
	return nil
}

// locator resolves a selector inside the active target.
func (s *Session) locator(sel selector.Selector) playwright.Locator {
	if s.active != nil {
		return s.active.Locator(sel.Engine)
	}
	return s.page.Locator(sel.Engine)
}

// evaluate runs an expression inside the active target.
func (s *Session) evaluate(expression string, args ...interface{}) (interface{}, error) {
	if s.active != nil {
		return s.active.Evaluate(expression, args...)
	}
	return s.page.Evaluate(expression, args...)
}

// waitSettled runs after every state-changing action: bounded load wait,
// bounded network-idle wait, then a short fixed delay for client-side
// re-rendering. Timeouts on the lifecycle waits are good enough and are
// swallowed; any other engine failure propagates.
func (s *Session) waitSettled(ctx context.Context) error {
	for _, state := range []*playwright.LoadState{playwright.LoadStateLoad, playwright.LoadStateNetworkidle} {
		err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   state,
			Timeout: playwright.Float(float64(settleTimeout.Milliseconds())),
		})
		if err != nil && !errors.Is(err, playwright.ErrTimeout) {
			return wrap(err)
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(settleDelay):
	}
	return nil
}

// NormalizeURL treats bare domains as https.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}

func (s *Session) Navigate(ctx context.Context, rawURL string) (NavResult, error) {
	if err := ctx.Err(); err != nil {
		return NavResult{}, err
	}
	resp, err := s.page.Goto(NormalizeURL(rawURL), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navTimeout.Milliseconds())),
	})
	if err != nil {
		return NavResult{}, wrap(err)
	}
	if err := s.waitSettled(ctx); err != nil {
		return NavResult{}, err
	}
	res := NavResult{URL: s.page.URL()}
	if resp != nil {
		res.Status = resp.Status()
		res.HasStatus = true
	}
	return res, nil
}

// GoBack reports false when there was no history entry to move to; that is
// a no-op outcome, not an error.
func (s *Session) GoBack(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	resp, err := s.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return false, wrap(err)
	}
	if err := s.waitSettled(ctx); err != nil {
		return false, err
	}
	return resp != nil, nil
}

func (s *Session) GoForward(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	resp, err := s.page.GoForward(playwright.PageGoForwardOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return false, wrap(err)
	}
	if err := s.waitSettled(ctx); err != nil {
		return false, err
	}
	return resp != nil, nil
}

func (s *Session) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return wrap(err)
	}
	return s.waitSettled(ctx)
}

// Title queries the main document, never the active frame.
func (s *Session) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title, err := s.page.Title()
	return title, wrap(err)
}

// URL always reflects the main document, regardless of the active frame.
func (s *Session) URL() string {
	return s.page.URL()
}

// Content fetches the main document markup. Rendering deliberately ignores
// the active frame.
func (s *Session) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	markup, err := s.page.Content()
	return markup, wrap(err)
}

// SaveState writes the context storage state (cookies, localStorage) as JSON.
func (s *Session) SaveState(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	state, err := s.context.StorageState()
	if err != nil {
		return wrap(err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal storage: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("playwright: %w", err)
}

func ensureBrowsers(logger zerolog.Logger) error {
	// Install is idempotent; playwright skips downloads already present.
	logger.Debug().Msg("ensuring playwright chromium is installed")
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	})
}
