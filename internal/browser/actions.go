package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/polzovatel/console-browser/internal/selector"
)

// highlightScript marks matched elements with a data attribute and a dashed
// outline so they stay visible in subsequent renders. It understands the
// xpath= marker the normalizer emits.
const highlightScript = `([sel, nth]) => {
	let elements = [];
	if (sel.startsWith('xpath=')) {
		const xpath = sel.slice(6);
		const itr = document.evaluate(xpath, document, null, XPathResult.ORDERED_NODE_ITERATOR_TYPE, null);
		let el; while ((el = itr.iterateNext())) { elements.push(el); }
	} else {
		elements = Array.from(document.querySelectorAll(sel));
	}
	if (elements.length === 0) return 0;
	const setMark = (el) => {
		try { el.setAttribute('data-console-clicked', 'true'); } catch (e) {}
		try { el.style && (el.style.outline = '2px dashed red'); } catch (e) {}
	};
	if (nth >= 0) {
		const el = elements[nth];
		if (el) setMark(el);
		return el ? 1 : 0;
	}
	elements.forEach(setMark);
	return elements.length;
}`

// highlight is best effort: a failure never blocks the click that follows.
func (s *Session) highlight(sel selector.Selector, nth int) {
	if _, err := s.evaluate(highlightScript, []interface{}{sel.Engine, nth}); err != nil {
		s.logger.Debug().Err(err).Str("selector", sel.Raw).Msg("highlight skipped")
	}
}

// Click clicks exactly one element: the nth match when nth >= 0, else the
// first. The click races a bounded navigation-expectation window; when a
// navigation starts inside it the click reports navigated=true, otherwise
// the click is performed directly against the element.
func (s *Session) Click(ctx context.Context, sel selector.Selector, nth int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.highlight(sel, nth)

	clickOnce := func() error {
		loc := s.locator(sel)
		if nth >= 0 {
			loc = loc.Nth(nth)
		} else {
			loc = loc.First()
		}
		return loc.Click()
	}

	navigated := true
	_, err := s.page.ExpectNavigation(clickOnce, playwright.PageExpectNavigationOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(clickNavWindow.Milliseconds())),
	})
	if err != nil {
		if !errors.Is(err, playwright.ErrTimeout) {
			return false, wrap(err)
		}
		// No navigation started inside the window; click directly.
		navigated = false
		if err := clickOnce(); err != nil {
			return false, wrap(err)
		}
	}
	if err := s.waitSettled(ctx); err != nil {
		return false, err
	}
	return navigated, nil
}

// TypeInto focuses the first match and sends the text as simulated
// keystrokes with a small per-character delay so input-event listeners fire.
// Clearing the existing value first is best effort.
func (s *Session) TypeInto(ctx context.Context, sel selector.Selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	first := s.locator(sel).First()
	if err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(elementWait.Milliseconds())),
	}); err != nil {
		return wrap(err)
	}
	if err := first.Focus(); err != nil {
		return wrap(err)
	}
	if err := first.Fill(""); err != nil {
		s.logger.Debug().Err(err).Str("selector", sel.Raw).Msg("clear before type skipped")
	}
	if err := first.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay: playwright.Float(float64(typeKeyDelay.Milliseconds())),
	}); err != nil {
		return wrap(err)
	}
	return s.waitSettled(ctx)
}

// Fill sets the value directly, skipping keystroke emulation.
func (s *Session) Fill(ctx context.Context, sel selector.Selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	first := s.locator(sel).First()
	if err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(elementWait.Milliseconds())),
	}); err != nil {
		return wrap(err)
	}
	if err := first.Fill(text); err != nil {
		return wrap(err)
	}
	return s.waitSettled(ctx)
}

// SelectOption chooses the option matching value on the first match.
func (s *Session) SelectOption(ctx context.Context, sel selector.Selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	first := s.locator(sel).First()
	if err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(elementWait.Milliseconds())),
	}); err != nil {
		return wrap(err)
	}
	selected, err := first.SelectOption(playwright.SelectOptionValues{
		Values: playwright.StringSlice(value),
	})
	if err != nil {
		return wrap(err)
	}
	if len(selected) == 0 {
		return fmt.Errorf("no option matched %q", value)
	}
	return s.waitSettled(ctx)
}

// PressKey dispatches a key at the page level, with no element focused.
func (s *Session) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.page.Keyboard().Press(key); err != nil {
		return wrap(err)
	}
	return s.waitSettled(ctx)
}

// PressOn dispatches a key to the first match.
func (s *Session) PressOn(ctx context.Context, sel selector.Selector, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	first := s.locator(sel).First()
	if err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(elementWait.Milliseconds())),
	}); err != nil {
		return wrap(err)
	}
	if err := first.Press(key); err != nil {
		return wrap(err)
	}
	return s.waitSettled(ctx)
}

var waitStates = map[string]*playwright.WaitForSelectorState{
	"attached": playwright.WaitForSelectorStateAttached,
	"detached": playwright.WaitForSelectorStateDetached,
	"visible":  playwright.WaitForSelectorStateVisible,
	"hidden":   playwright.WaitForSelectorStateHidden,
}

// WaitFor blocks until the first match reaches the requested state or the
// timeout elapses. Unlike the internal settle waits, a timeout here is the
// caller's failure to report.
func (s *Session) WaitFor(ctx context.Context, sel selector.Selector, state string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st, ok := waitStates[strings.ToLower(state)]
	if !ok {
		return fmt.Errorf("unknown state %q (want attached|detached|visible|hidden)", state)
	}
	return wrap(s.locator(sel).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   st,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}))
}

// ElementInfo is a best-effort description of one matched element.
type ElementInfo struct {
	Tag     string `json:"tag"`
	ID      string `json:"id"`
	Classes string `json:"classes"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Href    string `json:"href"`
	Text    string `json:"text"`
}

// ElementReport carries the total match count plus the described subset.
type ElementReport struct {
	Total int
	Items []ElementInfo
}

const describeScript = `(sel) => {
	let elements = [];
	if (sel.startsWith('xpath=')) {
		const xpath = sel.slice(6);
		const itr = document.evaluate(xpath, document, null, XPathResult.ORDERED_NODE_ITERATOR_TYPE, null);
		let el; while ((el = itr.iterateNext())) { elements.push(el); }
	} else {
		elements = Array.from(document.querySelectorAll(sel));
	}
	return elements.map((el) => {
		let text = (el.innerText || el.textContent || "").replace(/\s+/g, " ").trim();
		if (text.length > 160) text = text.slice(0, 160);
		return {
			tag: el.tagName.toLowerCase(),
			id: el.id || "",
			classes: (typeof el.className === "string" ? el.className : "").trim(),
			type: el.getAttribute("type") || "",
			name: el.getAttribute("name") || "",
			href: el.getAttribute("href") || "",
			text: text,
		};
	});
}`

// DescribeElements enumerates every match in the active target and returns
// up to limit descriptions plus the total count. A non-positive limit keeps
// all matches. The engine side is not capped; truncation is a formatting
// concern.
func (s *Session) DescribeElements(ctx context.Context, sel selector.Selector, limit int) (ElementReport, error) {
	if err := ctx.Err(); err != nil {
		return ElementReport{}, err
	}
	val, err := s.evaluate(describeScript, sel.Engine)
	if err != nil {
		return ElementReport{}, wrap(err)
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return ElementReport{}, fmt.Errorf("decode elements: %w", err)
	}
	var items []ElementInfo
	if err := json.Unmarshal(raw, &items); err != nil {
		return ElementReport{}, fmt.Errorf("decode elements: %w", err)
	}
	report := ElementReport{Total: len(items), Items: items}
	if limit > 0 && len(report.Items) > limit {
		report.Items = report.Items[:limit]
	}
	return report, nil
}

// evalWrapper awaits async expressions and converts thrown errors into an
// error-shaped string so evaluation failures come back as values.
const evalWrapper = `(expr) => (async () => {
	try {
		return await (0, eval)(expr);
	} catch (e) {
		return 'Error: ' + (e && e.message ? e.message : String(e));
	}
})()`

// Evaluate runs an expression inside the active target's context. A script
// that throws yields an "Error: ..." string, distinct from a dispatch-level
// failure.
func (s *Session) Evaluate(ctx context.Context, expression string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	val, err := s.evaluate(evalWrapper, expression)
	if err != nil {
		return "", wrap(err)
	}
	return FormatValue(val), nil
}

// FormatValue renders an evaluation result for display: strings pass
// through, everything else becomes compact JSON.
func FormatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return "null"
	case string:
		return v
	default:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
		return fmt.Sprint(v)
	}
}
