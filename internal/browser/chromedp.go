package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chromedp/chromedp"
)

// ChromeDriver implements Driver over a chromedp-managed Chrome
// instance. Elements are addressed by selector and match index and
// re-resolved on every operation, so a node that leaves the DOM is
// reported as stale rather than crashing the session.
type ChromeDriver struct {
	ctx         context.Context
	ctxCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

// ChromeOptions configures the launched browser.
type ChromeOptions struct {
	Headless bool
	Width    int
	Height   int
}

// NewChromeDriver launches a Chrome instance and returns a Driver bound
// to it. The caller owns the session and must Quit it.
func NewChromeDriver(parent context.Context, opts ChromeOptions) (*ChromeDriver, error) {
	if opts.Width == 0 {
		opts.Width = 1920
	}
	if opts.Height == 0 {
		opts.Height = 1080
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(opts.Width, opts.Height),
		chromedp.NoSandbox,
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so launch failures surface here instead
	// of on the first navigation.
	if err := chromedp.Run(ctx); err != nil {
		ctxCancel()
		allocCancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	slog.Debug("browser session started", "headless", opts.Headless)
	return &ChromeDriver{ctx: ctx, ctxCancel: ctxCancel, allocCancel: allocCancel}, nil
}

func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	return runBound(ctx, d.ctx, func(runCtx context.Context) error {
		return chromedp.Run(runCtx, actions...)
	})
}

// runBound executes fn on a context derived from the session context
// that is additionally cancelled when the caller's context is. Only the
// in-flight action is aborted; the session context stays alive, so the
// browser survives an interrupted call.
func runBound(caller, session context.Context, fn func(context.Context) error) error {
	if err := caller.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(session)
	defer cancel()
	stop := context.AfterFunc(caller, cancel)
	defer stop()

	err := fn(runCtx)
	if cErr := caller.Err(); cErr != nil {
		return cErr
	}
	return err
}

// Navigate loads the given URL.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the URL of the current page.
func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading current url: %w", err)
	}
	return url, nil
}

// Find locates the first element matching the CSS selector.
func (d *ChromeDriver) Find(ctx context.Context, selector string) (Element, error) {
	var count int
	if err := d.eval(ctx, fmt.Sprintf(`document.querySelectorAll(%q).length`, selector), &count); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("selector %q: %w", selector, ErrNoSuchElement)
	}
	return &chromeElement{d: d, selector: selector, index: 0}, nil
}

// FindAll locates every element matching the CSS selector.
func (d *ChromeDriver) FindAll(ctx context.Context, selector string) ([]Element, error) {
	var count int
	if err := d.eval(ctx, fmt.Sprintf(`document.querySelectorAll(%q).length`, selector), &count); err != nil {
		return nil, err
	}
	elems := make([]Element, 0, count)
	for i := 0; i < count; i++ {
		elems = append(elems, &chromeElement{d: d, selector: selector, index: i})
	}
	return elems, nil
}

// Quit closes the session and the browser.
func (d *ChromeDriver) Quit(ctx context.Context) error {
	err := chromedp.Cancel(d.ctx)
	d.ctxCancel()
	d.allocCancel()
	if err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}
	slog.Debug("browser session closed")
	return nil
}

func (d *ChromeDriver) eval(ctx context.Context, js string, out interface{}) error {
	if err := d.run(ctx, chromedp.Evaluate(js, out)); err != nil {
		return fmt.Errorf("evaluating script: %w", err)
	}
	return nil
}

// chromeElement addresses one match of a selector. Every operation
// re-resolves the node, so callers see ErrStale when it disappears.
type chromeElement struct {
	d        *ChromeDriver
	selector string
	index    int
}

// ref returns a JS expression resolving to the element or undefined.
func (e *chromeElement) ref() string {
	return fmt.Sprintf(`document.querySelectorAll(%q)[%d]`, e.selector, e.index)
}

// withEl wraps body in a self-invoking function binding `el`, returning
// the sentinel string "__stale__" when the node is gone.
func (e *chromeElement) withEl(body string) string {
	return fmt.Sprintf(`(function() {
		const el = %s;
		if (!el) { return "__stale__"; }
		%s
	})()`, e.ref(), body)
}

const staleSentinel = "__stale__"

func (e *chromeElement) evalString(ctx context.Context, body string) (string, error) {
	var out string
	if err := e.d.eval(ctx, e.withEl(body), &out); err != nil {
		return "", err
	}
	if out == staleSentinel {
		return "", fmt.Errorf("selector %q[%d]: %w", e.selector, e.index, ErrStale)
	}
	return out, nil
}

func (e *chromeElement) Visible(ctx context.Context) (bool, error) {
	out, err := e.evalString(ctx, `
		const style = window.getComputedStyle(el);
		const shown = el.offsetParent !== null ||
			style.position === "fixed" && style.display !== "none";
		return shown && style.visibility !== "hidden" ? "true" : "false";`)
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

func (e *chromeElement) Enabled(ctx context.Context) (bool, error) {
	out, err := e.evalString(ctx, `return el.disabled ? "false" : "true";`)
	if err != nil {
		return false, err
	}
	return out == "true", nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	out, err := e.evalString(ctx, `
		const rect = el.getBoundingClientRect();
		const cx = rect.left + rect.width / 2;
		const cy = rect.top + rect.height / 2;
		const top = document.elementFromPoint(cx, cy);
		if (top && top !== el && !el.contains(top)) { return "intercepted"; }
		el.click();
		return "ok";`)
	if err != nil {
		return err
	}
	if out == "intercepted" {
		return fmt.Errorf("selector %q: %w", e.selector, ErrClickIntercepted)
	}
	return nil
}

func (e *chromeElement) Clear(ctx context.Context) error {
	_, err := e.evalString(ctx, `
		el.value = "";
		el.dispatchEvent(new Event("input", {bubbles: true}));
		return "ok";`)
	return err
}

func (e *chromeElement) SendKeys(ctx context.Context, text string) error {
	isFile, err := e.evalString(ctx, `return el.type === "file" ? "true" : "false";`)
	if err != nil {
		return err
	}
	if isFile == "true" {
		files := strings.Split(text, "\n")
		return e.d.run(ctx, chromedp.SetUploadFiles(e.selector, files, chromedp.ByQuery))
	}
	_, err = e.evalString(ctx, fmt.Sprintf(`
		el.value = el.value + %q;
		el.dispatchEvent(new Event("input", {bubbles: true}));
		el.dispatchEvent(new Event("change", {bubbles: true}));
		return "ok";`, text))
	return err
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	return e.evalString(ctx, `return el.textContent.trim();`)
}

func (e *chromeElement) Attr(ctx context.Context, name string) (string, bool, error) {
	out, err := e.evalString(ctx, fmt.Sprintf(`
		const v = el.getAttribute(%q);
		return JSON.stringify({present: v !== null, value: v === null ? "" : v});`, name))
	if err != nil {
		return "", false, err
	}
	value, present, err := decodeAttr(out)
	if err != nil {
		return "", false, fmt.Errorf("parsing attribute %q of %q: %w", name, e.selector, err)
	}
	return value, present, nil
}

// decodeAttr parses the JSON payload produced by the Attr script. The
// attribute value travels as a JSON field rather than a string
// sentinel, so any literal attribute text round-trips intact.
func decodeAttr(payload string) (string, bool, error) {
	var res struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return "", false, err
	}
	return res.Value, res.Present, nil
}

func (e *chromeElement) Options(ctx context.Context) ([]Option, error) {
	js := e.withEl(`
		if (el.tagName !== "SELECT") { return "__notselect__"; }
		return JSON.stringify(Array.from(el.options).map(function(o) {
			return {text: o.text.trim(), value: o.value};
		}));`)
	var out string
	if err := e.d.eval(ctx, js, &out); err != nil {
		return nil, err
	}
	switch out {
	case staleSentinel:
		return nil, fmt.Errorf("selector %q: %w", e.selector, ErrStale)
	case "__notselect__":
		return nil, fmt.Errorf("selector %q is not a select control", e.selector)
	}
	var opts []Option
	if err := unmarshalOptions(out, &opts); err != nil {
		return nil, fmt.Errorf("parsing options of %q: %w", e.selector, err)
	}
	return opts, nil
}

func (e *chromeElement) SelectByValue(ctx context.Context, value string) error {
	out, err := e.evalString(ctx, fmt.Sprintf(`
		const opt = Array.from(el.options).find(function(o) { return o.value === %q; });
		if (!opt) { return "missing"; }
		el.value = opt.value;
		el.dispatchEvent(new Event("change", {bubbles: true}));
		return "ok";`, value))
	if err != nil {
		return err
	}
	if out == "missing" {
		return fmt.Errorf("value %q in %q: %w", value, e.selector, ErrNoSuchOption)
	}
	return nil
}

func (e *chromeElement) ScrollIntoView(ctx context.Context) error {
	_, err := e.evalString(ctx, `el.scrollIntoView(true); return "ok";`)
	return err
}

func unmarshalOptions(data string, out *[]Option) error {
	var raw []struct {
		Text  string `json:"text"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return err
	}
	for _, r := range raw {
		*out = append(*out, Option{Text: r.Text, Value: r.Value})
	}
	return nil
}

func (e *chromeElement) Stale(ctx context.Context) (bool, error) {
	var out bool
	js := fmt.Sprintf(`%s === undefined`, e.ref())
	if err := e.d.eval(ctx, js, &out); err != nil {
		return false, err
	}
	return out, nil
}
