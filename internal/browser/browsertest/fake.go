// Package browsertest provides an in-memory, scriptable implementation
// of browser.Driver for tests: pages are keyed by URL, elements can be
// staged with canned values, and failures (stale, intercepted, delayed
// visibility) can be injected per element.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MeKo-Tech/cardflow/internal/browser"
)

// FakeDriver implements browser.Driver against staged pages.
type FakeDriver struct {
	mu          sync.Mutex
	url         string
	pages       map[string]map[string]*FakeElement // url → selector → element
	anyPage     map[string]*FakeElement            // visible regardless of URL
	Navigations []string
	QuitCount   int

	// NavigateErr, when set, is returned by every Navigate call.
	NavigateErr error
}

// New creates an empty fake driver.
func New() *FakeDriver {
	return &FakeDriver{
		pages:   make(map[string]map[string]*FakeElement),
		anyPage: make(map[string]*FakeElement),
	}
}

// Add stages an element on the page with the given URL. An empty URL
// registers the element on every page. The returned element can be
// configured further.
func (d *FakeDriver) Add(url, selector string) *FakeElement {
	d.mu.Lock()
	defer d.mu.Unlock()

	el := &FakeElement{driver: d, selector: selector, visible: true, enabled: true}
	if url == "" {
		d.anyPage[selector] = el
		return el
	}
	if d.pages[url] == nil {
		d.pages[url] = make(map[string]*FakeElement)
	}
	d.pages[url][selector] = el
	return el
}

// SetURL moves the fake browser to the given URL without recording a
// navigation, emulating a remote page transition.
func (d *FakeDriver) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
}

// Navigate implements browser.Driver.
func (d *FakeDriver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NavigateErr != nil {
		return d.NavigateErr
	}
	d.url = url
	d.Navigations = append(d.Navigations, url)
	return nil
}

// CurrentURL implements browser.Driver.
func (d *FakeDriver) CurrentURL(_ context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

func (d *FakeDriver) lookup(selector string) *FakeElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	if page, ok := d.pages[d.url]; ok {
		if el, ok := page[selector]; ok {
			return el
		}
	}
	// Prefix match lets pages staged with a base URL serve fragment or
	// query variations reached during a flow.
	for url, page := range d.pages {
		if url != "" && strings.HasPrefix(d.url, url) {
			if el, ok := page[selector]; ok {
				return el
			}
		}
	}
	return d.anyPage[selector]
}

// Find implements browser.Driver.
func (d *FakeDriver) Find(_ context.Context, selector string) (browser.Element, error) {
	if el := d.lookup(selector); el != nil && !el.removed {
		return el, nil
	}
	return nil, fmt.Errorf("selector %q: %w", selector, browser.ErrNoSuchElement)
}

// FindAll implements browser.Driver.
func (d *FakeDriver) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	el, err := d.Find(ctx, selector)
	if err != nil {
		return nil, nil
	}
	return []browser.Element{el}, nil
}

// Quit implements browser.Driver.
func (d *FakeDriver) Quit(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.QuitCount++
	return nil
}

// FakeElement is a scriptable element. Configure it via the fluent
// setters, then inspect the recorded interactions.
type FakeElement struct {
	mu       sync.Mutex
	driver   *FakeDriver
	selector string

	visible bool
	enabled bool
	removed bool
	stale   bool

	value   string
	text    string
	attrs   map[string]string
	options []browser.Option

	// visibleAfter delays visibility for the first N polls.
	visibleAfter int

	// clickFailures is a queue of errors returned by Click before any
	// success. onClick runs on the first successful click.
	clickFailures []error
	onClick       func()

	// Recorded interactions.
	Clicks      int
	Clears      int
	Typed       []string
	Selected    []string
	ScrollCalls int
}

// WithVisible sets static visibility.
func (e *FakeElement) WithVisible(v bool) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = v
	return e
}

// WithEnabled sets whether the element accepts interaction.
func (e *FakeElement) WithEnabled(v bool) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = v
	return e
}

// WithText sets the visible text.
func (e *FakeElement) WithText(text string) *FakeElement { e.text = text; return e }

// WithValue sets the current input value.
func (e *FakeElement) WithValue(v string) *FakeElement { e.value = v; return e }

// WithAttr sets one attribute.
func (e *FakeElement) WithAttr(name, value string) *FakeElement {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
	return e
}

// WithOptions stages native select options.
func (e *FakeElement) WithOptions(opts ...browser.Option) *FakeElement {
	e.options = opts
	return e
}

// VisibleAfterPolls hides the element for the first n visibility polls,
// emulating late rendering.
func (e *FakeElement) VisibleAfterPolls(n int) *FakeElement {
	e.visibleAfter = n
	return e
}

// FailClicksWith queues errors returned by successive Click calls
// before a success.
func (e *FakeElement) FailClicksWith(errs ...error) *FakeElement {
	e.clickFailures = append(e.clickFailures, errs...)
	return e
}

// OnClick registers a hook run on the first successful click, typically
// to emulate the page transition the click causes.
func (e *FakeElement) OnClick(fn func()) *FakeElement { e.onClick = fn; return e }

// MarkStale makes subsequent operations fail with ErrStale.
func (e *FakeElement) MarkStale() *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stale = true
	return e
}

// Remove takes the element out of the DOM entirely.
func (e *FakeElement) Remove() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removed = true
	e.stale = true
}

func (e *FakeElement) guard() error {
	if e.stale || e.removed {
		return fmt.Errorf("selector %q: %w", e.selector, browser.ErrStale)
	}
	return nil
}

// Visible implements browser.Element.
func (e *FakeElement) Visible(_ context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return false, err
	}
	if e.visibleAfter > 0 {
		e.visibleAfter--
		return false, nil
	}
	return e.visible, nil
}

// Enabled implements browser.Element.
func (e *FakeElement) Enabled(_ context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return false, err
	}
	return e.enabled, nil
}

// Click implements browser.Element.
func (e *FakeElement) Click(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	e.Clicks++
	if len(e.clickFailures) > 0 {
		err := e.clickFailures[0]
		e.clickFailures = e.clickFailures[1:]
		return fmt.Errorf("selector %q: %w", e.selector, err)
	}
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

// Clear implements browser.Element.
func (e *FakeElement) Clear(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	e.Clears++
	e.value = ""
	return nil
}

// SendKeys implements browser.Element.
func (e *FakeElement) SendKeys(_ context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	e.Typed = append(e.Typed, text)
	e.value += text
	return nil
}

// Text implements browser.Element.
func (e *FakeElement) Text(_ context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return "", err
	}
	return e.text, nil
}

// Attr implements browser.Element.
func (e *FakeElement) Attr(_ context.Context, name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return "", false, err
	}
	if name == "value" && e.value != "" {
		return e.value, true, nil
	}
	v, ok := e.attrs[name]
	return v, ok, nil
}

// Options implements browser.Element.
func (e *FakeElement) Options(_ context.Context) ([]browser.Option, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return nil, err
	}
	return e.options, nil
}

// SelectByValue implements browser.Element.
func (e *FakeElement) SelectByValue(_ context.Context, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	for _, opt := range e.options {
		if opt.Value == value {
			e.Selected = append(e.Selected, value)
			e.value = value
			return nil
		}
	}
	return fmt.Errorf("value %q in %q: %w", value, e.selector, browser.ErrNoSuchOption)
}

// ScrollIntoView implements browser.Element.
func (e *FakeElement) ScrollIntoView(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.guard(); err != nil {
		return err
	}
	e.ScrollCalls++
	return nil
}

// Stale implements browser.Element.
func (e *FakeElement) Stale(_ context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stale || e.removed, nil
}

// Value returns the current input value for assertions.
func (e *FakeElement) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}
