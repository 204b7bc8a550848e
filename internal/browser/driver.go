// Package browser defines the boundary to the remote UI. The rest of
// the system only sees the Driver and Element interfaces plus the error
// taxonomy below; the chromedp adapter and the test fake both live
// behind them.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Driver is a live handle to the remote UI. A single Driver (the
// Session) is shared sequentially across batch jobs; it is never used
// concurrently.
type Driver interface {
	// Navigate loads the given URL and returns once the main document
	// has committed.
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the URL of the current page.
	CurrentURL(ctx context.Context) (string, error)

	// Find locates the first element matching the CSS selector.
	// Returns ErrNoSuchElement when nothing matches.
	Find(ctx context.Context, selector string) (Element, error)

	// FindAll locates every element matching the CSS selector.
	FindAll(ctx context.Context, selector string) ([]Element, error)

	// Quit closes the session and releases the underlying browser.
	Quit(ctx context.Context) error
}

// Element is one located control on the remote page. Operations on an
// element that has left the DOM return ErrStale.
type Element interface {
	// Visible reports whether the element is rendered and displayed.
	Visible(ctx context.Context) (bool, error)

	// Enabled reports whether the element accepts interaction.
	Enabled(ctx context.Context) (bool, error)

	// Click clicks the element. Returns ErrClickIntercepted when
	// another element covers the click point.
	Click(ctx context.Context) error

	// Clear empties a text control.
	Clear(ctx context.Context) error

	// SendKeys types text into the element. For file inputs the text is
	// the newline-joined list of absolute paths.
	SendKeys(ctx context.Context, text string) error

	// Text returns the element's visible text.
	Text(ctx context.Context) (string, error)

	// Attr returns the named attribute value and whether it is present.
	Attr(ctx context.Context, name string) (string, bool, error)

	// Options lists a native select control's options.
	Options(ctx context.Context) ([]Option, error)

	// SelectByValue selects a native select option by value attribute.
	SelectByValue(ctx context.Context, value string) error

	// ScrollIntoView scrolls the element into the viewport.
	ScrollIntoView(ctx context.Context) error

	// Stale reports whether the element has left the DOM.
	Stale(ctx context.Context) (bool, error)
}

// Option is one entry of a native select control.
type Option struct {
	Text  string
	Value string
}

// Sentinel conditions surfaced by Driver and Element implementations.
var (
	// ErrNoSuchElement indicates no element matched the selector.
	ErrNoSuchElement = errors.New("no such element")

	// ErrStale indicates the element reference has left the DOM.
	ErrStale = errors.New("stale element reference")

	// ErrClickIntercepted indicates another element covers the target.
	ErrClickIntercepted = errors.New("click intercepted")

	// ErrNoSuchOption indicates a select control has no matching option.
	ErrNoSuchOption = errors.New("no such option")
)

// TimeoutError reports a wait condition that did not hold within its
// deadline, with enough context to diagnose the selector and page.
type TimeoutError struct {
	Condition  string
	Target     string
	CurrentURL string
	Elapsed    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s waiting for %s (%s); current url: %s",
		e.Elapsed.Round(time.Millisecond), e.Condition, e.Target, e.CurrentURL)
}

// IsTimeout reports whether err is (or wraps) a wait-layer timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
