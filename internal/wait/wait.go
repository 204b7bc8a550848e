// Package wait provides the bounded-timeout wait primitives over the
// remote UI. Each call blocks until its condition holds or the deadline
// passes; this layer never retries, it only reports.
package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/browser"
)

// DefaultPollInterval is used when the Waiter is built without one.
const DefaultPollInterval = 250 * time.Millisecond

// Waiter polls the driver until a condition holds or the per-call
// timeout elapses.
type Waiter struct {
	driver  browser.Driver
	timeout time.Duration
	poll    time.Duration
}

// New creates a Waiter with the given per-call timeout and poll
// interval. A non-positive poll interval falls back to the default.
func New(driver browser.Driver, timeout, poll time.Duration) *Waiter {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Waiter{driver: driver, timeout: timeout, poll: poll}
}

// Timeout returns the configured per-call wait ceiling.
func (w *Waiter) Timeout() time.Duration { return w.timeout }

// UntilVisible blocks until the selector locates a visible element.
func (w *Waiter) UntilVisible(ctx context.Context, selector string) (browser.Element, error) {
	var found browser.Element
	err := w.until(ctx, "element visible", selector, func(ctx context.Context) (bool, error) {
		el, err := w.driver.Find(ctx, selector)
		if err != nil {
			if errors.Is(err, browser.ErrNoSuchElement) {
				return false, nil
			}
			return false, err
		}
		visible, err := el.Visible(ctx)
		if err != nil {
			if errors.Is(err, browser.ErrStale) {
				return false, nil
			}
			return false, err
		}
		if visible {
			found = el
		}
		return visible, nil
	})
	return found, err
}

// UntilClickable blocks until the selector locates a visible, enabled
// element.
func (w *Waiter) UntilClickable(ctx context.Context, selector string) (browser.Element, error) {
	var found browser.Element
	err := w.until(ctx, "element clickable", selector, func(ctx context.Context) (bool, error) {
		el, err := w.driver.Find(ctx, selector)
		if err != nil {
			if errors.Is(err, browser.ErrNoSuchElement) {
				return false, nil
			}
			return false, err
		}
		visible, err := el.Visible(ctx)
		if err != nil || !visible {
			if errors.Is(err, browser.ErrStale) {
				return false, nil
			}
			return false, err
		}
		enabled, err := el.Enabled(ctx)
		if err != nil {
			if errors.Is(err, browser.ErrStale) {
				return false, nil
			}
			return false, err
		}
		if enabled {
			found = el
		}
		return enabled, nil
	})
	return found, err
}

// UntilURLContains blocks until the current URL contains the fragment.
func (w *Waiter) UntilURLContains(ctx context.Context, fragment string) error {
	return w.until(ctx, "url contains", fragment, func(ctx context.Context) (bool, error) {
		url, err := w.driver.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		return strings.Contains(url, fragment), nil
	})
}

// UntilURLMatches blocks until the current URL matches the regular
// expression.
func (w *Waiter) UntilURLMatches(ctx context.Context, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid url pattern %q: %w", pattern, err)
	}
	return w.until(ctx, "url matches", pattern, func(ctx context.Context) (bool, error) {
		url, err := w.driver.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		return re.MatchString(url), nil
	})
}

// UntilStale blocks until a previously located element leaves the DOM.
func (w *Waiter) UntilStale(ctx context.Context, el browser.Element) error {
	return w.until(ctx, "element stale", "", func(ctx context.Context) (bool, error) {
		return el.Stale(ctx)
	})
}

// until runs the poll loop. On deadline it logs the condition, target
// and current URL, then returns a *browser.TimeoutError.
func (w *Waiter) until(ctx context.Context, condition, target string,
	check func(context.Context) (bool, error),
) error {
	start := time.Now()
	deadline := start.Add(w.timeout)

	for {
		ok, err := check(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if time.Now().After(deadline) {
			url, urlErr := w.driver.CurrentURL(ctx)
			if urlErr != nil {
				url = fmt.Sprintf("<unavailable: %v>", urlErr)
			}
			terr := &browser.TimeoutError{
				Condition:  condition,
				Target:     target,
				CurrentURL: url,
				Elapsed:    time.Since(start),
			}
			slog.Error("wait timed out",
				"condition", condition, "target", target, "current_url", url,
				"timeout", w.timeout)
			return terr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.poll):
		}
	}
}
