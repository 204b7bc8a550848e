// Package form provides the idempotent form-interaction primitives:
// field fill, dropdown select (native and custom variants), file upload
// and retrying click. Every primitive waits for the target element
// before touching it.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/browser"
	"github.com/MeKo-Tech/cardflow/internal/wait"
)

// Filler drives form controls through the wait layer.
type Filler struct {
	driver     browser.Driver
	waiter     *wait.Waiter
	retryPause time.Duration
}

// New creates a Filler. retryPause separates click retry attempts.
func New(driver browser.Driver, waiter *wait.Waiter, retryPause time.Duration) *Filler {
	if retryPause <= 0 {
		retryPause = time.Second
	}
	return &Filler{driver: driver, waiter: waiter, retryPause: retryPause}
}

// FillText clears a text control and types the value. Failures carry
// the field's human label.
func (f *Filler) FillText(ctx context.Context, selector, value, label string) error {
	el, err := f.waiter.UntilVisible(ctx, selector)
	if err != nil {
		return fmt.Errorf("fill %s: %w", label, err)
	}
	if err := el.Clear(ctx); err != nil {
		return fmt.Errorf("fill %s: %w", label, err)
	}
	if err := el.SendKeys(ctx, value); err != nil {
		return fmt.Errorf("fill %s: %w", label, err)
	}
	slog.Debug("field filled", "label", label, "selector", selector)
	return nil
}

// SelectOption selects a dropdown entry. For native selects the value
// is matched against the visible option text first, then against the
// value attribute; neither matching is an error. When custom is true
// the control is a non-native dropdown driven by clicks: the control is
// opened and the entry whose text matches is clicked.
func (f *Filler) SelectOption(ctx context.Context, selector, value, label string, custom bool) error {
	if custom {
		return f.selectCustom(ctx, selector, value, label)
	}

	el, err := f.waiter.UntilVisible(ctx, selector)
	if err != nil {
		return fmt.Errorf("select %s: %w", label, err)
	}

	opts, err := el.Options(ctx)
	if err != nil {
		return fmt.Errorf("select %s: %w", label, err)
	}

	// Visible text first, value attribute as the fallback.
	for _, opt := range opts {
		if opt.Text == value {
			if err := el.SelectByValue(ctx, opt.Value); err != nil {
				return fmt.Errorf("select %s: %w", label, err)
			}
			slog.Debug("option selected", "label", label, "text", value)
			return nil
		}
	}
	if err := el.SelectByValue(ctx, value); err != nil {
		if errors.Is(err, browser.ErrNoSuchOption) {
			return fmt.Errorf("select %s: option %q matches neither text nor value: %w",
				label, value, browser.ErrNoSuchOption)
		}
		return fmt.Errorf("select %s: %w", label, err)
	}
	slog.Debug("option selected by value", "label", label, "value", value)
	return nil
}

// selectCustom drives a non-native dropdown: click to open, then click
// the entry whose visible text equals the value.
func (f *Filler) selectCustom(ctx context.Context, selector, value, label string) error {
	if err := f.Click(ctx, selector, label, 1); err != nil {
		return err
	}

	// Entries of custom dropdowns render after the opening click.
	entrySelector := selector + " [role=\"option\"], " + selector + " li"
	entries, err := f.driver.FindAll(ctx, entrySelector)
	if err != nil {
		return fmt.Errorf("select %s: %w", label, err)
	}
	for _, entry := range entries {
		text, err := entry.Text(ctx)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == value {
			if err := entry.Click(ctx); err != nil {
				return fmt.Errorf("select %s: %w", label, err)
			}
			slog.Debug("custom option selected", "label", label, "text", value)
			return nil
		}
	}
	return fmt.Errorf("select %s: option %q not found in custom dropdown: %w",
		label, value, browser.ErrNoSuchOption)
}

// UploadFiles sends the full absolute-path list to a file input in one
// batch. The control must accept multiple files; per-file acceptance by
// the remote UI is not verified here.
func (f *Filler) UploadFiles(ctx context.Context, selector string, paths []string) error {
	if len(paths) == 0 {
		return errors.New("upload: no files to upload")
	}
	el, err := f.waiter.UntilVisible(ctx, selector)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if err := el.SendKeys(ctx, strings.Join(paths, "\n")); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	slog.Info("files sent to upload input", "count", len(paths))
	return nil
}

// Click clicks the element with up to maxRetries attempts. A stale
// element or an intercepted click pauses briefly and retries; any other
// error propagates immediately. The element is scrolled into view
// before every attempt.
func (f *Filler) Click(ctx context.Context, selector, label string, maxRetries int) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		el, err := f.waiter.UntilClickable(ctx, selector)
		if err != nil {
			return fmt.Errorf("click %s: %w", label, err)
		}

		if err := el.ScrollIntoView(ctx); err != nil && !retryableClick(err) {
			return fmt.Errorf("click %s: %w", label, err)
		}

		err = el.Click(ctx)
		if err == nil {
			slog.Debug("clicked", "label", label, "attempt", attempt)
			return nil
		}
		if !retryableClick(err) {
			return fmt.Errorf("click %s: %w", label, err)
		}

		lastErr = err
		slog.Warn("click attempt failed, retrying",
			"label", label, "attempt", attempt, "max", maxRetries, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.retryPause):
		}
	}
	return fmt.Errorf("click %s failed after %d attempts: %w", label, maxRetries, lastErr)
}

// retryableClick reports whether the click failure is one of the two
// transient conditions worth retrying.
func retryableClick(err error) bool {
	return errors.Is(err, browser.ErrStale) || errors.Is(err, browser.ErrClickIntercepted)
}
