// Package auth performs the login sequence against the remote UI with
// bounded full-restart retries.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/browser"
	"github.com/MeKo-Tech/cardflow/internal/config"
	"github.com/MeKo-Tech/cardflow/internal/form"
	"github.com/MeKo-Tech/cardflow/internal/wait"
)

// FailedError is the terminal error raised when every login attempt has
// been exhausted.
type FailedError struct {
	Attempts int
	LastErr  error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("authentication failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *FailedError) Unwrap() error { return e.LastErr }

// Options describes one login flow.
type Options struct {
	LoginURL        string
	UsernameField   string
	PasswordField   string
	LoginButton     string
	SuccessFragment string

	// MaxAttempts bounds full-sequence restarts. Pause separates them.
	MaxAttempts int
	Pause       time.Duration
}

// Authenticator runs the login flow.
type Authenticator struct {
	driver browser.Driver
	waiter *wait.Waiter
	filler *form.Filler
	opts   Options
}

// New creates an Authenticator. Zero MaxAttempts defaults to 3 and zero
// Pause to two seconds.
func New(driver browser.Driver, waiter *wait.Waiter, filler *form.Filler, opts Options) *Authenticator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	if opts.Pause <= 0 {
		opts.Pause = 2 * time.Second
	}
	return &Authenticator{driver: driver, waiter: waiter, filler: filler, opts: opts}
}

// Login performs the full login sequence, restarting from navigation on
// each retry. The password never reaches the logs.
func (a *Authenticator) Login(ctx context.Context, creds config.Credentials) error {
	var lastErr error
	for attempt := 1; attempt <= a.opts.MaxAttempts; attempt++ {
		slog.Info("logging in", "attempt", attempt, "max", a.opts.MaxAttempts)

		err := a.attempt(ctx, creds)
		if err == nil {
			slog.Info("login succeeded", "attempt", attempt)
			return nil
		}
		lastErr = err
		slog.Warn("login attempt failed", "attempt", attempt, "error", err)

		if attempt < a.opts.MaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.opts.Pause):
			}
		}
	}
	return &FailedError{Attempts: a.opts.MaxAttempts, LastErr: lastErr}
}

// attempt runs one navigate-fill-click-confirm pass.
func (a *Authenticator) attempt(ctx context.Context, creds config.Credentials) error {
	if err := a.driver.Navigate(ctx, a.opts.LoginURL); err != nil {
		return fmt.Errorf("navigate to login page: %w", err)
	}
	if err := a.filler.FillText(ctx, a.opts.UsernameField, creds.Username, "username"); err != nil {
		return err
	}
	if err := a.filler.FillText(ctx, a.opts.PasswordField, creds.Password, "password"); err != nil {
		return err
	}
	if err := a.filler.Click(ctx, a.opts.LoginButton, "login button", 1); err != nil {
		return err
	}
	if err := a.waiter.UntilURLContains(ctx, a.opts.SuccessFragment); err != nil {
		return fmt.Errorf("post-login redirect: %w", err)
	}
	return nil
}
