package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/MeKo-Tech/cardflow/internal/browser"
	"github.com/MeKo-Tech/cardflow/internal/config"
)

// ExtractBatchID recovers the remote batch identifier after batch
// creation. The URL regex is always tried first; only when it has no
// match do the fallback DOM selectors run, in declared order, taking
// the first non-empty value attribute or text.
func ExtractBatchID(ctx context.Context, driver browser.Driver, cfg config.BatchIDConfig) (string, error) {
	url, err := driver.CurrentURL(ctx)
	if err != nil {
		return "", fmt.Errorf("extract batch id: %w", err)
	}

	re, err := regexp.Compile(cfg.URLPattern)
	if err != nil {
		return "", fmt.Errorf("batch id pattern %q: %w", cfg.URLPattern, err)
	}
	if m := re.FindStringSubmatch(url); len(m) > 1 {
		slog.Info("batch id extracted from url", "batch_id", m[1])
		return m[1], nil
	}

	slog.Warn("batch id not found in url, trying DOM fallbacks", "url", url)
	for _, sel := range cfg.FallbackSelectors {
		el, err := driver.Find(ctx, sel)
		if err != nil {
			continue
		}
		if v, ok, err := el.Attr(ctx, "value"); err == nil && ok && strings.TrimSpace(v) != "" {
			slog.Info("batch id extracted from DOM", "selector", sel, "batch_id", v)
			return v, nil
		}
		if text, err := el.Text(ctx); err == nil && strings.TrimSpace(text) != "" {
			text = strings.TrimSpace(text)
			slog.Info("batch id extracted from DOM text", "selector", sel, "batch_id", text)
			return text, nil
		}
	}

	return "", fmt.Errorf("batch id not found: url %q did not match %q and no fallback selector yielded a value",
		url, cfg.URLPattern)
}
