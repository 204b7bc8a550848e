package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/browser"
	"github.com/MeKo-Tech/cardflow/internal/config"
)

// Outcome is the per-folder record collected by the Runner.
type Outcome struct {
	Folder    string        `json:"folder"`
	BatchName string        `json:"batch_name"`
	BatchID   string        `json:"batch_id,omitempty"`
	Status    Status        `json:"status"`
	LastStep  string        `json:"last_step,omitempty"`
	LastErr   string        `json:"last_error,omitempty"`
	Images    int           `json:"images"`
	Elapsed   time.Duration `json:"elapsed"`
}

// DriverFactory creates the browser session. Injected so the Runner
// never depends on a concrete browser.
type DriverFactory func(ctx context.Context) (browser.Driver, error)

// Runner iterates folders sequentially over one shared browser
// session. The first folder creates the session; later folders borrow
// it with login skipped. The session is released after the last folder
// or on fatal error.
type Runner struct {
	cfg       *config.Config
	creds     config.Credentials
	reporter  Reporter
	newDriver DriverFactory
}

// NewRunner creates a Runner. reporter may be nil.
func NewRunner(cfg *config.Config, creds config.Credentials, reporter Reporter, factory DriverFactory) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Runner{cfg: cfg, creds: creds, reporter: reporter, newDriver: factory}
}

// Run processes every folder in order and returns one Outcome per
// attempted folder, in attempt order. Outcomes are always returned,
// also on interruption and on fatal errors, so the caller can emit a
// complete report. The error is non-nil when any folder did not
// succeed.
func (r *Runner) Run(ctx context.Context, folders []string) ([]Outcome, error) {
	if len(folders) == 0 {
		if r.cfg.ImageFolder == "" {
			return nil, fmt.Errorf("no folders given and no image_folder configured")
		}
		folders = []string{r.cfg.ImageFolder}
	}

	var (
		outcomes     []Outcome
		driver       browser.Driver
		orchestrator *Orchestrator
		failures     int
	)

	defer func() {
		if driver != nil {
			if err := driver.Quit(context.Background()); err != nil {
				slog.Warn("browser session did not close cleanly", "error", err)
			}
		}
	}()

	for i, arg := range folders {
		if err := ctx.Err(); err != nil {
			slog.Warn("run interrupted, remaining folders skipped",
				"attempted", i, "total", len(folders))
			break
		}

		folder := r.resolveFolder(arg)
		job := NewBatchJob(folder)
		if len(folders) == 1 && r.cfg.GeneralSettings.BatchName != "" {
			job.BatchName = r.cfg.GeneralSettings.BatchName
		}

		if driver == nil {
			d, err := r.newDriver(ctx)
			if err != nil {
				outcomes = append(outcomes, Outcome{
					Folder:    folder,
					BatchName: job.BatchName,
					Status:    StatusErrored,
					LastErr:   fmt.Sprintf("browser session: %v", err),
				})
				return outcomes, fmt.Errorf("create browser session: %w", err)
			}
			driver = d
			orchestrator = NewOrchestrator(driver, r.cfg, r.creds, r.reporter)
		}

		skipLogin := i > 0
		if err := orchestrator.Run(ctx, job, skipLogin); err != nil {
			failures++
			slog.Error("batch failed", "folder", folder, "step", job.LastStep, "error", err)
		}
		outcomes = append(outcomes, outcomeFor(job))
	}

	if failures > 0 {
		return outcomes, fmt.Errorf("%d of %d folders failed", failures, len(outcomes))
	}
	if len(outcomes) < len(folders) {
		return outcomes, fmt.Errorf("interrupted: %d of %d folders attempted", len(outcomes), len(folders))
	}
	return outcomes, nil
}

// resolveFolder accepts either a path or a bare folder name relative to
// the configured image folder's parent.
func (r *Runner) resolveFolder(arg string) string {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg
	}
	if r.cfg.ImageFolder != "" {
		candidate := filepath.Join(filepath.Dir(r.cfg.ImageFolder), arg)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	return arg
}

func outcomeFor(job *BatchJob) Outcome {
	return Outcome{
		Folder:    job.Folder,
		BatchName: job.BatchName,
		BatchID:   job.BatchID,
		Status:    job.Status,
		LastStep:  job.LastStep,
		LastErr:   job.LastErr,
		Images:    len(job.ImagePaths),
		Elapsed:   job.Elapsed,
	}
}
