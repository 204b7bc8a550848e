package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/auth"
	"github.com/MeKo-Tech/cardflow/internal/browser"
	"github.com/MeKo-Tech/cardflow/internal/config"
	"github.com/MeKo-Tech/cardflow/internal/form"
	"github.com/MeKo-Tech/cardflow/internal/images"
	"github.com/MeKo-Tech/cardflow/internal/wait"
)

// Reporter receives step and job lifecycle events. The orchestrator
// itself does no printing.
type Reporter interface {
	JobStarted(job *BatchJob)
	StepStarted(job *BatchJob, name string)
	StepFinished(job *BatchJob, result StepResult)
	JobFinished(job *BatchJob)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) JobStarted(*BatchJob)               {}
func (NopReporter) StepStarted(*BatchJob, string)      {}
func (NopReporter) StepFinished(*BatchJob, StepResult) {}
func (NopReporter) JobFinished(*BatchJob)              {}

// Orchestrator executes the declared step sequence for one job at a
// time over a single browser session.
type Orchestrator struct {
	driver   browser.Driver
	waiter   *wait.Waiter
	filler   *form.Filler
	auth     *auth.Authenticator
	cfg      *config.Config
	creds    config.Credentials
	reporter Reporter
	progress images.ProgressCallback
}

// NewOrchestrator wires the browser layers from the configuration. A
// nil reporter falls back to NopReporter.
func NewOrchestrator(driver browser.Driver, cfg *config.Config, creds config.Credentials, reporter Reporter) *Orchestrator {
	if reporter == nil {
		reporter = NopReporter{}
	}
	waiter := wait.New(driver, cfg.Timeouts.Wait(), cfg.Timeouts.Poll())
	filler := form.New(driver, waiter, cfg.Timeouts.RetryPause())
	authenticator := auth.New(driver, waiter, filler, auth.Options{
		LoginURL:        cfg.URLs.Login,
		UsernameField:   cfg.Selector("username_input"),
		PasswordField:   cfg.Selector("password_input"),
		LoginButton:     cfg.Selector("login_button"),
		SuccessFragment: cfg.URLs.Batches,
		MaxAttempts:     cfg.Timeouts.LoginRetries,
		Pause:           cfg.Timeouts.RetryPause(),
	})
	return &Orchestrator{
		driver:   driver,
		waiter:   waiter,
		filler:   filler,
		auth:     authenticator,
		cfg:      cfg,
		creds:    creds,
		reporter: reporter,
		progress: images.NoOpProgressCallback{},
	}
}

// SetProgress installs a progress callback for the image pipeline.
func (o *Orchestrator) SetProgress(p images.ProgressCallback) {
	if p != nil {
		o.progress = p
	}
}

// Run executes every declared step in order, recording one StepResult
// per executed step. The first failing step halts the job with no
// rollback. With skipLogin set, the login step is omitted entirely and
// produces no StepResult.
func (o *Orchestrator) Run(ctx context.Context, job *BatchJob, skipLogin bool) error {
	job.Status = StatusRunning
	job.started = time.Now()
	o.reporter.JobStarted(job)
	defer func() {
		job.Elapsed = time.Since(job.started)
		o.reporter.JobFinished(job)
	}()

	for _, step := range o.steps() {
		if skipLogin && step.SkipOnReuse {
			slog.Info("reusing authenticated session, step skipped", "step", step.Name)
			continue
		}

		o.reporter.StepStarted(job, step.Name)
		start := time.Now()
		err := step.Run(ctx, job)
		result := StepResult{Name: step.Name, OK: err == nil, Elapsed: time.Since(start), Err: err}
		job.Steps = append(job.Steps, result)
		job.StepTimes[step.Name] = result.Elapsed
		job.LastStep = step.Name
		o.reporter.StepFinished(job, result)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				job.Status = StatusErrored
			} else {
				job.Status = StatusFailed
			}
			job.LastErr = err.Error()
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
	}

	job.Status = StatusSuccess
	return nil
}

func (o *Orchestrator) rotateImages(_ context.Context, job *BatchJob) error {
	result, err := images.RotateByName(job.Folder, o.progress)
	if err != nil {
		return err
	}
	job.Stats = result.Stats
	job.ImagePaths = result.ReadyPaths
	if len(job.ImagePaths) == 0 {
		return fmt.Errorf("no images available for upload in %s", job.Folder)
	}
	slog.Info("images ready for upload",
		"folder", job.Folder, "count", len(job.ImagePaths), "summary", result.Stats.Summary())
	return nil
}

func (o *Orchestrator) login(ctx context.Context, _ *BatchJob) error {
	return o.auth.Login(ctx, o.creds)
}

func (o *Orchestrator) navigateBatches(ctx context.Context, _ *BatchJob) error {
	if err := o.driver.Navigate(ctx, o.cfg.URLs.Batches); err != nil {
		return fmt.Errorf("navigate to batches page: %w", err)
	}
	_, err := o.waiter.UntilVisible(ctx, o.cfg.Selector("create_batch_button"))
	return err
}

func (o *Orchestrator) clickCreateBatch(ctx context.Context, _ *BatchJob) error {
	if err := o.filler.Click(ctx, o.cfg.Selector("create_batch_button"),
		"create batch", o.cfg.Timeouts.ClickRetries); err != nil {
		return err
	}
	return o.waiter.UntilURLContains(ctx, fragGeneralSettings)
}

func (o *Orchestrator) fillGeneralSettings(ctx context.Context, job *BatchJob) error {
	settings := o.cfg.GeneralSettings

	name := job.BatchName
	if name == "" {
		name = settings.BatchName
	}
	if err := o.filler.FillText(ctx, o.cfg.Selector("batch_name_input"), name, "batch name"); err != nil {
		return err
	}

	selects := []struct {
		key, value, label string
	}{
		{"batch_type_select", settings.BatchType, "batch type"},
		{"sport_type_select", settings.SportType, "sport type"},
		{"title_template_select", settings.TitleTemplate, "title template"},
	}
	for _, s := range selects {
		sel := o.cfg.Selectors[s.key]
		if err := o.filler.SelectOption(ctx, sel.CSS, s.value, s.label, sel.Custom()); err != nil {
			return err
		}
	}

	return o.filler.FillText(ctx, o.cfg.Selector("description_input"), settings.Description, "description")
}

func (o *Orchestrator) continueGeneralSettings(ctx context.Context, _ *BatchJob) error {
	if err := o.filler.Click(ctx, o.cfg.Selector("continue_button_general"),
		"continue (general settings)", o.cfg.Timeouts.ClickRetries); err != nil {
		return err
	}
	return o.waiter.UntilURLContains(ctx, fragOptionalDetails)
}

// fillOptionalDetails fills the free-form optional fields. A missing
// selector or a failed field is logged and skipped, never terminal for
// the step.
func (o *Orchestrator) fillOptionalDetails(ctx context.Context, _ *BatchJob) error {
	if len(o.cfg.OptionalDetails) == 0 {
		slog.Debug("no optional details configured")
		return nil
	}

	names := make([]string, 0, len(o.cfg.OptionalDetails))
	for name := range o.cfg.OptionalDetails {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := o.cfg.OptionalDetails[name]
		sel, ok := o.cfg.Selectors["optional_"+name]
		if !ok || sel.CSS == "" {
			slog.Warn("no selector configured for optional field", "field", name)
			continue
		}

		var err error
		switch kind := fieldKindFor(sel, value); kind {
		case FieldCustomSelect:
			err = o.filler.SelectOption(ctx, sel.CSS, value, name, true)
		case FieldSelect:
			err = o.filler.SelectOption(ctx, sel.CSS, value, name, false)
		case FieldClick:
			err = o.filler.Click(ctx, sel.CSS, name, o.cfg.Timeouts.ClickRetries)
		default:
			err = o.filler.FillText(ctx, sel.CSS, value, name)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Warn("optional field not filled", "field", name, "error", err)
		}
	}
	return nil
}

func (o *Orchestrator) createBatch(ctx context.Context, _ *BatchJob) error {
	if err := o.filler.Click(ctx, o.cfg.Selector("create_batch_submit"),
		"create batch (submit)", o.cfg.Timeouts.ClickRetries); err != nil {
		return err
	}
	return o.waiter.UntilURLContains(ctx, fragBatchCreated)
}

func (o *Orchestrator) extractBatchID(ctx context.Context, job *BatchJob) error {
	id, err := ExtractBatchID(ctx, o.driver, o.cfg.BatchID)
	if err != nil {
		return err
	}
	job.BatchID = id
	return nil
}

func (o *Orchestrator) clickMagicScan(ctx context.Context, _ *BatchJob) error {
	if err := o.filler.Click(ctx, o.cfg.Selector("magic_scan_button"),
		"magic scan", o.cfg.Timeouts.ClickRetries); err != nil {
		return err
	}
	return o.waiter.UntilURLContains(ctx, fragSides)
}

// selectSides applies the configured side and orientation choices when
// their selectors exist, then continues to the upload page.
func (o *Orchestrator) selectSides(ctx context.Context, _ *BatchJob) error {
	scanFields := []struct {
		key, value, label string
	}{
		{"sides_select", o.cfg.Scan.Sides, "card sides"},
		{"orientation_select", o.cfg.Scan.Orientation, "card orientation"},
	}
	for _, f := range scanFields {
		sel, ok := o.cfg.Selectors[f.key]
		if !ok || sel.CSS == "" || f.value == "" {
			continue
		}
		if err := o.filler.SelectOption(ctx, sel.CSS, f.value, f.label, sel.Custom()); err != nil {
			return err
		}
	}

	if err := o.filler.Click(ctx, o.cfg.Selector("sides_continue_button"),
		"continue (sides)", o.cfg.Timeouts.ClickRetries); err != nil {
		return err
	}
	return o.waiter.UntilURLContains(ctx, fragUpload)
}

func (o *Orchestrator) uploadImages(ctx context.Context, job *BatchJob) error {
	return o.filler.UploadFiles(ctx, o.cfg.Selector("upload_file_input"), job.ImagePaths)
}

// continueUpload grants the remote UI a settle pause for upload
// processing before clicking through.
func (o *Orchestrator) continueUpload(ctx context.Context, _ *BatchJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.cfg.Timeouts.UploadSettle()):
	}
	return o.filler.Click(ctx, o.cfg.Selector("upload_continue_button"),
		"continue (upload)", o.cfg.Timeouts.ClickRetries)
}

// inspectorView is the terminal step: the batch is left on the review
// screen for manual validation.
func (o *Orchestrator) inspectorView(ctx context.Context, job *BatchJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.cfg.Timeouts.UploadSettle()):
	}
	slog.Info("reached inspector view, stopping for manual review",
		"batch_id", job.BatchID, "folder", job.Folder)
	return nil
}
