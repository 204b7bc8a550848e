package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/workflow"
)

// ConsoleReporter implements workflow.Reporter on a plain writer,
// printing one line per step and a short banner per job.
type ConsoleReporter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewConsoleReporter creates a reporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{writer: w}
}

// JobStarted implements workflow.Reporter.
func (c *ConsoleReporter) JobStarted(job *workflow.BatchJob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, "=== %s (folder: %s)\n", job.BatchName, job.Folder)
}

// StepStarted implements workflow.Reporter.
func (c *ConsoleReporter) StepStarted(_ *workflow.BatchJob, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.writer, "--> %s\n", name)
}

// StepFinished implements workflow.Reporter.
func (c *ConsoleReporter) StepFinished(_ *workflow.BatchJob, result workflow.StepResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if result.OK {
		fmt.Fprintf(c.writer, "    ok   %s (%s)\n", result.Name, result.Elapsed.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(c.writer, "    FAIL %s (%s): %v\n", result.Name, result.Elapsed.Round(time.Millisecond), result.Err)
}

// JobFinished implements workflow.Reporter.
func (c *ConsoleReporter) JobFinished(job *workflow.BatchJob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch job.Status {
	case workflow.StatusSuccess:
		fmt.Fprintf(c.writer, "=== %s done: batch %s, %d images (%s)\n",
			job.BatchName, orDash(job.BatchID), len(job.ImagePaths), job.Elapsed.Round(time.Millisecond))
	default:
		fmt.Fprintf(c.writer, "=== %s %s at %s: %s\n",
			job.BatchName, job.Status, job.LastStep, job.LastErr)
	}
}
