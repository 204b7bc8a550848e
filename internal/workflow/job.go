// Package workflow drives the batch-upload step pipeline: a fixed
// ordered list of named steps executed against one folder at a time,
// with per-step timing, first-failure halt, and session reuse across
// folders.
package workflow

import (
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/images"
)

// Status is the terminal state of a BatchJob.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
)

// StepResult records one executed step. Exactly one StepResult exists
// per executed step per job attempt; skipped steps record nothing.
type StepResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Elapsed time.Duration `json:"elapsed"`
	Err     error         `json:"-"`
}

// BatchJob carries the processing state for one folder-to-remote-batch
// upload attempt. It is created per folder and mutated only by the
// orchestrator's step loop.
type BatchJob struct {
	Folder     string
	BatchName  string
	ImagePaths []string
	Stats      images.NameStats
	BatchID    string

	Steps     []StepResult
	StepTimes map[string]time.Duration
	Status    Status
	LastStep  string
	LastErr   string

	started time.Time
	Elapsed time.Duration
}

// NewBatchJob creates a pending job for a folder. The batch name
// defaults to the folder's base name and may be overridden before the
// run starts.
func NewBatchJob(folder string) *BatchJob {
	return &BatchJob{
		Folder:    folder,
		BatchName: filepath.Base(folder),
		StepTimes: make(map[string]time.Duration),
		Status:    StatusPending,
	}
}

// StepNames returns the names of the executed steps in order.
func (j *BatchJob) StepNames() []string {
	names := make([]string, len(j.Steps))
	for i, s := range j.Steps {
		names[i] = s.Name
	}
	return names
}
