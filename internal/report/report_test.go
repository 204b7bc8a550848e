package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardflow/internal/workflow"
)

func sampleOutcomes() []workflow.Outcome {
	return []workflow.Outcome{
		{
			Folder:    "/cards/A3",
			BatchName: "A3",
			BatchID:   "B123",
			Status:    workflow.StatusSuccess,
			LastStep:  "inspector_view",
			Images:    3,
			Elapsed:   42 * time.Second,
		},
		{
			Folder:    "/cards/A4",
			BatchName: "A4",
			Status:    workflow.StatusFailed,
			LastStep:  "upload_images",
			LastErr:   "timeout waiting for visible: input[type=file]",
			Images:    2,
			Elapsed:   17 * time.Second,
		},
	}
}

func TestFormatTextIncludesEveryFolder(t *testing.T) {
	output, err := FormatOutcomes(sampleOutcomes(), "text")
	require.NoError(t, err)

	assert.Contains(t, output, "/cards/A3")
	assert.Contains(t, output, "/cards/A4")
	assert.Contains(t, output, "B123")
	assert.Contains(t, output, "upload_images")
	assert.Contains(t, output, "2 folder(s), 1 failed")
}

func TestFormatTextEmpty(t *testing.T) {
	output, err := FormatOutcomes(nil, "text")
	require.NoError(t, err)
	assert.Contains(t, output, "0 folder(s), 0 failed")
}

func TestFormatJSON(t *testing.T) {
	output, err := FormatOutcomes(sampleOutcomes(), "json")
	require.NoError(t, err)

	var parsed struct {
		Folders []map[string]any `json:"folders"`
		Failed  int              `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &parsed))
	require.Len(t, parsed.Folders, 2)
	assert.Equal(t, 1, parsed.Failed)
	assert.Equal(t, "B123", parsed.Folders[0]["batch_id"])
	assert.Equal(t, "failed", parsed.Folders[1]["status"])
}

func TestFormatCSV(t *testing.T) {
	output, err := FormatOutcomes(sampleOutcomes(), "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "folder,batch_name,batch_id,status"))
	assert.Contains(t, lines[1], "success")
	assert.Contains(t, lines[2], "upload_images")
}

func TestConsoleReporterStepLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	job := workflow.NewBatchJob("/cards/A3")
	r.JobStarted(job)
	r.StepStarted(job, "rotate_images")
	r.StepFinished(job, workflow.StepResult{Name: "rotate_images", OK: true, Elapsed: 120 * time.Millisecond})
	r.StepFinished(job, workflow.StepResult{
		Name: "login", OK: false, Elapsed: time.Second, Err: errors.New("bad credentials"),
	})
	job.Status = workflow.StatusFailed
	job.LastStep = "login"
	job.LastErr = "bad credentials"
	r.JobFinished(job)

	out := buf.String()
	assert.Contains(t, out, "=== A3 (folder: /cards/A3)")
	assert.Contains(t, out, "--> rotate_images")
	assert.Contains(t, out, "ok   rotate_images")
	assert.Contains(t, out, "FAIL login")
	assert.Contains(t, out, "=== A3 failed at login: bad credentials")
}
