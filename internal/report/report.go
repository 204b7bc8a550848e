// Package report renders per-folder run outcomes and streams step
// progress to the console.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/workflow"
)

// FormatOutcomes renders the final run report in the specified format.
func FormatOutcomes(outcomes []workflow.Outcome, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(outcomes)
	case "csv":
		return formatCSV(outcomes)
	default: // text
		return formatText(outcomes)
	}
}

// formatJSON formats outcomes as JSON.
func formatJSON(outcomes []workflow.Outcome) (string, error) {
	type row struct {
		Folder    string `json:"folder"`
		BatchName string `json:"batch_name"`
		BatchID   string `json:"batch_id,omitempty"`
		Status    string `json:"status"`
		LastStep  string `json:"last_step,omitempty"`
		LastError string `json:"last_error,omitempty"`
		Images    int    `json:"images"`
		ElapsedMS int64  `json:"elapsed_ms"`
	}

	result := struct {
		Folders []row `json:"folders"`
		Failed  int   `json:"failed"`
	}{Folders: make([]row, len(outcomes))}

	for i, o := range outcomes {
		result.Folders[i] = row{
			Folder:    o.Folder,
			BatchName: o.BatchName,
			BatchID:   o.BatchID,
			Status:    string(o.Status),
			LastStep:  o.LastStep,
			LastError: o.LastErr,
			Images:    o.Images,
			ElapsedMS: o.Elapsed.Milliseconds(),
		}
		if o.Status != workflow.StatusSuccess {
			result.Failed++
		}
	}

	bts, err := json.MarshalIndent(result, "", "  ")
	return string(bts), err
}

// formatCSV formats outcomes as CSV.
func formatCSV(outcomes []workflow.Outcome) (string, error) {
	rows := [][]string{
		{"folder", "batch_name", "batch_id", "status", "last_step", "last_error", "images", "elapsed"},
	}
	for _, o := range outcomes {
		rows = append(rows, []string{
			o.Folder,
			o.BatchName,
			o.BatchID,
			string(o.Status),
			o.LastStep,
			o.LastErr,
			strconv.Itoa(o.Images),
			o.Elapsed.Round(time.Millisecond).String(),
		})
	}

	var output strings.Builder
	writer := csv.NewWriter(&output)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), nil
}

// formatText formats outcomes as an aligned table.
func formatText(outcomes []workflow.Outcome) (string, error) {
	var output strings.Builder
	w := tabwriter.NewWriter(&output, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "FOLDER\tBATCH\tBATCH ID\tSTATUS\tLAST STEP\tIMAGES\tELAPSED\tERROR")
	failed := 0
	for _, o := range outcomes {
		if o.Status != workflow.StatusSuccess {
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			o.Folder,
			o.BatchName,
			orDash(o.BatchID),
			o.Status,
			orDash(o.LastStep),
			o.Images,
			o.Elapsed.Round(time.Millisecond),
			orDash(o.LastErr),
		)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	fmt.Fprintf(&output, "\n%d folder(s), %d failed\n", len(outcomes), failed)
	return output.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
