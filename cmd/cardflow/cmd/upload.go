package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardflow/internal/browser"
	"github.com/MeKo-Tech/cardflow/internal/config"
	"github.com/MeKo-Tech/cardflow/internal/report"
	"github.com/MeKo-Tech/cardflow/internal/workflow"
)

// uploadCmd runs the batch-upload workflow for one or more folders.
var uploadCmd = &cobra.Command{
	Use:   "upload [folders...]",
	Short: "Create one upload batch per folder of card images",
	Long: `Run the full batch-creation workflow for each folder: reorient
images, log in, create the batch, upload the images, and stop at the
inspector view for manual review.

The first folder creates the browser session; later folders reuse it
and skip the login step. Without arguments the configured image_folder
is processed.

Examples:
  cardflow upload ./cards/A3
  cardflow upload A3 A4 A5 --headless
  cardflow upload ./cards/A3 --format json`,
	SilenceUsage: true,
	RunE:         runUploadCommand,
}

func runUploadCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := report.NewConsoleReporter(cmd.OutOrStdout())
	runner := workflow.NewRunner(cfg, creds, reporter,
		func(ctx context.Context) (browser.Driver, error) {
			return browser.NewChromeDriver(ctx, browser.ChromeOptions{Headless: cfg.Headless})
		})

	outcomes, runErr := runner.Run(ctx, args)

	// The report covers every attempted folder, also on interruption
	// and partial failure.
	if len(outcomes) > 0 {
		output, fmtErr := report.FormatOutcomes(outcomes, format)
		if fmtErr != nil {
			return fmt.Errorf("formatting report: %w", fmtErr)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprint(cmd.OutOrStdout(), output)
	}

	return runErr
}

func init() {
	uploadCmd.Flags().String("format", "text", "report format (text, json, csv)")
	rootCmd.AddCommand(uploadCmd)
}
