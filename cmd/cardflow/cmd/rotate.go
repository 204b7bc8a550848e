package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardflow/internal/images"
)

// rotateCmd runs the image reorientation pass without any browser work.
var rotateCmd = &cobra.Command{
	Use:   "rotate <folder>",
	Short: "Reorient card images in a folder",
	Long: `Reorient the card images in a folder without running the upload
workflow.

By default filenames decide the orientation: files containing "front"
get EXIF orientation 8, files containing "back" get 6, everything else
is left untouched. With --exif the stored EXIF orientation is read
instead and the corresponding pixel transform applied; rotated JPEG
copies go into a rotated_images subfolder, other formats are rotated
in place.

Examples:
  cardflow rotate ./cards/A3
  cardflow rotate ./cards/A3 --exif`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runRotateCommand,
}

func runRotateCommand(cmd *cobra.Command, args []string) error {
	folder := args[0]
	byEXIF, _ := cmd.Flags().GetBool("exif")
	quiet, _ := cmd.Flags().GetBool("quiet")

	var progress images.ProgressCallback = images.NoOpProgressCallback{}
	if !quiet {
		progress = images.NewConsoleProgressCallback(cmd.OutOrStdout(), "rotating")
	}

	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	if byEXIF {
		result, err := images.RotateByEXIF(folder, progress)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "total\t%d\n", result.Stats.Total)
		fmt.Fprintf(w, "rotated\t%d\n", result.Stats.Rotated)
		fmt.Fprintf(w, "skipped\t%d\n", result.Stats.Skipped)
		fmt.Fprintf(w, "errors\t%d\n", result.Stats.Errors)
		if err := w.Flush(); err != nil {
			return err
		}
		printFailures(out, result.Failed)
		if result.Stats.Errors > 0 {
			return fmt.Errorf("%d file(s) failed", result.Stats.Errors)
		}
		return nil
	}

	result, err := images.RotateByName(folder, progress)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "total\t%d\n", result.Stats.Total)
	fmt.Fprintf(w, "front\t%d\n", result.Stats.Front)
	fmt.Fprintf(w, "back\t%d\n", result.Stats.Back)
	fmt.Fprintf(w, "skipped\t%d\n", result.Stats.Skipped)
	fmt.Fprintf(w, "errors\t%d\n", result.Stats.Errors)
	if err := w.Flush(); err != nil {
		return err
	}
	printFailures(out, result.Failed)
	if result.Stats.Errors > 0 {
		return fmt.Errorf("%d file(s) failed", result.Stats.Errors)
	}
	return nil
}

func printFailures(out io.Writer, failed []images.FileError) {
	for _, f := range failed {
		fmt.Fprintf(out, "failed: %s: %s\n", f.Path, f.Err)
	}
}

func init() {
	rotateCmd.Flags().Bool("exif", false, "rotate by stored EXIF orientation instead of filename")
	rotateCmd.Flags().Bool("quiet", false, "suppress the progress bar")
	rootCmd.AddCommand(rotateCmd)
}
