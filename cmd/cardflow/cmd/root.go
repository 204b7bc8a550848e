package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/cardflow/internal/config"
	"github.com/MeKo-Tech/cardflow/internal/version"
)

// Configuration file path from the --config flag.
var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cardflow",
	Short: "Card image upload automation for batch creation",
	Long: `Cardflow automates the card-upload batch workflow on a remote
batch-creation site: it reorients card images via EXIF metadata, logs
in, fills the batch forms, uploads the images, and stops at the
inspector view for manual review.

Endpoints, element selectors, and form values come from a config file;
credentials come from CARDFLOW_USERNAME and CARDFLOW_PASSWORD (a .env
file is picked up automatically).

Examples:
  cardflow upload ./cards/A3
  cardflow upload A3 A4 --headless
  cardflow rotate ./cards/A3 --exif
  cardflow config init > cardflow.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			ver, commit, date := version.Info()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cardflow version %s\n", ver)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", commit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", date)
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/cardflow, /etc/cardflow)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("headless", false, "run the browser without a visible window")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("headless", rootCmd.PersistentFlags().Lookup("headless"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Credentials live in a dotfile; config/.env is preferred, the
		// repository root .env is the fallback.
		_ = godotenv.Load("config/.env")
		_ = godotenv.Load()

		var logLevel slog.Level
		if viper.GetBool("verbose") {
			logLevel = slog.LevelDebug
		} else {
			switch viper.GetString("log_level") {
			case "debug":
				logLevel = slog.LevelDebug
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// loadConfig loads and validates the run configuration, honoring the
// --config flag.
func loadConfig() (*config.Config, error) {
	loader := config.NewLoader()
	if cfgFile != "" {
		return loader.LoadWithFile(cfgFile)
	}
	return loader.Load()
}
