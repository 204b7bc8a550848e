package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config describes one upload run: the remote endpoints, the element
// selectors for every interactive control, the field values to enter,
// and the run options. It is loaded once before any batch starts and
// never mutated afterwards.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	Headless bool   `mapstructure:"headless" yaml:"headless" json:"headless"`

	// Default image folder for single-folder runs. Folder arguments on
	// the command line take precedence.
	ImageFolder string `mapstructure:"image_folder" yaml:"image_folder" json:"image_folder"`

	URLs            URLConfig           `mapstructure:"urls" yaml:"urls" json:"urls"`
	Selectors       map[string]Selector `mapstructure:"selectors" yaml:"selectors" json:"selectors"`
	GeneralSettings GeneralSettings     `mapstructure:"general_settings" yaml:"general_settings" json:"general_settings"`
	OptionalDetails map[string]string   `mapstructure:"optional_details" yaml:"optional_details" json:"optional_details"`
	Scan            ScanConfig          `mapstructure:"scan" yaml:"scan" json:"scan"`
	BatchID         BatchIDConfig       `mapstructure:"batch_id" yaml:"batch_id" json:"batch_id"`
	Timeouts        TimeoutConfig       `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
}

// URLConfig holds the named remote endpoints.
type URLConfig struct {
	Login   string `mapstructure:"login" yaml:"login" json:"login"`
	Batches string `mapstructure:"batches" yaml:"batches" json:"batches"`
}

// SelectorVariantCustom marks a dropdown that is not a native <select>
// and must be driven by click interaction.
const SelectorVariantCustom = "custom"

// Selector locates one interactive control on the remote UI.
type Selector struct {
	CSS     string `mapstructure:"css" yaml:"css" json:"css"`
	Variant string `mapstructure:"variant,omitempty" yaml:"variant,omitempty" json:"variant,omitempty"`
}

// Custom reports whether the selector describes a non-native dropdown.
func (s Selector) Custom() bool {
	return strings.EqualFold(s.Variant, SelectorVariantCustom)
}

// GeneralSettings holds the required form values for the first page of
// batch creation. Dropdown values must match the visible option text.
type GeneralSettings struct {
	BatchName     string `mapstructure:"batch_name" yaml:"batch_name" json:"batch_name"`
	BatchType     string `mapstructure:"batch_type" yaml:"batch_type" json:"batch_type"`
	SportType     string `mapstructure:"sport_type" yaml:"sport_type" json:"sport_type"`
	TitleTemplate string `mapstructure:"title_template" yaml:"title_template" json:"title_template"`
	Description   string `mapstructure:"description" yaml:"description" json:"description"`
}

// ScanConfig holds the per-run scan and card-side options applied after
// batch creation.
type ScanConfig struct {
	Sides       string `mapstructure:"sides" yaml:"sides" json:"sides"`
	Orientation string `mapstructure:"orientation" yaml:"orientation" json:"orientation"`
}

// BatchIDConfig controls how the remote batch identifier is recovered
// after the create form submits. The URL regex is always tried first;
// the fallback selectors run in declared order only when it misses.
type BatchIDConfig struct {
	URLPattern        string   `mapstructure:"url_pattern" yaml:"url_pattern" json:"url_pattern"`
	FallbackSelectors []string `mapstructure:"fallback_selectors" yaml:"fallback_selectors" json:"fallback_selectors"`
}

// TimeoutConfig bounds the wait and retry behavior of the browser
// layers. All waits share one ceiling; retries are per-operation.
type TimeoutConfig struct {
	WaitSeconds        int `mapstructure:"wait_seconds" yaml:"wait_seconds" json:"wait_seconds"`
	PollMillis         int `mapstructure:"poll_millis" yaml:"poll_millis" json:"poll_millis"`
	LoginRetries       int `mapstructure:"login_retries" yaml:"login_retries" json:"login_retries"`
	ClickRetries       int `mapstructure:"click_retries" yaml:"click_retries" json:"click_retries"`
	RetryPauseMillis   int `mapstructure:"retry_pause_millis" yaml:"retry_pause_millis" json:"retry_pause_millis"`
	UploadSettleMillis int `mapstructure:"upload_settle_millis" yaml:"upload_settle_millis" json:"upload_settle_millis"`
}

// Wait returns the per-call wait ceiling.
func (t TimeoutConfig) Wait() time.Duration {
	return time.Duration(t.WaitSeconds) * time.Second
}

// Poll returns the wait-layer polling interval.
func (t TimeoutConfig) Poll() time.Duration {
	return time.Duration(t.PollMillis) * time.Millisecond
}

// RetryPause returns the pause between click/login retry attempts.
func (t TimeoutConfig) RetryPause() time.Duration {
	return time.Duration(t.RetryPauseMillis) * time.Millisecond
}

// UploadSettle returns the pause granted to the remote UI between the
// file upload and the click on the upload-continue control.
func (t TimeoutConfig) UploadSettle() time.Duration {
	return time.Duration(t.UploadSettleMillis) * time.Millisecond
}

// RequiredSelectors lists the selector keys every workflow run needs.
var RequiredSelectors = []string{
	"username_input",
	"password_input",
	"login_button",
	"create_batch_button",
	"batch_name_input",
	"batch_type_select",
	"sport_type_select",
	"title_template_select",
	"description_input",
	"continue_button_general",
	"create_batch_submit",
	"magic_scan_button",
	"sides_continue_button",
	"upload_file_input",
	"upload_continue_button",
}

// Validate checks that the configuration has every field a workflow run
// depends on. Validation failures are fatal and never retried.
func (c *Config) Validate() error {
	if c.URLs.Login == "" {
		return fmt.Errorf("missing required config key: urls.login")
	}
	if c.URLs.Batches == "" {
		return fmt.Errorf("missing required config key: urls.batches")
	}
	if len(c.Selectors) == 0 {
		return fmt.Errorf("missing required config section: selectors")
	}
	var missing []string
	for _, name := range RequiredSelectors {
		if sel, ok := c.Selectors[name]; !ok || sel.CSS == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required selectors: %s", strings.Join(missing, ", "))
	}
	if c.GeneralSettings.BatchName == "" && c.ImageFolder == "" {
		// Batch names derive from the folder name when unset, so one of
		// the two must be present for single-folder runs.
		return fmt.Errorf("missing required config key: general_settings.batch_name (or image_folder)")
	}
	if c.ImageFolder != "" {
		info, err := os.Stat(c.ImageFolder)
		if err != nil {
			return fmt.Errorf("image folder does not exist: %s", c.ImageFolder)
		}
		if !info.IsDir() {
			return fmt.Errorf("image folder is not a directory: %s", c.ImageFolder)
		}
	}
	if err := c.Timeouts.validate(); err != nil {
		return err
	}
	return nil
}

func (t TimeoutConfig) validate() error {
	if t.WaitSeconds <= 0 {
		return fmt.Errorf("timeouts.wait_seconds must be positive, got %d", t.WaitSeconds)
	}
	if t.LoginRetries < 1 {
		return fmt.Errorf("timeouts.login_retries must be at least 1, got %d", t.LoginRetries)
	}
	if t.ClickRetries < 1 {
		return fmt.Errorf("timeouts.click_retries must be at least 1, got %d", t.ClickRetries)
	}
	return nil
}

// Selector returns the CSS string for a named selector, or empty when
// the key is not configured.
func (c *Config) Selector(name string) string {
	return c.Selectors[name].CSS
}
