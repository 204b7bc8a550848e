package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const templateHeader = `# cardflow upload configuration.
# Update every selector to match the remote site before running.
# Credentials are NOT stored here: set CARDFLOW_USERNAME and
# CARDFLOW_PASSWORD in the environment or a .env file.
`

// Template returns a starter configuration with every required selector
// key present and the documented defaults filled in.
func Template() *Config {
	selectors := make(map[string]Selector, len(RequiredSelectors))
	for _, name := range RequiredSelectors {
		selectors[name] = Selector{CSS: "#" + name}
	}
	selectors["batch_type_select"] = Selector{
		CSS:     "#batch_type_select",
		Variant: SelectorVariantCustom,
	}

	return &Config{
		LogLevel:    "info",
		ImageFolder: "./images",
		URLs: URLConfig{
			Login:   "https://example.com/login",
			Batches: "https://example.com/batches",
		},
		Selectors: selectors,
		GeneralSettings: GeneralSettings{
			BatchName:     "My Batch",
			BatchType:     "Standard",
			SportType:     "Baseball",
			TitleTemplate: "Default",
			Description:   "Uploaded by cardflow",
		},
		OptionalDetails: map[string]string{},
		Scan: ScanConfig{
			Sides: "front_and_back",
		},
		BatchID: BatchIDConfig{
			URLPattern:        DefaultBatchIDPattern,
			FallbackSelectors: DefaultBatchIDFallbacks,
		},
		Timeouts: TimeoutConfig{
			WaitSeconds:        15,
			PollMillis:         250,
			LoginRetries:       3,
			ClickRetries:       3,
			RetryPauseMillis:   1000,
			UploadSettleMillis: 3000,
		},
	}
}

// WriteTemplate renders the starter configuration as commented YAML.
func WriteTemplate(w io.Writer) error {
	if _, err := io.WriteString(w, templateHeader); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Template()); err != nil {
		return fmt.Errorf("encoding config template: %w", err)
	}
	return enc.Close()
}
