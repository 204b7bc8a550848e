package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := Template()
	cfg.ImageFolder = t.TempDir()
	return cfg
}

func writeConfigFile(t *testing.T, cfg *Config, name string) string {
	t.Helper()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())
}

func TestValidate_MissingURLs(t *testing.T) {
	cfg := validConfig(t)
	cfg.URLs.Login = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "urls.login")

	cfg = validConfig(t)
	cfg.URLs.Batches = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "urls.batches")
}

func TestValidate_MissingSelectors(t *testing.T) {
	cfg := validConfig(t)
	delete(cfg.Selectors, "upload_file_input")
	delete(cfg.Selectors, "login_button")
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload_file_input")
	assert.Contains(t, err.Error(), "login_button")
}

func TestValidate_MissingImageFolder(t *testing.T) {
	cfg := validConfig(t)
	cfg.ImageFolder = filepath.Join(t.TempDir(), "does-not-exist")
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image folder does not exist")
}

func TestValidate_TimeoutBounds(t *testing.T) {
	cfg := validConfig(t)
	cfg.Timeouts.WaitSeconds = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig(t)
	cfg.Timeouts.LoginRetries = 0
	require.Error(t, cfg.Validate())

	cfg = validConfig(t)
	cfg.Timeouts.ClickRetries = 0
	require.Error(t, cfg.Validate())
}

func TestSelector_Custom(t *testing.T) {
	assert.False(t, Selector{CSS: "#a"}.Custom())
	assert.True(t, Selector{CSS: "#a", Variant: "custom"}.Custom())
	assert.True(t, Selector{CSS: "#a", Variant: "Custom"}.Custom())
}

func TestLoader_LoadWithFile(t *testing.T) {
	cfg := validConfig(t)
	path := writeConfigFile(t, cfg, "upload.yaml")

	loaded, err := NewIsolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.URLs.Login, loaded.URLs.Login)
	assert.Equal(t, cfg.GeneralSettings.BatchName, loaded.GeneralSettings.BatchName)
	assert.True(t, loaded.Selectors["batch_type_select"].Custom())

	// Defaults fill keys the file omits.
	assert.Equal(t, DefaultBatchIDPattern, loaded.BatchID.URLPattern)
}

func TestLoader_EnvOverridesNestedKeys(t *testing.T) {
	cfg := validConfig(t)
	path := writeConfigFile(t, cfg, "upload.yaml")

	t.Setenv("CARDFLOW_TIMEOUTS_WAIT_SECONDS", "99")
	t.Setenv("CARDFLOW_URLS_LOGIN", "https://env.example/login")

	loaded, err := NewIsolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 99, loaded.Timeouts.WaitSeconds)
	assert.Equal(t, "https://env.example/login", loaded.URLs.Login)
}

func TestLoader_LoadWithFile_JSON(t *testing.T) {
	dir := t.TempDir()
	imgDir := t.TempDir()
	path := filepath.Join(dir, "upload.json")
	body := `{
		"image_folder": "` + imgDir + `",
		"urls": {"login": "https://x/login", "batches": "https://x/batches"},
		"general_settings": {"batch_name": "B1"},
		"selectors": {`
	for i, name := range RequiredSelectors {
		if i > 0 {
			body += ","
		}
		body += `"` + name + `": {"css": "#` + name + `"}`
	}
	body += `}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	loaded, err := NewIsolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://x/login", loaded.URLs.Login)
	assert.Equal(t, 15, loaded.Timeouts.WaitSeconds)
	assert.Equal(t, DefaultBatchIDFallbacks, loaded.BatchID.FallbackSelectors)
}

func TestLoader_LoadWithFile_NotFound(t *testing.T) {
	_, err := NewIsolatedLoader().LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoader_LoadWithFile_InvalidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.URLs = URLConfig{}
	path := writeConfigFile(t, cfg, "bad.yaml")

	_, err := NewIsolatedLoader().LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv(EnvUsername, "dealer")
	t.Setenv(EnvPassword, "hunter2")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "dealer", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
}

func TestLoadCredentials_Missing(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	_, err := LoadCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvUsername)
}

func TestCredentials_StringRedacts(t *testing.T) {
	creds := Credentials{Username: "dealer", Password: "hunter2"}
	s := creds.String()
	assert.NotContains(t, s, "dealer")
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "redacted")
}

func TestWriteTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf))

	var cfg Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &cfg))
	for _, name := range RequiredSelectors {
		assert.NotEmpty(t, cfg.Selectors[name].CSS, "selector %s", name)
	}
	assert.Contains(t, buf.String(), "CARDFLOW_USERNAME")
}
