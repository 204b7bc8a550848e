package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardflow/internal/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := GetRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "cardflow", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	output, err := execute(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "batch workflow")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "upload")
	assert.Contains(t, output, "rotate")
}

func TestRootCommandVersion(t *testing.T) {
	output, err := execute(t, "--version")
	require.NoError(t, err)

	assert.Contains(t, output, "cardflow version")
	assert.Contains(t, output, "Commit:")
}

func TestRotateCommandTagMode(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.WriteImageDir(t, dir, "front.jpg", "back.jpg", "extra.jpg")

	output, err := execute(t, "rotate", dir, "--quiet")
	require.NoError(t, err)

	assert.Contains(t, output, "total")
	assert.Contains(t, output, "front")
	assert.Contains(t, output, "back")
}

func TestRotateCommandEXIFMode(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.WriteImageDir(t, dir, "card1.jpg")

	output, err := execute(t, "rotate", dir, "--exif", "--quiet")
	require.NoError(t, err)

	assert.Contains(t, output, "rotated")
	assert.Contains(t, output, "skipped")
}

func TestRotateCommandMissingFolderIsEmptyResult(t *testing.T) {
	output, err := execute(t, "rotate", "/does/not/exist", "--quiet")
	require.NoError(t, err)
	assert.Contains(t, output, "total")
}

func TestRotateCommandRequiresOneArg(t *testing.T) {
	_, err := execute(t, "rotate")
	require.Error(t, err)
}

func TestConfigInitWritesTemplate(t *testing.T) {
	output, err := execute(t, "config", "init")
	require.NoError(t, err)

	assert.Contains(t, output, "urls:")
	assert.Contains(t, output, "selectors:")
	assert.Contains(t, output, "username_input")
}

func TestConfigInitToFileRefusesOverwrite(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, "cardflow.yaml")

	_, err := execute(t, "config", "init", "--output", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "selectors:")

	_, err = execute(t, "config", "init", "--output", path)
	require.Error(t, err)
}

func TestUploadCommandFailsWithoutConfig(t *testing.T) {
	// No config file anywhere near the temp working directory, so
	// validation fails before any browser work.
	dir := testutil.CreateTempDir(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = execute(t, "upload", dir)
	require.Error(t, err)
}
