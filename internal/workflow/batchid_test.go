package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardflow/internal/browser/browsertest"
	"github.com/MeKo-Tech/cardflow/internal/config"
)

func batchIDConfig() config.BatchIDConfig {
	return config.BatchIDConfig{
		URLPattern:        config.DefaultBatchIDPattern,
		FallbackSelectors: config.DefaultBatchIDFallbacks,
	}
}

func TestExtractBatchIDFromURL(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://cdp.test/app/batches/abc-42/add/types")

	id, err := ExtractBatchID(context.Background(), d, batchIDConfig())
	require.NoError(t, err)
	assert.Equal(t, "abc-42", id)
}

func TestExtractBatchIDURLWinsOverDOM(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://cdp.test/app/batches/from-url/add")
	d.Add("", `input[name="batch_id"]`).WithValue("from-dom")

	id, err := ExtractBatchID(context.Background(), d, batchIDConfig())
	require.NoError(t, err)
	assert.Equal(t, "from-url", id)
}

func TestExtractBatchIDFallsBackToValueAttr(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://cdp.test/app/somewhere-else")
	d.Add("", `input[name="batch_id"]`).WithValue("B777")

	id, err := ExtractBatchID(context.Background(), d, batchIDConfig())
	require.NoError(t, err)
	assert.Equal(t, "B777", id)
}

func TestExtractBatchIDFallbackOrderAndText(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://cdp.test/app/somewhere-else")
	// First fallback is absent; the second carries the id as text.
	d.Add("", "[data-batch-id]").WithText(" B888 ")

	id, err := ExtractBatchID(context.Background(), d, batchIDConfig())
	require.NoError(t, err)
	assert.Equal(t, "B888", id)
}

func TestExtractBatchIDNothingFound(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://cdp.test/app/somewhere-else")

	_, err := ExtractBatchID(context.Background(), d, batchIDConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch id not found")
}

func TestExtractBatchIDBadPattern(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://cdp.test/app/batches/x/add")

	cfg := batchIDConfig()
	cfg.URLPattern = "(["

	_, err := ExtractBatchID(context.Background(), d, cfg)
	require.Error(t, err)
}
