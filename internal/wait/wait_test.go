package wait

import (
	"context"
	"testing"
	"time"

	"github.com/MeKo-Tech/cardflow/internal/browser"
	"github.com/MeKo-Tech/cardflow/internal/browser/browsertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTimeout = 200 * time.Millisecond
	testPoll    = 5 * time.Millisecond
)

func newWaiter(d *browsertest.FakeDriver) *Waiter {
	return New(d, testTimeout, testPoll)
}

func TestUntilVisible_Immediate(t *testing.T) {
	d := browsertest.New()
	d.Add("", "#field")

	el, err := newWaiter(d).UntilVisible(context.Background(), "#field")
	require.NoError(t, err)
	require.NotNil(t, el)
}

func TestUntilVisible_LateRender(t *testing.T) {
	d := browsertest.New()
	d.Add("", "#field").VisibleAfterPolls(3)

	el, err := newWaiter(d).UntilVisible(context.Background(), "#field")
	require.NoError(t, err)
	require.NotNil(t, el)
}

func TestUntilVisible_Timeout(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://x/page")

	_, err := newWaiter(d).UntilVisible(context.Background(), "#missing")
	require.Error(t, err)
	assert.True(t, browser.IsTimeout(err))

	var terr *browser.TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "#missing", terr.Target)
	assert.Equal(t, "https://x/page", terr.CurrentURL)
}

func TestUntilVisible_HiddenElementTimesOut(t *testing.T) {
	d := browsertest.New()
	d.Add("", "#hidden").WithVisible(false)

	_, err := newWaiter(d).UntilVisible(context.Background(), "#hidden")
	assert.True(t, browser.IsTimeout(err))
}

func TestUntilClickable(t *testing.T) {
	d := browsertest.New()
	d.Add("", "#btn")

	el, err := newWaiter(d).UntilClickable(context.Background(), "#btn")
	require.NoError(t, err)
	require.NotNil(t, el)
}

func TestUntilClickable_DisabledTimesOut(t *testing.T) {
	d := browsertest.New()
	d.Add("", "#btn").WithEnabled(false)

	_, err := newWaiter(d).UntilClickable(context.Background(), "#btn")
	assert.True(t, browser.IsTimeout(err))
}

func TestUntilURLContains(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://x/login")

	go func() {
		time.Sleep(20 * time.Millisecond)
		d.SetURL("https://x/batches")
	}()

	err := newWaiter(d).UntilURLContains(context.Background(), "/batches")
	require.NoError(t, err)
}

func TestUntilURLContains_Timeout(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://x/login")

	err := newWaiter(d).UntilURLContains(context.Background(), "/batches")
	require.Error(t, err)
	assert.True(t, browser.IsTimeout(err))
}

func TestUntilURLMatches(t *testing.T) {
	d := browsertest.New()
	d.SetURL("https://x/batches/b-42/add/types")

	err := newWaiter(d).UntilURLMatches(context.Background(), `/batches/[^/]+/add`)
	require.NoError(t, err)
}

func TestUntilURLMatches_BadPattern(t *testing.T) {
	d := browsertest.New()
	err := newWaiter(d).UntilURLMatches(context.Background(), `([`)
	require.Error(t, err)
	assert.False(t, browser.IsTimeout(err))
}

func TestUntilStale(t *testing.T) {
	d := browsertest.New()
	el := d.Add("", "#row")

	go func() {
		time.Sleep(20 * time.Millisecond)
		el.MarkStale()
	}()

	found, err := newWaiter(d).UntilVisible(context.Background(), "#row")
	require.NoError(t, err)
	require.NoError(t, newWaiter(d).UntilStale(context.Background(), found))
}

func TestUntil_ContextCancelled(t *testing.T) {
	d := browsertest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(d, time.Minute, testPoll).UntilURLContains(ctx, "/never")
	require.ErrorIs(t, err, context.Canceled)
}
