package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardflow/internal/browser"
	"github.com/MeKo-Tech/cardflow/internal/browser/browsertest"
	"github.com/MeKo-Tech/cardflow/internal/wait"
)

const (
	testTimeout = 200 * time.Millisecond
	testPoll    = 5 * time.Millisecond
	testPause   = time.Millisecond
)

func newFiller(d *browsertest.FakeDriver) *Filler {
	return New(d, wait.New(d, testTimeout, testPoll), testPause)
}

func TestFillTextClearsThenTypes(t *testing.T) {
	d := browsertest.New()
	el := d.Add("", "#title").WithValue("stale draft")
	f := newFiller(d)

	err := f.FillText(context.Background(), "#title", "1990 Topps", "batch name")
	require.NoError(t, err)

	assert.Equal(t, 1, el.Clears)
	assert.Equal(t, []string{"1990 Topps"}, el.Typed)
	assert.Equal(t, "1990 Topps", el.Value())
}

func TestFillTextMissingField(t *testing.T) {
	d := browsertest.New()
	f := newFiller(d)

	err := f.FillText(context.Background(), "#missing", "x", "batch name")
	require.Error(t, err)
	assert.True(t, browser.IsTimeout(err))
	assert.Contains(t, err.Error(), "batch name")
}

func TestSelectOptionByText(t *testing.T) {
	d := browsertest.New()
	el := d.Add("", "#sport").WithOptions(
		browser.Option{Text: "Baseball", Value: "1"},
		browser.Option{Text: "Basketball", Value: "2"},
	)
	f := newFiller(d)

	err := f.SelectOption(context.Background(), "#sport", "Basketball", "sport", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, el.Selected)
}

func TestSelectOptionFallsBackToValue(t *testing.T) {
	d := browsertest.New()
	el := d.Add("", "#sport").WithOptions(
		browser.Option{Text: "Baseball", Value: "baseball"},
	)
	f := newFiller(d)

	err := f.SelectOption(context.Background(), "#sport", "baseball", "sport", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"baseball"}, el.Selected)
}

func TestSelectOptionNoMatch(t *testing.T) {
	d := browsertest.New()
	d.Add("", "#sport").WithOptions(browser.Option{Text: "Baseball", Value: "1"})
	f := newFiller(d)

	err := f.SelectOption(context.Background(), "#sport", "Hockey", "sport", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrNoSuchOption)
}

func TestSelectCustomDropdown(t *testing.T) {
	d := browsertest.New()
	control := d.Add("", ".batch-type")
	entry := d.Add("", ".batch-type [role=\"option\"], .batch-type li").WithText("Graded")
	f := newFiller(d)

	err := f.SelectOption(context.Background(), ".batch-type", "Graded", "batch type", true)
	require.NoError(t, err)
	assert.Equal(t, 1, control.Clicks)
	assert.Equal(t, 1, entry.Clicks)
}

func TestSelectCustomDropdownNoMatch(t *testing.T) {
	d := browsertest.New()
	d.Add("", ".batch-type")
	d.Add("", ".batch-type [role=\"option\"], .batch-type li").WithText("Raw")
	f := newFiller(d)

	err := f.SelectOption(context.Background(), ".batch-type", "Graded", "batch type", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrNoSuchOption)
}

func TestUploadFilesJoinsPaths(t *testing.T) {
	d := browsertest.New()
	el := d.Add("", "input[type=file]")
	f := newFiller(d)

	paths := []string{"/cards/front.jpg", "/cards/back.jpg"}
	err := f.UploadFiles(context.Background(), "input[type=file]", paths)
	require.NoError(t, err)
	require.Len(t, el.Typed, 1)
	assert.Equal(t, "/cards/front.jpg\n/cards/back.jpg", el.Typed[0])
}

func TestUploadFilesEmpty(t *testing.T) {
	d := browsertest.New()
	f := newFiller(d)

	err := f.UploadFiles(context.Background(), "input[type=file]", nil)
	require.Error(t, err)
}

func TestClickSucceedsFirstAttempt(t *testing.T) {
	d := browsertest.New()
	el := d.Add("", "#save")
	f := newFiller(d)

	err := f.Click(context.Background(), "#save", "save", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, el.Clicks)
	assert.GreaterOrEqual(t, el.ScrollCalls, 1)
}

func TestClickRecoversFromTwoTransientFailures(t *testing.T) {
	d := browsertest.New()
	el := d.Add("", "#save").FailClicksWith(browser.ErrStale, browser.ErrClickIntercepted)
	f := newFiller(d)

	err := f.Click(context.Background(), "#save", "save", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, el.Clicks)
}

func TestClickGivesUpAfterMaxAttempts(t *testing.T) {
	d := browsertest.New()
	el := d.Add("", "#save").FailClicksWith(
		browser.ErrClickIntercepted, browser.ErrClickIntercepted, browser.ErrClickIntercepted)
	f := newFiller(d)

	err := f.Click(context.Background(), "#save", "save", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, browser.ErrClickIntercepted)
	assert.Equal(t, 3, el.Clicks)
}

func TestClickDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("javascript error")
	d := browsertest.New()
	el := d.Add("", "#save").FailClicksWith(boom)
	f := newFiller(d)

	err := f.Click(context.Background(), "#save", "save", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, el.Clicks)
}
