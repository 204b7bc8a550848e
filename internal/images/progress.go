package images

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ProgressCallback receives per-file progress while a folder is
// processed. Implementations must tolerate being called for zero items.
type ProgressCallback interface {
	// OnStart is called once with the total number of files.
	OnStart(total int)

	// OnProgress is called after each file with the running count.
	OnProgress(current, total int, path string)

	// OnError is called when a file fails; processing continues.
	OnError(path string, err error)

	// OnComplete is called when the folder is finished.
	OnComplete()
}

// NoOpProgressCallback implements ProgressCallback and does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(total int)                       {}
func (NoOpProgressCallback) OnProgress(current, total int, _ string) {}
func (NoOpProgressCallback) OnError(path string, err error)          {}
func (NoOpProgressCallback) OnComplete()                             {}

// ConsoleProgressCallback renders a single-line progress bar.
type ConsoleProgressCallback struct {
	writer io.Writer
	prefix string
	width  int
}

// NewConsoleProgressCallback creates a console progress reporter.
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{writer: writer, prefix: prefix, width: 30}
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.render(0, total)
}

func (c *ConsoleProgressCallback) OnProgress(current, total int, _ string) {
	c.render(current, total)
}

func (c *ConsoleProgressCallback) OnError(path string, err error) {
	fmt.Fprintf(c.writer, "\n%s: %v\n", path, err)
}

func (c *ConsoleProgressCallback) OnComplete() {
	fmt.Fprintln(c.writer)
}

func (c *ConsoleProgressCallback) render(current, total int) {
	if total <= 0 {
		return
	}
	filled := current * c.width / total
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", c.width-filled)
	fmt.Fprintf(c.writer, "\r%s[%s] %d/%d", c.prefix, bar, current, total)
}
