// Package progress provides progress reporting for transfers across CLI
// (progress bars) and GUI (event bus) modes.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/rescale/pricestrip/internal/constants"
	"github.com/rescale/pricestrip/internal/core"
	"github.com/rescale/pricestrip/internal/events"
	"github.com/rescale/pricestrip/internal/state"
)

// Terminal reports progress with mpb bars for uploads and a progressbar for
// downloads, both on stderr.
type Terminal struct{}

// NewTerminal creates a terminal progress reporter.
func NewTerminal() *Terminal {
	return &Terminal{}
}

// Upload starts a multi-bar display for files.
func (t *Terminal) Upload(files []state.LocalFile) core.UploadProgress {
	return NewUploadUI(len(files))
}

// Download starts a single bar for one download.
func (t *Terminal) Download(name string, size int64) core.DownloadProgress {
	return NewCLIProgress(name, size)
}

// CLIProgress implements download progress for CLI mode using progressbar.
type CLIProgress struct {
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a progress bar of size bytes. A negative size shows a spinner.
func NewCLIProgress(description string, size int64) *CLIProgress {
	visible := term.IsTerminal(int(os.Stderr.Fd()))
	if visible {
		enableVirtualTerminal(os.Stderr)
	}
	return &CLIProgress{bar: newBar(os.Stderr, visible, description, size)}
}

func newBar(w io.Writer, visible bool, description string, size int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Write advances the bar by len(p).
func (p *CLIProgress) Write(b []byte) (int, error) {
	return p.bar.Write(b)
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	_ = p.bar.Finish()
}

// GUIProgress publishes TransferProgressEvents for the desktop window.
type GUIProgress struct {
	eventBus *events.EventBus
	interval time.Duration
}

// NewGUIProgress creates a GUI progress reporter.
func NewGUIProgress(eventBus *events.EventBus) *GUIProgress {
	return &GUIProgress{eventBus: eventBus, interval: constants.ProgressRefreshRate}
}

// Upload returns an observer that publishes per-part progress.
func (g *GUIProgress) Upload(files []state.LocalFile) core.UploadProgress {
	return &guiUpload{g: g, counters: make(map[int]*eventCounter)}
}

// Download returns a writer that publishes download progress.
func (g *GUIProgress) Download(name string, size int64) core.DownloadProgress {
	return g.counter("download", name, size)
}

func (g *GUIProgress) counter(op, name string, total int64) *eventCounter {
	return &eventCounter{g: g, op: op, name: name, total: total}
}

// eventCounter counts bytes and publishes at most once per interval.
type eventCounter struct {
	g       *GUIProgress
	op      string
	name    string
	total   int64
	current int64
	last    time.Time
	mu      sync.Mutex
}

func (c *eventCounter) Write(b []byte) (int, error) {
	c.mu.Lock()
	c.current += int64(len(b))
	now := time.Now()
	publish := now.Sub(c.last) >= c.g.interval
	if publish {
		c.last = now
	}
	current := c.current
	c.mu.Unlock()

	if publish {
		c.publish(current, false)
	}
	return len(b), nil
}

func (c *eventCounter) Finish() {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	c.publish(current, true)
}

func (c *eventCounter) publish(current int64, done bool) {
	if c.g.eventBus == nil {
		return
	}
	c.g.eventBus.Publish(&events.TransferProgressEvent{
		BaseEvent: events.NewBase(events.EventTransferProgress),
		Operation: c.op,
		Name:      c.name,
		Current:   current,
		Total:     c.total,
		Done:      done,
	})
}

type guiUpload struct {
	g        *GUIProgress
	mu       sync.Mutex
	counters map[int]*eventCounter
}

func (u *guiUpload) Wrap(index int, name string, size int64, r io.Reader) io.Reader {
	c := u.g.counter("upload", name, size)
	u.mu.Lock()
	u.counters[index] = c
	u.mu.Unlock()
	return io.TeeReader(r, c)
}

func (u *guiUpload) Done(index int, err error) {
	u.mu.Lock()
	c := u.counters[index]
	u.mu.Unlock()
	if c != nil {
		c.Finish()
	}
}

func (u *guiUpload) Finish() {}
