package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/rescale/pricestrip/internal/constants"
)

// UploadUI draws one mpb bar per part of a multipart upload. It implements
// core.UploadProgress.
type UploadUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	totalFiles int

	mu   sync.Mutex
	bars map[int]*FileBar
}

// FileBar is the progress bar of a single part.
type FileBar struct {
	bar       *mpb.Bar
	ui        *UploadUI
	index     int
	name      string
	size      int64
	startTime time.Time
}

// NewUploadUI creates an upload display for totalFiles parts on stderr.
func NewUploadUI(totalFiles int) *UploadUI {
	return newUploadUI(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), totalFiles)
}

func newUploadUI(out *os.File, isTerminal bool, totalFiles int) *UploadUI {
	var p *mpb.Progress
	if isTerminal {
		// Enable ANSI escape sequences on Windows for proper progress bar rendering
		enableVirtualTerminal(out)

		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(constants.ProgressRefreshRate),
			mpb.WithWidth(100),
		)
	} else {
		// Non-TTY: disable progress bars, just use text output
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &UploadUI{
		progress:   p,
		out:        out,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
		bars:       make(map[int]*FileBar),
	}
}

// Wrap registers a bar for part index and returns a reader that advances it.
func (u *UploadUI) Wrap(index int, name string, size int64, r io.Reader) io.Reader {
	fb := u.addFileBar(index, name, size)
	if fb.bar == nil {
		return r
	}
	return fb.bar.ProxyReader(r)
}

// Done completes or aborts the bar of part index.
func (u *UploadUI) Done(index int, err error) {
	u.mu.Lock()
	fb := u.bars[index]
	u.mu.Unlock()
	if fb == nil {
		if err != nil {
			fmt.Fprintf(u.LogWriter(), "✗ [%d/%d]: %v\n", index+1, u.totalFiles, err)
		}
		return
	}
	fb.Complete(err)
}

// Finish waits for every bar to render its final state.
func (u *UploadUI) Finish() {
	u.Wait()
}

func (u *UploadUI) addFileBar(index int, name string, size int64) *FileBar {
	fb := &FileBar{
		ui:        u,
		index:     index + 1,
		name:      name,
		size:      size,
		startTime: time.Now(),
	}

	if u.isTerminal {
		label := fmt.Sprintf("[%d/%d] %s (%s)", fb.index, u.totalFiles, truncatePath(name, 2), humanize.Bytes(uint64(max(size, 0))))
		fb.bar = u.progress.New(size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(label, decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(u.out, "Uploading [%d/%d]: %s (%s)\n",
			fb.index, u.totalFiles, truncatePath(name, 2), humanize.Bytes(uint64(max(size, 0))))
	}

	u.mu.Lock()
	u.bars[index] = fb
	u.mu.Unlock()
	return fb
}

// Complete marks the part as sent, or failed when err is set.
func (f *FileBar) Complete(err error) {
	elapsed := time.Since(f.startTime)

	var msg string
	if err == nil {
		if f.bar != nil {
			// ENSURE exact 100% completion (no rounding errors)
			f.bar.SetCurrent(f.size)
			f.bar.SetTotal(f.size, true)
		}
		msg = fmt.Sprintf("✓ %s (%s, %s)\n", truncatePath(f.name, 2), humanize.Bytes(uint64(max(f.size, 0))), elapsed.Round(time.Millisecond))
	} else {
		if f.bar != nil {
			f.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s: %v\n", truncatePath(f.name, 2), err)
	}

	// Write through mpb's writer (not stdout) to avoid triggering redraws
	fmt.Fprint(f.ui.LogWriter(), msg)
}

// Wait blocks until all progress bars complete
func (u *UploadUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// LogWriter returns an io.Writer that safely prints above the progress bars
func (u *UploadUI) LogWriter() io.Writer {
	if u.progress != nil && u.isTerminal {
		return u.progress
	}
	return u.out
}

// IsTerminal returns true if output is to a terminal (progress bars are active).
func (u *UploadUI) IsTerminal() bool {
	return u.isTerminal
}

// truncatePath truncates a file path to show only the last N components
// Example: truncatePath("/a/b/c/d/file.txt", 3) → "…/c/d/file.txt"
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	relevant := parts[len(parts)-maxComponents:]
	return "…/" + strings.Join(relevant, "/")
}

// SupportsColor reports whether f is a terminal that renders ANSI escapes,
// enabling VT processing on Windows consoles first.
func SupportsColor(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) && enableVirtualTerminal(f)
}
