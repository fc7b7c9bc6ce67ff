package progress

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rescale/pricestrip/internal/core"
	"github.com/rescale/pricestrip/internal/events"
	"github.com/rescale/pricestrip/internal/state"
)

var (
	_ core.ProgressReporter = (*Terminal)(nil)
	_ core.ProgressReporter = (*GUIProgress)(nil)
	_ core.UploadProgress   = (*UploadUI)(nil)
	_ core.DownloadProgress = (*CLIProgress)(nil)
)

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		path string
		n    int
		want string
	}{
		{"file.txt", 2, "file.txt"},
		{"a/file.txt", 2, "file.txt"},
		{"/a/b/c/d/file.txt", 3, "…/c/d/file.txt"},
	}
	for _, tt := range tests {
		if got := truncatePath(tt.path, tt.n); got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.path, tt.n, got, tt.want)
		}
	}
}

func TestUploadUINonTerminal(t *testing.T) {
	out, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()

	ui := newUploadUI(out, false, 2)
	if ui.IsTerminal() {
		t.Fatal("IsTerminal() = true for a plain file")
	}
	r := ui.Wrap(0, "a.pdf", 3, strings.NewReader("abc"))
	if _, err := io.Copy(io.Discard, r); err != nil {
		t.Fatal(err)
	}
	ui.Done(0, nil)
	ui.Done(1, errors.New("open failed"))
	ui.Finish()

	data, _ := os.ReadFile(out.Name())
	text := string(data)
	for _, want := range []string{"Uploading [1/2]: a.pdf", "✓ a.pdf", "✗ [2/2]: open failed"} {
		if !strings.Contains(text, want) {
			t.Errorf("output %q missing %q", text, want)
		}
	}
}

func TestSupportsColorPlainFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if SupportsColor(f) {
		t.Error("SupportsColor() = true for a regular file")
	}
}

func TestCLIProgressWrite(t *testing.T) {
	var buf bytes.Buffer
	p := &CLIProgress{bar: newBar(&buf, false, "x.zip", 10)}
	n, err := p.Write(make([]byte, 4))
	if err != nil || n != 4 {
		t.Fatalf("Write = (%d, %v), want (4, nil)", n, err)
	}
	p.Finish()
}

func TestGUIProgressPublishesDone(t *testing.T) {
	bus := events.NewEventBus(100)
	defer bus.Close()
	ch := bus.Subscribe(events.EventTransferProgress)

	g := NewGUIProgress(bus)
	up := g.Upload([]state.LocalFile{{Name: "a.pdf", Size: 3}})
	r := up.Wrap(0, "a.pdf", 3, strings.NewReader("abc"))
	io.Copy(io.Discard, r)
	up.Done(0, nil)
	up.Finish()

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-ch:
			tp := ev.(*events.TransferProgressEvent)
			if tp.Done {
				if tp.Current != 3 || tp.Name != "a.pdf" || tp.Operation != "upload" {
					t.Errorf("final event = %+v", tp)
				}
				return
			}
		case <-deadline:
			t.Fatal("no final progress event")
		}
	}
}

func TestGUIProgressDownload(t *testing.T) {
	bus := events.NewEventBus(100)
	defer bus.Close()
	ch := bus.Subscribe(events.EventTransferProgress)

	d := NewGUIProgress(bus).Download("processed_files.zip", -1)
	d.Write([]byte("PK"))
	d.Finish()

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-ch:
			tp := ev.(*events.TransferProgressEvent)
			if tp.Done {
				if tp.Current != 2 || tp.Total != -1 {
					t.Errorf("final event = %+v", tp)
				}
				return
			}
		case <-deadline:
			t.Fatal("no final progress event")
		}
	}
}
