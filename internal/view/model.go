// Package view turns session state into a declarative model that frontends
// render. Names coming from the server or the local disk are carried as plain
// data and sanitized before they reach a terminal.
package view

import (
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/rescale/pricestrip/internal/state"
)

// Source is the state a Model is built from. *core.Controller implements it.
type Source interface {
	Selection() *state.SelectionState
	FileList() *state.FileListState
	Status() *state.StatusState
	DownloadLink(name string) string
}

// SelectedRow is one locally selected file with its remove index.
type SelectedRow struct {
	Index int
	Name  string
	Size  string
}

// FileRow is one processed file and the link it downloads from.
type FileRow struct {
	Name string
	Link string
}

// Model is a render-ready snapshot of the page.
type Model struct {
	Revision           uint64
	Selected           []SelectedRow
	Files              []FileRow
	DownloadAllVisible bool
	UploadStatus       state.Status
	ProcessStatus      state.Status
}

// Build snapshots src. Selected row indices refer to the snapshot at Revision.
func Build(src Source) Model {
	selected, rev := src.Selection().Snapshot()
	names := src.FileList().Files()

	m := Model{
		Revision:           rev,
		Selected:           make([]SelectedRow, len(selected)),
		Files:              make([]FileRow, len(names)),
		DownloadAllVisible: len(names) > 0,
		UploadStatus:       src.Status().Get(state.RegionUpload),
		ProcessStatus:      src.Status().Get(state.RegionProcess),
	}
	for i, f := range selected {
		m.Selected[i] = SelectedRow{Index: i, Name: f.Name, Size: humanize.Bytes(uint64(max(f.Size, 0)))}
	}
	for i, name := range names {
		m.Files[i] = FileRow{Name: name, Link: src.DownloadLink(name)}
	}
	return m
}

// SafeText replaces control characters so a name cannot inject terminal
// escape sequences or break table layout.
func SafeText(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '�'
		}
		return r
	}, s)
}
