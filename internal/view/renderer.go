package view

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rescale/pricestrip/internal/constants"
	"github.com/rescale/pricestrip/internal/state"
)

// Renderer draws a Model as terminal tables.
type Renderer struct {
	// Color enables ANSI colors on status lines.
	Color bool
	// DownloadAllHint names the command that fetches the archive, shown next
	// to the "download all" label.
	DownloadAllHint string
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = SafeText(row[i])
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// Selection renders the selected files with their remove indices.
// An empty selection renders as an empty string.
func (r *Renderer) Selection(m Model) string {
	if len(m.Selected) == 0 {
		return ""
	}
	rows := make([][]string, len(m.Selected))
	for i, row := range m.Selected {
		rows[i] = []string{strconv.Itoa(row.Index), row.Name, row.Size}
	}
	return renderTable([]string{"#", "File", "Size"}, rows, []columnAlignment{alignRight, alignLeft, alignRight})
}

// Files renders the processed files with their download links.
func (r *Renderer) Files(m Model) string {
	if len(m.Files) == 0 {
		return ""
	}
	rows := make([][]string, len(m.Files))
	for i, row := range m.Files {
		rows[i] = []string{row.Name, row.Link}
	}
	out := renderTable([]string{"File", constants.LabelDownload}, rows, nil)
	if m.DownloadAllVisible {
		out += "\n" + constants.LabelDownloadAll
		if r.DownloadAllHint != "" {
			out += ": " + r.DownloadAllHint
		}
	}
	return out
}

// Status renders one status line, or "" when the status is unset.
func (r *Renderer) Status(s state.Status) string {
	if s.Message == "" {
		return ""
	}
	msg := SafeText(s.Message)
	if !r.Color {
		if s.IsError() {
			return "✗ " + msg
		}
		return "✓ " + msg
	}
	if s.IsError() {
		return text.Colors{text.FgRed}.Sprint("✗ " + msg)
	}
	return text.Colors{text.FgGreen}.Sprint("✓ " + msg)
}

// Render draws every non-empty region of m separated by blank lines.
func (r *Renderer) Render(m Model) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{
		r.Selection(m),
		r.Status(m.UploadStatus),
		r.Status(m.ProcessStatus),
		r.Files(m),
	} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
