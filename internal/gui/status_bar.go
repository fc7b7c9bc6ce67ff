package gui

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/rescale/pricestrip/internal/state"
)

// StatusLevel represents the type of status being displayed
type StatusLevel int

const (
	// StatusNone shows nothing
	StatusNone StatusLevel = iota
	// StatusSuccess indicates a successful operation
	StatusSuccess
	// StatusError indicates an error condition
	StatusError
)

// StatusBar shows one status region: an icon, a message and a spinner while a
// request for the region is in flight. Methods must run on the UI goroutine.
type StatusBar struct {
	widget.BaseWidget

	mu      sync.RWMutex
	level   StatusLevel
	message string
	busy    int

	icon    *widget.Icon
	label   *widget.Label
	spinner *widget.Activity
}

// NewStatusBar creates an empty status bar.
func NewStatusBar() *StatusBar {
	sb := &StatusBar{}
	sb.label = widget.NewLabel("")
	sb.label.Wrapping = fyne.TextWrapWord
	sb.icon = widget.NewIcon(theme.InfoIcon())
	sb.icon.Hide()
	sb.spinner = widget.NewActivity()
	sb.spinner.Hide()
	sb.ExtendBaseWidget(sb)
	return sb
}

// levelFor maps a status category onto a display level.
func levelFor(s state.Status) StatusLevel {
	switch {
	case s.Message == "":
		return StatusNone
	case s.IsError():
		return StatusError
	default:
		return StatusSuccess
	}
}

// SetStatus displays s. An empty message hides the icon.
func (sb *StatusBar) SetStatus(s state.Status) {
	level := levelFor(s)

	sb.mu.Lock()
	sb.level = level
	sb.message = s.Message
	sb.mu.Unlock()

	sb.label.SetText(s.Message)
	switch level {
	case StatusNone:
		sb.label.Importance = widget.MediumImportance
		sb.icon.Hide()
	case StatusSuccess:
		sb.label.Importance = widget.SuccessImportance
		sb.icon.SetResource(theme.ConfirmIcon())
		sb.icon.Show()
	case StatusError:
		sb.label.Importance = widget.DangerImportance
		sb.icon.SetResource(theme.ErrorIcon())
		sb.icon.Show()
	}
	sb.label.Refresh()
}

// SetBusy starts or stops the spinner. Calls nest, so overlapping requests
// keep it spinning until the last one finishes.
func (sb *StatusBar) SetBusy(busy bool) {
	sb.mu.Lock()
	if busy {
		sb.busy++
	} else if sb.busy > 0 {
		sb.busy--
	}
	active := sb.busy > 0
	sb.mu.Unlock()

	if active {
		sb.spinner.Show()
		sb.spinner.Start()
	} else {
		sb.spinner.Stop()
		sb.spinner.Hide()
	}
}

// GetMessage returns the current status message
func (sb *StatusBar) GetMessage() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.message
}

// GetLevel returns the current status level
func (sb *StatusBar) GetLevel() StatusLevel {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.level
}

// IsBusy reports whether a request for this region is in flight.
func (sb *StatusBar) IsBusy() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.busy > 0
}

// CreateRenderer implements fyne.Widget
func (sb *StatusBar) CreateRenderer() fyne.WidgetRenderer {
	content := container.NewBorder(nil, nil, container.NewHBox(sb.icon, sb.spinner), nil, sb.label)
	return widget.NewSimpleRenderer(content)
}
