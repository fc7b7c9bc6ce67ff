// Package state provides observable state containers for the workflow client.
// These containers emit events when state changes, allowing any frontend
// to subscribe and update its UI accordingly.
package state

import (
	"github.com/rescale/pricestrip/internal/events"
)

// LocalFile is a local file chosen for upload. The payload is read from Path
// at upload time.
type LocalFile struct {
	Name string
	Path string
	Size int64
}

// Category classifies a status message.
type Category string

const (
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
)

// Status is a transient user-facing message.
type Status struct {
	Message  string
	Category Category
}

// IsError reports whether the status describes a failure.
func (s Status) IsError() bool {
	return s.Category == CategoryError
}

// Region identifies one of the status areas of the page.
type Region string

const (
	RegionUpload  Region = "upload"
	RegionProcess Region = "process"
)

// SelectionChangedEvent is published when the local selection changes.
type SelectionChangedEvent struct {
	events.BaseEvent
	Files    []LocalFile
	Revision uint64
}

// FileListChangedEvent is published when the processed file list is replaced.
type FileListChangedEvent struct {
	events.BaseEvent
	Files              []string
	DownloadAllVisible bool
}

// StatusChangedEvent is published when a status region is written.
type StatusChangedEvent struct {
	events.BaseEvent
	Region Region
	Status Status
}

// NewSelectionChangedEvent creates a new SelectionChangedEvent.
func NewSelectionChangedEvent(files []LocalFile, revision uint64) *SelectionChangedEvent {
	return &SelectionChangedEvent{
		BaseEvent: events.NewBase(events.EventSelectionChanged),
		Files:     files,
		Revision:  revision,
	}
}

// NewFileListChangedEvent creates a new FileListChangedEvent.
func NewFileListChangedEvent(files []string) *FileListChangedEvent {
	return &FileListChangedEvent{
		BaseEvent:          events.NewBase(events.EventFileListChanged),
		Files:              files,
		DownloadAllVisible: len(files) > 0,
	}
}

// NewStatusChangedEvent creates a new StatusChangedEvent.
func NewStatusChangedEvent(region Region, status Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: events.NewBase(events.EventStatusChanged),
		Region:    region,
		Status:    status,
	}
}
