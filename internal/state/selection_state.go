package state

import (
	"sync"

	"github.com/rescale/pricestrip/internal/events"
)

// SelectionState holds the ordered local files awaiting upload.
// Every mutation bumps the revision and publishes a SelectionChangedEvent.
type SelectionState struct {
	eventBus *events.EventBus

	files    []LocalFile
	revision uint64

	mu sync.RWMutex
}

// NewSelectionState creates an empty selection.
func NewSelectionState(eventBus *events.EventBus) *SelectionState {
	return &SelectionState{
		eventBus: eventBus,
		files:    make([]LocalFile, 0),
	}
}

// Set replaces the selection.
func (s *SelectionState) Set(files []LocalFile) {
	s.mu.Lock()
	s.files = append(make([]LocalFile, 0, len(files)), files...)
	s.publishLocked()
}

// Add appends files, keeping the existing order.
func (s *SelectionState) Add(files ...LocalFile) {
	if len(files) == 0 {
		return
	}
	s.mu.Lock()
	s.files = append(s.files, files...)
	s.publishLocked()
}

// Remove rebuilds the selection without the file at index.
// An index outside the current snapshot is ignored and false is returned.
func (s *SelectionState) Remove(index int) bool {
	s.mu.Lock()
	if index < 0 || index >= len(s.files) {
		s.mu.Unlock()
		return false
	}
	next := make([]LocalFile, 0, len(s.files)-1)
	for i, f := range s.files {
		if i != index {
			next = append(next, f)
		}
	}
	s.files = next
	s.publishLocked()
	return true
}

// Clear empties the selection.
func (s *SelectionState) Clear() {
	s.mu.Lock()
	s.files = make([]LocalFile, 0)
	s.publishLocked()
}

// publishLocked bumps the revision, releases the lock and publishes.
func (s *SelectionState) publishLocked() {
	s.revision++
	rev := s.revision
	filesCopy := make([]LocalFile, len(s.files))
	copy(filesCopy, s.files)
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(NewSelectionChangedEvent(filesCopy, rev))
	}
}

// Files returns a copy of the current selection.
func (s *SelectionState) Files() []LocalFile {
	files, _ := s.Snapshot()
	return files
}

// Snapshot returns a copy of the selection together with its revision.
func (s *SelectionState) Snapshot() ([]LocalFile, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]LocalFile, len(s.files))
	copy(result, s.files)
	return result, s.revision
}

// Len returns the number of selected files.
func (s *SelectionState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Revision returns the current snapshot revision.
func (s *SelectionState) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
