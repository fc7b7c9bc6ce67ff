package state

import (
	"sync"

	"github.com/rescale/pricestrip/internal/events"
)

// FileListState is an observable container for the processed file names held
// by the server. Names keep server order.
//
// Refreshes are generation-numbered: BeginRefresh hands out a generation and
// Apply only accepts a result that is newer than the last one applied, so a
// slow response can never overwrite a list fetched by a later refresh.
type FileListState struct {
	eventBus *events.EventBus

	files      []string
	generation uint64 // last generation handed out
	applied    uint64 // generation of the current contents
	lastError  error

	mu sync.RWMutex
}

// NewFileListState creates an empty list.
func NewFileListState(eventBus *events.EventBus) *FileListState {
	return &FileListState{
		eventBus: eventBus,
		files:    make([]string, 0),
	}
}

// BeginRefresh reserves the generation for a new list request.
func (s *FileListState) BeginRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

// Apply replaces the list with the result of refresh gen and publishes a change
// event. It returns false and leaves the list unchanged when a newer result
// has already been applied.
func (s *FileListState) Apply(gen uint64, files []string) bool {
	s.mu.Lock()
	if gen <= s.applied {
		s.mu.Unlock()
		return false
	}
	s.applied = gen
	s.files = append(make([]string, 0, len(files)), files...)
	s.lastError = nil
	filesCopy := make([]string, len(s.files))
	copy(filesCopy, s.files)
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(NewFileListChangedEvent(filesCopy))
	}
	return true
}

// SetItems replaces the list unconditionally.
func (s *FileListState) SetItems(files []string) {
	s.Apply(s.BeginRefresh(), files)
}

// SetError records a failed refresh. The list keeps its previous contents.
func (s *FileListState) SetError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
}

// GetError returns the error of the last failed refresh, cleared by the next success.
func (s *FileListState) GetError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// Files returns a copy of the current names.
func (s *FileListState) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, len(s.files))
	copy(result, s.files)
	return result
}

// Count returns the number of names.
func (s *FileListState) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// DownloadAllVisible reports whether the "download all" control should be shown.
func (s *FileListState) DownloadAllVisible() bool {
	return s.Count() > 0
}

// Contains reports whether name is in the list.
func (s *FileListState) Contains(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.files {
		if f == name {
			return true
		}
	}
	return false
}
