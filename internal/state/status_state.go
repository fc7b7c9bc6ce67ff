package state

import (
	"sync"

	"github.com/rescale/pricestrip/internal/events"
)

// StatusState holds the upload and process status regions.
// Writes are last-write-wins.
type StatusState struct {
	eventBus *events.EventBus
	regions  map[Region]Status
	mu       sync.RWMutex
}

// NewStatusState creates empty status regions.
func NewStatusState(eventBus *events.EventBus) *StatusState {
	return &StatusState{
		eventBus: eventBus,
		regions:  make(map[Region]Status),
	}
}

// Set overwrites a region and publishes a StatusChangedEvent.
func (s *StatusState) Set(region Region, status Status) {
	s.mu.Lock()
	s.regions[region] = status
	s.mu.Unlock()

	if s.eventBus != nil {
		s.eventBus.Publish(NewStatusChangedEvent(region, status))
	}
}

// Success writes a success message to region.
func (s *StatusState) Success(region Region, message string) {
	s.Set(region, Status{Message: message, Category: CategorySuccess})
}

// Error writes an error message to region.
func (s *StatusState) Error(region Region, message string) {
	s.Set(region, Status{Message: message, Category: CategoryError})
}

// Get returns the current status of region; the zero Status if never written.
func (s *StatusState) Get(region Region) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regions[region]
}
