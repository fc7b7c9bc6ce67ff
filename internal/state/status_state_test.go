package state

import (
	"testing"
	"time"

	"github.com/rescale/pricestrip/internal/events"
)

func TestStatusStateRegionsAreIndependent(t *testing.T) {
	state := NewStatusState(nil)

	state.Success(RegionUpload, "Filer lastet opp")
	state.Error(RegionProcess, "Feil ved prosessering av filer")

	up := state.Get(RegionUpload)
	if up.Message != "Filer lastet opp" || up.IsError() {
		t.Errorf("upload status = %+v", up)
	}
	proc := state.Get(RegionProcess)
	if proc.Message != "Feil ved prosessering av filer" || !proc.IsError() {
		t.Errorf("process status = %+v", proc)
	}
}

func TestStatusStateLastWriteWins(t *testing.T) {
	state := NewStatusState(nil)

	state.Error(RegionUpload, "first")
	state.Success(RegionUpload, "second")

	if got := state.Get(RegionUpload); got.Message != "second" || got.Category != CategorySuccess {
		t.Errorf("Get(upload) = %+v, want success 'second'", got)
	}
}

func TestStatusStateUnsetIsZero(t *testing.T) {
	state := NewStatusState(nil)
	if got := state.Get(RegionProcess); got != (Status{}) {
		t.Errorf("Get on unset region = %+v, want zero", got)
	}
}

func TestStatusStatePublishes(t *testing.T) {
	eventBus := events.NewEventBus(100)
	ch := eventBus.Subscribe(events.EventStatusChanged)
	state := NewStatusState(eventBus)

	state.Error(RegionProcess, "boom")

	select {
	case ev := <-ch:
		changed := ev.(*StatusChangedEvent)
		if changed.Region != RegionProcess || changed.Status.Message != "boom" {
			t.Errorf("event = %+v", changed)
		}
	case <-time.After(time.Second):
		t.Fatal("no StatusChangedEvent received")
	}
}
