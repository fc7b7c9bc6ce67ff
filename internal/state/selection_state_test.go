package state

import (
	"testing"
	"time"

	"github.com/rescale/pricestrip/internal/events"
)

func names(files []LocalFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func abc() []LocalFile {
	return []LocalFile{
		{Name: "a.pdf", Path: "/tmp/a.pdf", Size: 1},
		{Name: "b.pdf", Path: "/tmp/b.pdf", Size: 2},
		{Name: "c.pdf", Path: "/tmp/c.pdf", Size: 3},
	}
}

func TestSelectionStateSetReplaces(t *testing.T) {
	state := NewSelectionState(nil)
	state.Set(abc())
	state.Set([]LocalFile{{Name: "x.pdf"}})

	if got := names(state.Files()); !equalStrings(got, []string{"x.pdf"}) {
		t.Errorf("Files() = %v, want [x.pdf]", got)
	}
}

func TestSelectionStateRemovePreservesOrder(t *testing.T) {
	state := NewSelectionState(nil)
	state.Set(abc())

	if !state.Remove(1) {
		t.Fatal("Remove(1) = false, want true")
	}
	if got := names(state.Files()); !equalStrings(got, []string{"a.pdf", "c.pdf"}) {
		t.Errorf("Files() = %v, want [a.pdf c.pdf]", got)
	}
}

func TestSelectionStateRemoveOutOfRange(t *testing.T) {
	state := NewSelectionState(nil)
	state.Set(abc())
	rev := state.Revision()

	for _, idx := range []int{-1, 3, 99} {
		if state.Remove(idx) {
			t.Errorf("Remove(%d) = true, want false", idx)
		}
	}
	if state.Len() != 3 {
		t.Errorf("Len() = %d, want 3", state.Len())
	}
	if state.Revision() != rev {
		t.Error("ignored removal should not bump the revision")
	}
}

func TestSelectionStateRemoveLast(t *testing.T) {
	state := NewSelectionState(nil)
	state.Set(abc()[:1])

	state.Remove(0)
	if state.Len() != 0 {
		t.Errorf("Len() = %d, want 0", state.Len())
	}
}

func TestSelectionStateAddAppends(t *testing.T) {
	state := NewSelectionState(nil)
	state.Add(abc()[0])
	state.Add(abc()[1:]...)

	if got := names(state.Files()); !equalStrings(got, []string{"a.pdf", "b.pdf", "c.pdf"}) {
		t.Errorf("Files() = %v", got)
	}
}

func TestSelectionStateRevisionIncreases(t *testing.T) {
	state := NewSelectionState(nil)
	r0 := state.Revision()
	state.Set(abc())
	r1 := state.Revision()
	state.Remove(0)
	r2 := state.Revision()
	state.Clear()
	r3 := state.Revision()

	if !(r0 < r1 && r1 < r2 && r2 < r3) {
		t.Errorf("revisions not increasing: %d %d %d %d", r0, r1, r2, r3)
	}
}

func TestSelectionStatePublishesSnapshot(t *testing.T) {
	eventBus := events.NewEventBus(100)
	ch := eventBus.Subscribe(events.EventSelectionChanged)
	state := NewSelectionState(eventBus)

	state.Set(abc())

	select {
	case ev := <-ch:
		changed, ok := ev.(*SelectionChangedEvent)
		if !ok {
			t.Fatalf("event type = %T, want *SelectionChangedEvent", ev)
		}
		if len(changed.Files) != 3 || changed.Revision != 1 {
			t.Errorf("event = %+v, want 3 files at revision 1", changed)
		}
	case <-time.After(time.Second):
		t.Fatal("no SelectionChangedEvent received")
	}
}

func TestSelectionStateClear(t *testing.T) {
	state := NewSelectionState(nil)
	state.Set(abc())
	state.Clear()

	files, _ := state.Snapshot()
	if len(files) != 0 {
		t.Errorf("Snapshot after clear has %d files, want 0", len(files))
	}
}
