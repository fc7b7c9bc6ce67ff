package events

import (
	"errors"
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventRequestFinished)
	bus.PublishRequest(EventRequestFinished, "upload", "req-1", errors.New("boom"))

	select {
	case received := <-ch:
		ev, ok := received.(*RequestEvent)
		if !ok {
			t.Fatal("Expected RequestEvent")
		}
		if ev.Operation != "upload" {
			t.Errorf("Operation = %q, want %q", ev.Operation, "upload")
		}
		if ev.Err == nil || ev.Err.Error() != "boom" {
			t.Errorf("Err = %v, want boom", ev.Err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_TypeFiltering(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	logs := bus.Subscribe(EventLog)
	all := bus.SubscribeAll()

	bus.PublishRequest(EventRequestStarted, "list", "req-2", nil)

	select {
	case ev := <-logs:
		t.Fatalf("log subscriber received %v", ev.Type())
	default:
	}

	select {
	case ev := <-all:
		if ev.Type() != EventRequestStarted {
			t.Errorf("Type = %v, want %v", ev.Type(), EventRequestStarted)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("all-events subscriber missed event")
	}
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	_ = bus.Subscribe(EventLog)
	bus.PublishLog(InfoLevel, "one", nil)
	bus.PublishLog(InfoLevel, "two", nil)

	if got := bus.GetDroppedEventCount(); got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventLog)
	bus.Unsubscribe(EventLog, ch)
	bus.PublishLog(WarnLevel, "ignored", nil)

	select {
	case <-ch:
		t.Fatal("unsubscribed channel received an event")
	default:
	}
}

func TestEventBus_SubscribeAfterClose(t *testing.T) {
	bus := NewEventBus(10)
	bus.Close()

	ch := bus.Subscribe(EventLog)
	if _, ok := <-ch; ok {
		t.Error("channel from closed bus should be closed")
	}
	// Publishing after close must not panic.
	bus.PublishLog(ErrorLevel, "late", nil)
}

func TestLogLevelString(t *testing.T) {
	if ErrorLevel.String() != "ERROR" || LogLevel(42).String() != "UNKNOWN" {
		t.Error("unexpected LogLevel strings")
	}
}
