package gpio

import (
	"errors"
	"testing"
)

func TestFakeInputIdlesHigh(t *testing.T) {
	f := NewFakeController()
	if err := f.ConfigureInput(DefaultButtonR); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := f.Read(DefaultButtonR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != High {
		t.Errorf("expected pulled-up input to read HIGH, got %s", v)
	}
}

func TestFakeReadUnconfigured(t *testing.T) {
	f := NewFakeController()
	if _, err := f.Read(3); err == nil {
		t.Error("expected error reading unconfigured pin")
	}
}

func TestFakeReadError(t *testing.T) {
	f := NewFakeController()
	f.ConfigureInput(DefaultButtonR)
	f.ReadError = errors.New("simulated error")

	_, err := f.Read(DefaultButtonR)
	if err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeWriteRecordsLevels(t *testing.T) {
	f := NewFakeController()
	f.ConfigureOutput(DefaultLEDR, Low)
	f.ConfigureOutput(DefaultLEDY, Low)

	f.Write(DefaultLEDR, High)
	f.Write(DefaultLEDY, High)
	f.Write(DefaultLEDR, Low)

	got := f.WritesTo(DefaultLEDR)
	if len(got) != 2 || got[0] != High || got[1] != Low {
		t.Errorf("WritesTo(R): got %v, want [HIGH LOW]", got)
	}
	if len(f.Writes()) != 3 {
		t.Errorf("Writes: got %d, want 3", len(f.Writes()))
	}
	if f.Level(DefaultLEDY) != High {
		t.Errorf("Level(Y): got %s, want HIGH", f.Level(DefaultLEDY))
	}
}

func TestFakeWriteToInputFails(t *testing.T) {
	f := NewFakeController()
	f.ConfigureInput(DefaultButtonR)

	if err := f.Write(DefaultButtonR, Low); err == nil {
		t.Error("expected error writing an input")
	}
}

func TestFakeWatchRequiresInput(t *testing.T) {
	f := NewFakeController()
	f.ConfigureOutput(DefaultLEDR, Low)

	if err := f.WatchFalling(DefaultLEDR, func(PinID) {}); err == nil {
		t.Error("expected error watching an output")
	}
	if err := f.WatchFalling(99, func(PinID) {}); err == nil {
		t.Error("expected error watching an unconfigured pin")
	}
}

func TestFakePressFiresHandler(t *testing.T) {
	f := NewFakeController()
	f.ConfigureInput(DefaultButtonY)

	var got []PinID
	if err := f.WatchFalling(DefaultButtonY, func(id PinID) { got = append(got, id) }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.Press(DefaultButtonY) {
		t.Fatal("expected handler to fire")
	}
	if f.Level(DefaultButtonY) != Low {
		t.Error("expected line LOW while pressed")
	}

	// Bounce: extra edge without a level change.
	f.Edge(DefaultButtonY)

	f.Release(DefaultButtonY)
	if f.Level(DefaultButtonY) != High {
		t.Error("expected line HIGH after release")
	}

	if len(got) != 2 || got[0] != DefaultButtonY || got[1] != DefaultButtonY {
		t.Errorf("handler calls: got %v", got)
	}
}

func TestFakeEdgeWithoutHandler(t *testing.T) {
	f := NewFakeController()
	f.ConfigureInput(DefaultButtonR)

	if f.Edge(DefaultButtonR) {
		t.Error("expected no handler")
	}
}

func TestFakeClose(t *testing.T) {
	f := NewFakeController()
	if f.Closed() {
		t.Error("should not be closed initially")
	}
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed() {
		t.Error("should be closed after Close()")
	}
}

func TestLevelString(t *testing.T) {
	if High.String() != "HIGH" || Low.String() != "LOW" {
		t.Errorf("unexpected strings: %s %s", High, Low)
	}
}
