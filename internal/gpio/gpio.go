// Package gpio provides pin configuration, level access and falling-edge
// notification with hardware abstraction.
// The real implementation uses the Linux GPIO character device, the periph
// implementation uses periph.io host drivers, and the fake implementation
// allows testing without hardware.
package gpio

// PinID identifies a physical GPIO line (BCM numbering / chip offset).
type PinID int

// Level is the logic level of a line.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// EdgeHandler is called when a watched line sees a falling edge.
// It runs outside any control task and must not block.
type EdgeHandler func(PinID)

// Controller configures lines and moves levels in and out of them.
type Controller interface {
	// ConfigureInput makes the line an input with the internal pull-up enabled.
	ConfigureInput(id PinID) error

	// ConfigureOutput makes the line an output driven to initial.
	ConfigureOutput(id PinID, initial Level) error

	// Read returns the current level of the line.
	Read(id PinID) (Level, error)

	// Write drives an output line.
	Write(id PinID, v Level) error

	// WatchFalling registers h for the line and enables falling-edge
	// detection on it. The line must already be configured as an input.
	WatchFalling(id PinID, h EdgeHandler) error

	// Close releases all lines.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultButtonR PinID = 20
	DefaultButtonY PinID = 21
	DefaultLEDR    PinID = 5
	DefaultLEDY    PinID = 10
)
