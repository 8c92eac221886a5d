//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported")

// RealController is not available on non-Linux platforms.
type RealController struct{}

// NewRealController returns an error on non-Linux platforms.
func NewRealController(chipName string) (*RealController, error) {
	return nil, errors.New("gpio: character device not supported on this platform (requires Linux)")
}

func (c *RealController) ConfigureInput(id PinID) error                 { return errUnsupported }
func (c *RealController) ConfigureOutput(id PinID, initial Level) error { return errUnsupported }
func (c *RealController) Read(id PinID) (Level, error)                  { return Low, errUnsupported }
func (c *RealController) Write(id PinID, v Level) error                 { return errUnsupported }
func (c *RealController) WatchFalling(id PinID, h EdgeHandler) error    { return errUnsupported }

// Close is a no-op on non-Linux platforms.
func (c *RealController) Close() error {
	return nil
}
