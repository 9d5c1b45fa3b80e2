package hw

import "fmt"

// BusError is returned for transfers to an absent device.
type BusError struct {
	Addr uint16
}

// Error implements error.
func (e *BusError) Error() string {
	return fmt.Sprintf("i2c: no device at 0x%02x", e.Addr)
}
