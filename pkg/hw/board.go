// Package hw abstracts the board peripherals used by tasks and the runtime.
package hw

import (
	"github.com/golang/glog"
	"tinygo.org/x/drivers"
)

// PWM drives analog outputs.
type PWM interface {
	// SetResolution sets the write resolution in bits.
	SetResolution(bits uint)
	SetFrequency(pin int, hz float64) error
	Write(pin int, value int) error
}

// GPIO drives digital outputs.
type GPIO interface {
	Set(pin int, high bool) error
}

// StatusOutput exposes one bit of health, e.g. a LED.
type StatusOutput interface {
	Set(on bool)
}

// Board groups the peripherals.
type Board struct {
	Bus  drivers.I2C
	PWM  PWM
	GPIO GPIO
	// Configured is on while every node is configured and linked.
	Configured StatusOutput
	// Running is on while nodes are running.
	Running StatusOutput
}

// PinOutput is a StatusOutput on a GPIO pin.
type PinOutput struct {
	GPIO GPIO
	Pin  int
	on   bool
	init bool
}

// Set implements StatusOutput, writing the pin only on changes.
func (o *PinOutput) Set(on bool) {
	if o.init && o.on == on {
		return
	}
	if err := o.GPIO.Set(o.Pin, on); err != nil {
		glog.Errorf("status pin %d: %v", o.Pin, err)
		return
	}
	o.on, o.init = on, true
}
