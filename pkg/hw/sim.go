package hw

import (
	"sync"

	"github.com/golang/glog"
)

// Simulated LSM6DS3TR register layout.
const (
	SimIMUAddress = 0x6A
	regWhoAmI     = 0x0F
	whoAmIValue   = 0x6A
	regOutGyro    = 0x22
	regOutAccel   = 0x28
)

// SimBus is an in-memory I2C bus of register files.
// Multi-byte transfers auto-increment the register.
type SimBus struct {
	lock    sync.Mutex
	devices map[uint16]*[256]byte
}

// NewSimBus creates a bus with a simulated IMU at rest: 1g on Z.
func NewSimBus() *SimBus {
	b := &SimBus{devices: make(map[uint16]*[256]byte)}
	imu := b.Attach(SimIMUAddress)
	imu[regWhoAmI] = whoAmIValue
	// 8g range: 0.244 mg/LSB, 1g is 4096 LSB.
	imu[regOutAccel+4], imu[regOutAccel+5] = 0x00, 0x10
	return b
}

// Attach adds a device at addr and returns its registers.
func (b *SimBus) Attach(addr uint16) *[256]byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	regs := &[256]byte{}
	b.devices[addr] = regs
	return regs
}

// Detach removes the device at addr.
func (b *SimBus) Detach(addr uint16) {
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.devices, addr)
}

// Tx implements drivers.I2C.
func (b *SimBus) Tx(addr uint16, w, r []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	regs, ok := b.devices[addr]
	if !ok {
		return &BusError{Addr: addr}
	}
	if len(w) == 0 {
		return nil
	}
	reg := w[0]
	for i, v := range w[1:] {
		regs[reg+byte(i)] = v
	}
	for i := range r {
		r[i] = regs[reg+byte(i)]
	}
	return nil
}

// SimPins records PWM and GPIO writes.
type SimPins struct {
	lock       sync.Mutex
	resolution uint
	analog     map[int]int
	digital    map[int]bool
}

// NewSimPins creates SimPins.
func NewSimPins() *SimPins {
	return &SimPins{analog: make(map[int]int), digital: make(map[int]bool)}
}

// SetResolution implements PWM.
func (p *SimPins) SetResolution(bits uint) {
	p.lock.Lock()
	p.resolution = bits
	p.lock.Unlock()
}

// SetFrequency implements PWM.
func (p *SimPins) SetFrequency(pin int, hz float64) error {
	glog.V(2).Infof("sim pwm %d: %vHz", pin, hz)
	return nil
}

// Write implements PWM.
func (p *SimPins) Write(pin int, value int) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.analog[pin] != value {
		glog.V(3).Infof("sim pwm %d: %d/%d bits", pin, value, p.resolution)
	}
	p.analog[pin] = value
	return nil
}

// Set implements GPIO.
func (p *SimPins) Set(pin int, high bool) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.digital[pin] != high {
		glog.V(3).Infof("sim gpio %d: %v", pin, high)
	}
	p.digital[pin] = high
	return nil
}

// Analog returns the last PWM value of pin.
func (p *SimPins) Analog(pin int) int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.analog[pin]
}

// Digital returns the last GPIO level of pin.
func (p *SimPins) Digital(pin int) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.digital[pin]
}

// Resolution returns the PWM resolution.
func (p *SimPins) Resolution() uint {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.resolution
}

// LogOutput is a StatusOutput which logs transitions.
type LogOutput struct {
	Name string
	lock sync.Mutex
	on   bool
}

// Set implements StatusOutput.
func (o *LogOutput) Set(on bool) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.on != on {
		glog.V(1).Infof("%s: %v", o.Name, on)
	}
	o.on = on
}

// On returns the current state.
func (o *LogOutput) On() bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.on
}

// NewSimBoard creates a board backed by simulated peripherals.
func NewSimBoard() *Board {
	pins := NewSimPins()
	return &Board{
		Bus:        NewSimBus(),
		PWM:        pins,
		GPIO:       pins,
		Configured: &LogOutput{Name: "configured"},
		Running:    &LogOutput{Name: "running"},
	}
}
