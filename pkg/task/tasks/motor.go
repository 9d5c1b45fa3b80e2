package tasks

import (
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/hw"
	"github.com/robotalks/tasknet/pkg/task"
)

// Motor driver constants.
const (
	MotorResolution = 15
	MotorFrequency  = 1000.0
	motorScale      = 1 << MotorResolution
)

// Motor drives both channels of a TB6612FNG H-bridge from a signed speed
// in [-1, 1]. Output is enabled, direction, duty A, duty B.
type Motor struct {
	pwm  hw.PWM
	gpio hw.GPIO
	// stby, ai1, ai2, bi1, bi2, pwma, pwmb
	pins   [7]int
	active bool
	out    [4]float32
}

// NewMotor creates a Motor task.
func NewMotor(pwm hw.PWM, gpio hw.GPIO) *Motor {
	return &Motor{pwm: pwm, gpio: gpio}
}

// Dimensions implements task.Task.
func (m *Motor) Dimensions() task.Dimensions {
	return task.Dimensions{Input: 1, Param: 7, Output: 4}
}

// Reset implements task.Task.
func (m *Motor) Reset() {
	m.stop()
	m.active = false
	m.out = [4]float32{}
}

// Clear implements task.Task.
func (m *Motor) Clear() {}

// Setup implements task.Task.
func (m *Motor) Setup(params []float32) {
	for i := range m.pins {
		m.pins[i] = int(params[i])
	}
	m.pwm.SetResolution(MotorResolution)
	for _, pin := range m.pins[5:] {
		if err := m.pwm.SetFrequency(pin, MotorFrequency); err != nil {
			glog.Errorf("motor pwm %d: %v", pin, err)
		}
	}
	m.active = true
}

// Run implements task.Task.
func (m *Motor) Run(input, output []float32, dt float64) {
	forward := input[0] > 0
	duty := int(clamp(math.Abs(float64(input[0])), 0, 1) * motorScale)
	duty = clamp(duty, 0, motorScale-1)
	if m.active {
		m.write(true, forward, duty)
	}
	m.out[0], m.out[1], m.out[2], m.out[3] = 1, 0, float32(duty), float32(duty)
	if forward {
		m.out[1] = 1
	}
	copy(output, m.out[:])
}

func (m *Motor) stop() {
	if m.active {
		m.write(false, false, 0)
	}
}

func (m *Motor) write(enable, forward bool, duty int) {
	stby, ai1, ai2, bi1, bi2, pwma, pwmb := m.pins[0], m.pins[1], m.pins[2], m.pins[3], m.pins[4], m.pins[5], m.pins[6]
	errs := []error{
		m.gpio.Set(stby, enable),
		m.gpio.Set(ai1, forward),
		m.gpio.Set(bi1, forward),
		m.gpio.Set(ai2, enable && !forward),
		m.gpio.Set(bi2, enable && !forward),
		m.pwm.Write(pwma, duty),
		m.pwm.Write(pwmb, duty),
	}
	for _, err := range errs {
		if err != nil {
			glog.Errorf("motor: %v", err)
			return
		}
	}
}

// Describe implements task.Task.
func (m *Motor) Describe() string {
	return fmt.Sprintf("tb6612fng pins=%v out=%v", m.pins, m.out)
}
