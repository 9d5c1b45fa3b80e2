package tasks

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/hw"
	"github.com/robotalks/tasknet/pkg/task"
)

// PWM resolution of the PWM task.
const (
	PWMResolution = 12
	pwmScale      = 1 << PWMResolution
)

// PWM writes its input, clamped to [0, 1], as a 12-bit duty cycle.
type PWM struct {
	out    hw.PWM
	pin    int
	duty   int
	active bool
}

// NewPWM creates a PWM task on out.
func NewPWM(out hw.PWM) *PWM {
	return &PWM{out: out}
}

// Dimensions implements task.Task.
func (p *PWM) Dimensions() task.Dimensions {
	return task.Dimensions{Input: 1, Param: 1, Output: 1}
}

// Reset implements task.Task.
func (p *PWM) Reset() {
	p.Clear()
	p.active = false
}

// Clear implements task.Task.
func (p *PWM) Clear() {
	p.duty = 0
}

// Setup implements task.Task.
func (p *PWM) Setup(params []float32) {
	p.pin = int(params[0])
	p.out.SetResolution(PWMResolution)
	p.active = true
}

// Run implements task.Task.
func (p *PWM) Run(input, output []float32, dt float64) {
	p.duty = clamp(int(clamp(input[0], 0, 1)*pwmScale), 0, pwmScale-1)
	if p.active {
		if err := p.out.Write(p.pin, p.duty); err != nil {
			glog.Errorf("pwm %d: %v", p.pin, err)
		}
	}
	output[0] = float32(p.duty)
}

// Describe implements task.Task.
func (p *PWM) Describe() string {
	return fmt.Sprintf("pwm pin=%d duty=%d", p.pin, p.duty)
}
