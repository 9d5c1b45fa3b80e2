// Package tasks provides the concrete task variants, keyed by three
// character identifiers:
//
//	VAL  constant             0/1/1  value
//	SIN  sinusoid             0/3/1  frequency, amplitude, shift
//	CMF  complementary filter 9/1/3  gain
//	PWM  PWM driver           1/1/1  pin
//	FNG  TB6612FNG motor      1/7/4  stby, ai1, ai2, bi1, bi2, pwma, pwmb
//	LSM  LSM6DS3TR IMU        0/0/6
//
// Dimensions are input/param/output.
package tasks

import (
	"github.com/robotalks/tasknet/pkg/hw"
	"github.com/robotalks/tasknet/pkg/task"
)

// Task keys.
const (
	KeyConstant = "VAL"
	KeySinusoid = "SIN"
	KeyFilter   = "CMF"
	KeyPWM      = "PWM"
	KeyMotor    = "FNG"
	KeyIMU      = "LSM"
)

// Register adds all variants to reg, bound to board.
func Register(reg *task.Registry, board *hw.Board) *task.Registry {
	return reg.
		Register(KeyConstant, func() task.Task { return NewConstant() }).
		Register(KeySinusoid, func() task.Task { return NewSinusoid() }).
		Register(KeyFilter, func() task.Task { return NewFilter() }).
		Register(KeyPWM, func() task.Task { return NewPWM(board.PWM) }).
		Register(KeyMotor, func() task.Task { return NewMotor(board.PWM, board.GPIO) }).
		Register(KeyIMU, func() task.Task { return NewIMU(board.Bus) })
}

// NewRegistry creates a registry with all variants.
func NewRegistry(board *hw.Board) *task.Registry {
	return Register(task.NewRegistry(), board)
}
