package tasks

import (
	"fmt"
	"math"

	"github.com/robotalks/tasknet/pkg/task"
)

// DefaultFilterGain weights the accelerometer attitude against the gyro.
const DefaultFilterGain = 0.4

// Filter is a complementary filter estimating roll, pitch and yaw.
//
// Input is the previous estimate (3), acceleration (3) and rotation rate
// (3), usually linked as [self, imu]. Roll and pitch blend the attitude
// from gravity with the integrated rates; yaw is integrated only.
type Filter struct {
	gain  float64
	accel [3]float64
	gyro  [3]float64
}

// NewFilter creates a Filter task.
func NewFilter() *Filter {
	return &Filter{gain: DefaultFilterGain}
}

// Dimensions implements task.Task.
func (f *Filter) Dimensions() task.Dimensions {
	return task.Dimensions{Input: 9, Param: 1, Output: 3}
}

// Reset implements task.Task.
func (f *Filter) Reset() {
	f.gain = DefaultFilterGain
	f.Clear()
}

// Clear implements task.Task.
func (f *Filter) Clear() {
	f.accel, f.gyro = [3]float64{}, [3]float64{}
}

// Setup implements task.Task.
func (f *Filter) Setup(params []float32) {
	f.gain = clamp(float64(params[0]), 0, 1)
	f.Clear()
}

// Run implements task.Task.
func (f *Filter) Run(input, output []float32, dt float64) {
	var est, acc, rate [3]float64
	for i := 0; i < 3; i++ {
		est[i] = float64(input[i])
		acc[i] = float64(input[3+i])
		rate[i] = float64(input[6+i])
	}

	f.accel[0] = math.Atan2(acc[1], math.Hypot(acc[0], acc[2]))
	f.accel[1] = math.Atan2(-acc[0], math.Hypot(acc[1], acc[2]))
	for i := range f.gyro {
		f.gyro[i] = est[i] + rate[i]*dt
	}
	// no heading reference: yaw follows the gyro.
	f.accel[2] = f.gyro[2]

	for i := range est {
		v := f.gain*f.accel[i] + (1-f.gain)*f.gyro[i]
		if math.IsNaN(v) {
			v = est[i]
		}
		output[i] = float32(wrapAngle(v))
	}
}

// Describe implements task.Task.
func (f *Filter) Describe() string {
	return fmt.Sprintf("complementary filter gain=%v accel=%.3f gyro=%.3f", f.gain, f.accel, f.gyro)
}
