package tasks

import (
	"fmt"
	"math"

	"github.com/robotalks/tasknet/pkg/task"
)

// Sinusoid outputs amplitude*sin(frequency*t)+shift, t being its run time.
type Sinusoid struct {
	frequency float64
	amplitude float64
	shift     float64
	t         float64
}

// NewSinusoid creates a Sinusoid task.
func NewSinusoid() *Sinusoid {
	return &Sinusoid{}
}

// Dimensions implements task.Task.
func (s *Sinusoid) Dimensions() task.Dimensions {
	return task.Dimensions{Input: 0, Param: 3, Output: 1}
}

// Reset implements task.Task.
func (s *Sinusoid) Reset() {
	*s = Sinusoid{}
}

// Clear implements task.Task.
func (s *Sinusoid) Clear() {
	s.t = 0
}

// Setup implements task.Task.
func (s *Sinusoid) Setup(params []float32) {
	s.frequency = float64(params[0])
	s.amplitude = float64(params[1])
	s.shift = float64(params[2])
}

// Run implements task.Task.
func (s *Sinusoid) Run(input, output []float32, dt float64) {
	s.t += dt
	output[0] = float32(s.amplitude*math.Sin(s.frequency*s.t) + s.shift)
}

// Describe implements task.Task.
func (s *Sinusoid) Describe() string {
	return fmt.Sprintf("sinusoid freq=%v amp=%v shift=%v", s.frequency, s.amplitude, s.shift)
}
