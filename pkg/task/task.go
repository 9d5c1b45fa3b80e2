// Package task defines the unit of computation scheduled by the graph.
package task

import "fmt"

// Dimensions is the fixed arity of a task.
type Dimensions struct {
	Input  int
	Param  int
	Output int
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%d/%d/%d", d.Input, d.Param, d.Output)
}

// Task is a computation with a fixed input, parameter and output arity.
//
// Setup is only called with exactly Dimensions().Param values. Run reads
// input and writes output, both sized to the dimensions; it may touch
// hardware but must not block. Running before Setup must be harmless.
type Task interface {
	Dimensions() Dimensions
	// Reset returns the task to its constructed state.
	Reset()
	// Clear drops runtime state but keeps parameters.
	Clear()
	Setup(params []float32)
	Run(input, output []float32, dt float64)
	Describe() string
}

// Faulter is implemented by tasks which can fail unrecoverably, e.g. a
// sensor which is not connected.
type Faulter interface {
	Fault() error
}

// FaultOf returns the fault of t, if any.
func FaultOf(t Task) error {
	if f, ok := t.(Faulter); ok {
		return f.Fault()
	}
	return nil
}

// Noop is the task used for unknown keys.
type Noop struct {
	Key string
}

// Dimensions implements Task.
func (n *Noop) Dimensions() Dimensions { return Dimensions{} }

// Reset implements Task.
func (n *Noop) Reset() {}

// Clear implements Task.
func (n *Noop) Clear() {}

// Setup implements Task.
func (n *Noop) Setup([]float32) {}

// Run implements Task.
func (n *Noop) Run(input, output []float32, dt float64) {}

// Describe implements Task.
func (n *Noop) Describe() string {
	return fmt.Sprintf("noop (unknown key %q)", n.Key)
}
