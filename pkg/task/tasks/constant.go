package tasks

import (
	"fmt"

	"github.com/robotalks/tasknet/pkg/task"
)

// Constant outputs its parameter.
type Constant struct {
	value float32
}

// NewConstant creates a Constant task.
func NewConstant() *Constant {
	return &Constant{}
}

// Dimensions implements task.Task.
func (c *Constant) Dimensions() task.Dimensions {
	return task.Dimensions{Input: 0, Param: 1, Output: 1}
}

// Reset implements task.Task.
func (c *Constant) Reset() { c.value = 0 }

// Clear implements task.Task.
func (c *Constant) Clear() {}

// Setup implements task.Task.
func (c *Constant) Setup(params []float32) {
	c.value = params[0]
}

// Run implements task.Task.
func (c *Constant) Run(input, output []float32, dt float64) {
	output[0] = c.value
}

// Describe implements task.Task.
func (c *Constant) Describe() string {
	return fmt.Sprintf("constant %v", c.value)
}
