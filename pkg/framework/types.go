package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Clock provides the monotonic time since boot.
type Clock interface {
	Elapsed() time.Duration
}

// Spinner is invoked once per pass with the pass time.
type Spinner interface {
	Spin(now time.Duration)
}

// SpinFunc is the func form of Spinner.
type SpinFunc func(now time.Duration)

// Spin implements Spinner.
func (f SpinFunc) Spin(now time.Duration) {
	f(now)
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// SystemClock measures time from its creation.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock started now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Elapsed implements Clock.
func (c *SystemClock) Elapsed() time.Duration {
	return time.Since(c.start)
}

// Seconds converts a duration into float32 seconds, the unit used on the wire.
func Seconds(d time.Duration) float32 {
	return float32(d.Seconds())
}
