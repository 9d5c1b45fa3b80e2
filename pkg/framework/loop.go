package framework

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultCycle is the default minimum duration of one main loop pass.
const DefaultCycle = 500 * time.Microsecond

// Loop is the cooperative main loop. It calls every Spinner back to back,
// once per pass, and paces passes to Cycle.
type Loop struct {
	Clock Clock
	// Cycle is the pass period. A pass taking longer is an overrun.
	// Zero means no pacing and no overrun accounting.
	Cycle time.Duration

	spinners []Spinner
	runners  []Runnable
	passes   uint64
	overruns uint64
}

// LoopStats reports pass accounting.
type LoopStats struct {
	Passes   uint64
	Overruns uint64
}

// NewLoop creates a Loop with a system clock.
func NewLoop() *Loop {
	return &Loop{Clock: NewSystemClock(), Cycle: DefaultCycle}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddSpinner registers spinners in execution order.
func (l *Loop) AddSpinner(spinners ...Spinner) *Loop {
	l.spinners = append(l.spinners, spinners...)
	for _, s := range spinners {
		if runner, ok := s.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions started along with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Stats returns pass accounting, safe to call from any goroutine.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Passes:   atomic.LoadUint64(&l.passes),
		Overruns: atomic.LoadUint64(&l.overruns),
	}
}

// Run implements Runnable. It spins until ctx is done or a Runnable added
// to the loop fails, returning that failure.
func (l *Loop) Run(ctx context.Context) error {
	if l.Clock == nil {
		l.Clock = NewSystemClock()
	}
	runner := NewRunnerWith(ctx).Go(l.runners...)
	for {
		select {
		case <-runner.Context.Done():
			if err := runner.Wait(); err != nil {
				return err
			}
			return runner.Context.Err()
		default:
		}
		start := l.Clock.Elapsed()
		l.RunPass(start)
		if l.Cycle <= 0 {
			continue
		}
		if elapsed := l.Clock.Elapsed() - start; elapsed > l.Cycle {
			atomic.AddUint64(&l.overruns, 1)
			glog.V(1).Infof("loop overcycled: %v > %v", elapsed, l.Cycle)
		} else {
			time.Sleep(l.Cycle - elapsed)
		}
	}
}

// RunPass runs all spinners once.
func (l *Loop) RunPass(now time.Duration) {
	for _, s := range l.spinners {
		s.Spin(now)
	}
	atomic.AddUint64(&l.passes, 1)
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		glog.Exitf("loop stopped: %v", err)
	}
}

// Ticker calls a Spinner at a fixed period from its own goroutine. It stands
// in for a periodic interrupt: the handler must never block.
type Ticker struct {
	Period  time.Duration
	Clock   Clock
	Handler Spinner
}

// Name implements Named.
func (t *Ticker) Name() string {
	return "ticker"
}

// Run implements Runnable.
func (t *Ticker) Run(ctx context.Context) error {
	clock := t.Clock
	if clock == nil {
		clock = NewSystemClock()
	}
	ticker := time.NewTicker(t.Period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Handler.Spin(clock.Elapsed())
		}
	}
}
