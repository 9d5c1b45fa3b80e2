package framework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	lock sync.Mutex
	now  time.Duration
	step time.Duration
}

func (c *fakeClock) Elapsed() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	now := c.now
	c.now += c.step
	return now
}

func TestLoopRunPassOrder(t *testing.T) {
	var order []int
	l := &Loop{}
	l.AddSpinner(
		SpinFunc(func(time.Duration) { order = append(order, 1) }),
		SpinFunc(func(time.Duration) { order = append(order, 2) }),
	)
	l.RunPass(0)
	l.RunPass(time.Millisecond)
	require.Equal(t, []int{1, 2, 1, 2}, order)
	require.Equal(t, uint64(2), l.Stats().Passes)
}

func TestLoopCountsOverruns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	// every Elapsed call advances 1ms, so each pass measures 1ms > 500us.
	l := &Loop{Clock: &fakeClock{step: time.Millisecond}, Cycle: 500 * time.Microsecond}
	var passes int
	l.AddSpinner(SpinFunc(func(time.Duration) {
		if passes++; passes == 3 {
			cancel()
		}
	}))
	err := l.Run(ctx)
	require.Equal(t, context.Canceled, err)
	stats := l.Stats()
	require.Equal(t, uint64(3), stats.Passes)
	require.Equal(t, uint64(3), stats.Overruns)
}

func TestTickerCallsHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ticks := make(chan time.Duration, 8)
	tk := &Ticker{
		Period: time.Millisecond,
		Clock:  &fakeClock{step: time.Millisecond},
		Handler: SpinFunc(func(now time.Duration) {
			select {
			case ticks <- now:
			default:
			}
		}),
	}
	errCh := make(chan error, 1)
	go func() { errCh <- tk.Run(ctx) }()
	first := <-ticks
	second := <-ticks
	require.True(t, second > first)
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

type errRunnable struct{ err error }

func (r errRunnable) Run(context.Context) error { return r.err }

func TestRunnerAggregatesErrors(t *testing.T) {
	r := NewRunner().Go(
		errRunnable{err: errors.New("a")},
		errRunnable{err: context.Canceled},
		NamedRun("b", errRunnable{err: errors.New("b")}),
	)
	err := r.Wait()
	require.Error(t, err)
	agg, ok := err.(*AggregatedError)
	require.True(t, ok)
	require.Len(t, agg.Errors, 2)
	require.Contains(t, err.Error(), "runner-0: a")
	require.Contains(t, err.Error(), "b: b")
}

type blockingRunnable struct{}

func (blockingRunnable) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunnerFailureStopsOthers(t *testing.T) {
	cause := errors.New("port closed")
	r := NewRunner().Go(
		NamedRun("loop", blockingRunnable{}),
		NamedRun("transport", errRunnable{err: cause}),
	)
	err := r.Wait()
	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	require.Equal(t, "transport", runErr.Name)
	require.True(t, errors.Is(err, cause))
	require.Equal(t, context.Canceled, r.Context.Err())
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner().Go(blockingRunnable{}, blockingRunnable{})
	r.Stop()
	require.NoError(t, r.Wait())
}

func TestLoopStopsOnRunnableFailure(t *testing.T) {
	cause := errors.New("link lost")
	l := &Loop{}
	l.AddSpinner(SpinFunc(func(time.Duration) {}))
	l.AddRunnable(NamedRun("transport", errRunnable{err: cause}))
	err := l.Run(context.Background())
	require.True(t, errors.Is(err, cause))
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	closes := 0
	closer := closerFunc(func() error {
		if closes++; closes == 1 {
			close(unblock)
		}
		return nil
	})
	cancel()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-unblock
		return errors.New("closed")
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, closes)

	closes = 0
	err = RunWithContextCloser(context.Background(), closerFunc(func() error {
		closes++
		return nil
	}), func() error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, closes)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())

	single := errors.New("single")
	require.Equal(t, single, errs.Add(single).Aggregate())

	err := errs.Add(context.DeadlineExceeded).Aggregate()
	require.Equal(t, "2 errors:\n  single\n  context deadline exceeded", err.Error())
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}
