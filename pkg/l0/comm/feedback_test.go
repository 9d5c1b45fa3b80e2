package comm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedbackRoundRobin(t *testing.T) {
	const n = 5
	table := NewFeedbackTable()
	for i := 0; i < n; i++ {
		require.Equal(t, i, table.Append(byte(100+i)))
	}

	publishAll := func() {
		for i := 0; i < n; i++ {
			table.Publish(i, []float32{float32(i)}, LatchNormal, true, 0)
		}
	}

	publishAll()
	for i := 0; i < n; i++ {
		fb, ok := table.Next()
		require.True(t, ok)
		require.Equal(t, byte(100+i), fb.TaskID)
	}
	_, ok := table.Next()
	require.False(t, ok)

	// only 1 and 3 updated: resume after the last sent index (4), wrap.
	table.Publish(3, []float32{3}, LatchNormal, true, 0)
	table.Publish(1, []float32{1}, LatchNormal, true, 0)
	fb, ok := table.Next()
	require.True(t, ok)
	require.Equal(t, byte(101), fb.TaskID)
	fb, ok = table.Next()
	require.True(t, ok)
	require.Equal(t, byte(103), fb.TaskID)

	// a full round starts after 3.
	publishAll()
	var order []byte
	for i := 0; i < n; i++ {
		fb, ok := table.Next()
		require.True(t, ok)
		order = append(order, fb.TaskID)
	}
	require.Equal(t, []byte{104, 100, 101, 102, 103}, order)
}

func TestFeedbackSkipsEmptyOutput(t *testing.T) {
	table := NewFeedbackTable()
	empty := table.Append(1)
	full := table.Append(2)
	table.Publish(empty, nil, LatchNormal, true, 0)
	table.Publish(full, []float32{5}, LatchNormal, true, 0)

	fb, ok := table.Next()
	require.True(t, ok)
	require.Equal(t, byte(2), fb.TaskID)
	_, ok = table.Next()
	require.False(t, ok)

	rec, ok := table.Get(empty)
	require.True(t, ok)
	require.Equal(t, 1, rec.UpdateCount)
}

func TestFeedbackPublishAndSnapshot(t *testing.T) {
	table := NewFeedbackTable()
	h := table.Append(7)
	table.Publish(h, []float32{1, 2}, LatchInputHeld, true, 1.5)
	table.Publish(h, []float32{3, 4}, LatchInputHeld, true, 2)

	fb, ok := table.Get(h)
	require.True(t, ok)
	require.Equal(t, 2, fb.UpdateCount)
	require.Equal(t, []float32{3, 4}, fb.Output)
	require.Equal(t, float32(2), fb.Timestamp)
	require.True(t, fb.Configured)

	fb.Output[0] = 42
	again, _ := table.Get(h)
	require.Equal(t, float32(3), again.Output[0])

	table.SetConfigured(h, false)
	again, _ = table.Get(h)
	require.False(t, again.Configured)

	table.Publish(99, nil, LatchNormal, true, 0)
	_, ok = table.Get(99)
	require.False(t, ok)

	table.Reset()
	require.Equal(t, 0, table.Len())
	_, ok = table.Next()
	require.False(t, ok)
}

func TestFeedbackConcurrentAccess(t *testing.T) {
	table := NewFeedbackTable()
	for i := 0; i < 4; i++ {
		table.Append(byte(i))
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			table.Publish(i%4, []float32{float32(i)}, LatchNormal, true, 0)
		}
	}()
	taken := 0
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if _, ok := table.Next(); ok {
				taken++
			}
		}
	}()
	wg.Wait()
	require.True(t, taken <= 1000)
}

func TestSetupQueueDrainIsBounded(t *testing.T) {
	var q SetupQueue
	q.Push(&ResetCommand{})
	q.Push(&InitCommand{TaskID: 1})

	var seen []Command
	n := q.Drain(func(cmd Command) {
		seen = append(seen, cmd)
		q.Push(&InitCommand{TaskID: 2})
	})
	require.Equal(t, 2, n)
	require.Len(t, seen, 2)
	require.Equal(t, &ResetCommand{}, seen[0])
	require.Equal(t, 2, q.Len())

	require.NotNil(t, q.Pop())
	q.Clear()
	require.Nil(t, q.Pop())
	require.Equal(t, 0, q.Drain(func(Command) { t.Fatal("unexpected command") }))
}
