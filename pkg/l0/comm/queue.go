package comm

import "sync"

// SetupQueue is the FIFO of decoded commands between the pipeline and the
// scheduler. Each method holds the lock for a single operation.
type SetupQueue struct {
	lock  sync.Mutex
	items []Command
}

// Push appends a command.
func (q *SetupQueue) Push(cmd Command) {
	q.lock.Lock()
	q.items = append(q.items, cmd)
	q.lock.Unlock()
}

// Len returns the number of queued commands.
func (q *SetupQueue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// Pop removes the oldest command, or returns nil.
func (q *SetupQueue) Pop() Command {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	cmd := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return cmd
}

// Drain pops at most the number of commands queued when it is called, so
// commands pushed meanwhile wait for the next drain.
func (q *SetupQueue) Drain(fn func(Command)) int {
	n := q.Len()
	for i := 0; i < n; i++ {
		cmd := q.Pop()
		if cmd == nil {
			return i
		}
		fn(cmd)
	}
	return n
}

// Clear drops all queued commands.
func (q *SetupQueue) Clear() {
	q.lock.Lock()
	q.items = nil
	q.lock.Unlock()
}
