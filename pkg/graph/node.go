package graph

import (
	"fmt"
	"time"

	"github.com/robotalks/tasknet/pkg/l0/comm"
	"github.com/robotalks/tasknet/pkg/task"
)

// Node drives one task: it owns the task's parameters, its resolved input
// links, the latch mode and the rate gate.
type Node struct {
	id     byte
	handle int

	task    task.Task
	key     string
	dims    task.Dimensions
	rate    time.Duration
	lastRun time.Duration
	runs    uint64
	latch   comm.LatchMode

	inputIDs []byte
	links    []*Node
	params   []float32
	input    []float32
	output   []float32
}

// NewNode creates a node running the noop task.
func NewNode(id byte, handle int) *Node {
	n := &Node{id: id, handle: handle}
	n.SetTask(&task.Noop{}, 0)
	return n
}

// ID returns the external task id.
func (n *Node) ID() byte { return n.id }

// Handle returns the registry index.
func (n *Node) Handle() int { return n.handle }

// Task returns the driven task.
func (n *Node) Task() task.Task { return n.task }

// Key returns the key the task was created from.
func (n *Node) Key() string { return n.key }

// Rate returns the minimum interval between runs.
func (n *Node) Rate() time.Duration { return n.rate }

// Latch returns the latch mode.
func (n *Node) Latch() comm.LatchMode { return n.latch }

// InputIDs returns the declared inputs.
func (n *Node) InputIDs() []byte { return n.inputIDs }

// Output returns the output buffer.
func (n *Node) Output() []float32 { return n.output }

// Input returns the input buffer.
func (n *Node) Input() []float32 { return n.input }

// Params returns the parameters received so far.
func (n *Node) Params() []float32 { return n.params }

// LastRun returns the time of the last run.
func (n *Node) LastRun() time.Duration { return n.lastRun }

// Runs returns how many times the node fired.
func (n *Node) Runs() uint64 { return n.runs }

// LinkCount returns the number of resolved links.
func (n *Node) LinkCount() int { return len(n.links) }

// IsConfigured reports whether all parameters have been received.
func (n *Node) IsConfigured() bool {
	return len(n.params) == n.dims.Param
}

// IsLinked reports whether every declared input is resolved.
func (n *Node) IsLinked() bool {
	return len(n.links) == len(n.inputIDs)
}

// SetTask replaces the task and its rate. Parameters and links are
// dropped since the new task's dimensions may differ. The time of the last
// run is kept, so the rate gate still measures from it.
func (n *Node) SetTask(t task.Task, rate time.Duration) {
	n.task, n.rate = t, rate
	n.dims = t.Dimensions()
	n.input = make([]float32, n.dims.Input)
	n.output = make([]float32, n.dims.Output)
	n.params, n.links = nil, nil
	t.Reset()
}

// SetKey records the key the task was created from.
func (n *Node) SetKey(key string) { n.key = key }

// SetInputIDs replaces the declared inputs. Links must be resolved again.
func (n *Node) SetInputIDs(ids []byte) {
	n.inputIDs = append([]byte(nil), ids...)
	n.links = nil
}

// Link resolves the input at position to pred. Positions are resolved in
// order, so it is accepted only for the next unresolved position. A node
// never links to itself.
func (n *Node) Link(pred *Node, position int) bool {
	if pred == nil || pred == n || position != len(n.links) || position >= len(n.inputIDs) {
		return false
	}
	if pred.id != n.inputIDs[position] {
		return false
	}
	n.links = append(n.links, pred)
	return true
}

// Configure stores a chunk of parameters at offset. A chunk at the end is
// appended; an earlier one overwrites what was received.
func (n *Node) Configure(offset int, values []float32) error {
	if offset > len(n.params) {
		return fmt.Errorf("offset %d, have %d: %w", offset, len(n.params), ErrChunkGap)
	}
	end := offset + len(values)
	if end > n.dims.Param {
		return fmt.Errorf("chunk ends at %d of %d: %w", end, n.dims.Param, ErrChunkOverflow)
	}
	if end > len(n.params) {
		n.params = append(n.params, make([]float32, end-len(n.params))...)
	}
	copy(n.params[offset:], values)
	return nil
}

// SetupIfReady sets up the task once configured and reports whether it did.
func (n *Node) SetupIfReady() bool {
	if !n.IsConfigured() {
		return false
	}
	n.task.Setup(n.params)
	return true
}

// SetLatch changes the latch mode. It is always accepted.
func (n *Node) SetLatch(mode comm.LatchMode) {
	n.latch = mode
}

// Hold sets the latch mode and pins values: the output for OutputHeld, the
// input for InputHeld. Normal ignores values.
func (n *Node) Hold(mode comm.LatchMode, values []float32) error {
	switch mode {
	case comm.LatchNormal:
	case comm.LatchOutputHeld:
		if len(values) != len(n.output) {
			return fmt.Errorf("%d values for %d outputs: %w", len(values), len(n.output), ErrLatchMismatch)
		}
		copy(n.output, values)
	case comm.LatchInputHeld:
		if len(values) != len(n.input) {
			return fmt.Errorf("%d values for %d inputs: %w", len(values), len(n.input), ErrLatchMismatch)
		}
		copy(n.input, values)
	default:
		return ErrInvalidLatch
	}
	n.SetLatch(mode)
	return nil
}

// RunIfReady runs the task if configured, linked and at least the rate has
// passed since its last run, or since boot for a node that never ran. An
// OutputHeld node fires without running.
func (n *Node) RunIfReady(now time.Duration) bool {
	if !n.IsConfigured() || !n.IsLinked() {
		return false
	}
	dt := now - n.lastRun
	if dt < n.rate {
		return false
	}
	switch n.latch {
	case comm.LatchNormal:
		n.gather()
		n.task.Run(n.input, n.output, dt.Seconds())
	case comm.LatchInputHeld:
		n.task.Run(n.input, n.output, dt.Seconds())
	}
	n.lastRun = now
	n.runs++
	return true
}

func (n *Node) gather() {
	off := 0
	for _, pred := range n.links {
		if off >= len(n.input) {
			break
		}
		off += copy(n.input[off:], pred.output)
	}
}
