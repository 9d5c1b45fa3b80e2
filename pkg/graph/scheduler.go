package graph

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/robotalks/tasknet/pkg/framework"
	"github.com/robotalks/tasknet/pkg/hw"
	"github.com/robotalks/tasknet/pkg/l0/comm"
	"github.com/robotalks/tasknet/pkg/task"
)

// DefaultStatusInterval is the period of status aggregation.
const DefaultStatusInterval = 250 * time.Millisecond

// Stats counts scheduler activity.
type Stats struct {
	Passes         uint64
	Overruns       uint64
	Commands       uint64
	Runs           uint64
	UnknownTasks   uint64
	ConfigErrors   uint64
	OverrideErrors uint64
	Resets         uint64
}

// Status is the aggregated health of the graph.
type Status struct {
	Session string
	// Time is when the status was computed.
	Time time.Duration
	// Configured is true when every node is configured and linked. With no
	// node it toggles on every status as a heartbeat.
	Configured bool
	// Running is true if any node fired since the previous status.
	Running bool
	Nodes   int
	// Fault is the first fault reported by a task.
	Fault error
}

// NodeInfo describes one node.
type NodeInfo struct {
	TaskID     byte
	Handle     int
	Key        string
	Configured bool
	Linked     bool
	Latch      comm.LatchMode
	Rate       time.Duration
	InputIDs   []byte
	Links      int
	Runs       uint64
	LastRun    time.Duration
	Output     []float32
	Fault      error
}

// StatusHandler receives every aggregated status with the node details.
// It is called from the Spin goroutine.
type StatusHandler func(Status, []NodeInfo)

// Scheduler owns the nodes and runs one pass per Spin.
type Scheduler struct {
	Registry *task.Registry
	Shared   *comm.Shared
	// Configured and Running receive the aggregated status. Optional.
	Configured hw.StatusOutput
	Running    hw.StatusOutput
	// OnStatus is called after each status aggregation. Optional.
	OnStatus       StatusHandler
	StatusInterval time.Duration
	// Budget is the pass duration counted as an overrun; zero disables.
	Budget time.Duration
	Clock  framework.Clock

	nodes []*Node
	ids   []byte

	session    uuid.UUID
	statusAt   time.Duration
	statusInit bool
	heartbeat  bool
	fired      bool

	lock   sync.Mutex
	stats  Stats
	status Status
}

// NewScheduler creates a scheduler.
func NewScheduler(reg *task.Registry, shared *comm.Shared) *Scheduler {
	return &Scheduler{
		Registry:       reg,
		Shared:         shared,
		StatusInterval: DefaultStatusInterval,
		session:        uuid.New(),
	}
}

// WithBoard drives the board status outputs.
func (s *Scheduler) WithBoard(board *hw.Board) *Scheduler {
	s.Configured, s.Running = board.Configured, board.Running
	return s
}

// AddToLoop implements framework.LoopAdder.
func (s *Scheduler) AddToLoop(l *framework.Loop) {
	if s.Clock == nil {
		s.Clock = l.Clock
	}
	l.AddSpinner(s)
}

// Session identifies the graph since the last reset.
func (s *Scheduler) Session() string {
	return s.session.String()
}

// Stats returns a snapshot of the counters. Safe from any goroutine.
func (s *Scheduler) Stats() Stats {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.stats
}

// Status returns the last aggregated status. Safe from any goroutine.
func (s *Scheduler) Status() Status {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.status
}

// Len returns the number of nodes.
func (s *Scheduler) Len() int {
	return len(s.nodes)
}

// Node returns the node with the task id.
func (s *Scheduler) Node(id byte) (*Node, bool) {
	if h, ok := s.lookup(id); ok {
		return s.nodes[h], true
	}
	return nil, false
}

// Spin implements framework.Spinner. It runs one full pass.
func (s *Scheduler) Spin(now time.Duration) {
	s.Shared.Setup.Drain(func(cmd comm.Command) {
		s.count(func(st *Stats) { st.Commands++ })
		s.apply(cmd)
	})

	var runs uint64
	for h, n := range s.nodes {
		s.link(n)
		if !n.RunIfReady(now) {
			continue
		}
		runs++
		s.fired = true
		s.Shared.Feedback.Publish(h, n.Output(), n.Latch(), n.IsConfigured(), framework.Seconds(now))
	}

	s.aggregate(now)

	overrun := false
	if s.Budget > 0 && s.Clock != nil {
		if took := s.Clock.Elapsed() - now; took > s.Budget {
			overrun = true
			glog.V(1).Infof("scheduler pass took %v > %v", took, s.Budget)
		}
	}
	s.count(func(st *Stats) {
		st.Passes++
		st.Runs += runs
		if overrun {
			st.Overruns++
		}
	})
}

func (s *Scheduler) count(fn func(*Stats)) {
	s.lock.Lock()
	fn(&s.stats)
	s.lock.Unlock()
}

func (s *Scheduler) lookup(id byte) (int, bool) {
	for h, nid := range s.ids {
		if nid == id {
			return h, true
		}
	}
	return -1, false
}

func (s *Scheduler) apply(cmd comm.Command) {
	glog.V(2).Infof("apply %v", cmd)
	switch c := cmd.(type) {
	case *comm.InitCommand:
		s.init(c)
	case *comm.ConfigureCommand:
		s.configure(c)
	case *comm.OverrideCommand:
		s.override(c)
	case *comm.ResetCommand:
		s.Reset()
	default:
		glog.Errorf("unsupported command %T", cmd)
	}
}

func (s *Scheduler) init(c *comm.InitCommand) {
	t := s.Registry.New(c.Key)
	rate := time.Duration(c.RateMs) * time.Millisecond
	h, ok := s.lookup(c.TaskID)
	var n *Node
	if ok {
		n = s.nodes[h]
		n.Task().Reset()
		s.Shared.Feedback.SetConfigured(h, false)
		glog.Infof("task %d replaced by %s", c.TaskID, c.Key)
	} else {
		h = s.Shared.Feedback.Append(c.TaskID)
		n = NewNode(c.TaskID, h)
		s.nodes = append(s.nodes, n)
		s.ids = append(s.ids, c.TaskID)
		glog.Infof("task %d created as %s", c.TaskID, c.Key)
	}
	n.SetTask(t, rate)
	n.SetKey(c.Key)
	n.SetInputIDs(c.InputIDs)
	n.SetLatch(comm.LatchNormal)
	// tasks without parameters are configured right away.
	n.SetupIfReady()
}

func (s *Scheduler) configure(c *comm.ConfigureCommand) {
	h, ok := s.lookup(c.TaskID)
	if !ok {
		s.reject(c.TaskID, ErrUnknownTask, func(st *Stats) { st.UnknownTasks++ })
		return
	}
	n := s.nodes[h]
	if n.IsConfigured() {
		s.reject(c.TaskID, ErrAlreadyConfigured, func(st *Stats) { st.ConfigErrors++ })
		return
	}
	if err := n.Configure(c.Offset, c.Values); err != nil {
		s.reject(c.TaskID, err, func(st *Stats) { st.ConfigErrors++ })
		return
	}
	if n.SetupIfReady() {
		s.Shared.Feedback.SetConfigured(h, true)
		glog.Infof("task %d configured: %s", c.TaskID, n.Task().Describe())
	}
}

func (s *Scheduler) override(c *comm.OverrideCommand) {
	n, ok := s.Node(c.TaskID)
	if !ok {
		s.reject(c.TaskID, ErrUnknownTask, func(st *Stats) { st.UnknownTasks++ })
		return
	}
	if c.Latch != comm.LatchNormal && !n.IsConfigured() {
		s.reject(c.TaskID, ErrNotConfigured, func(st *Stats) { st.OverrideErrors++ })
		return
	}
	if err := n.Hold(c.Latch, c.Values); err != nil {
		s.reject(c.TaskID, err, func(st *Stats) { st.OverrideErrors++ })
		return
	}
	glog.V(1).Infof("task %d latch %s", c.TaskID, c.Latch)
}

func (s *Scheduler) reject(id byte, err error, fn func(*Stats)) {
	s.count(fn)
	glog.Warningf("dropped command: %v", &NodeError{TaskID: id, Err: err})
}

// Reset drops every node and feedback record and starts a new session.
func (s *Scheduler) Reset() {
	for _, n := range s.nodes {
		n.Task().Reset()
	}
	s.nodes, s.ids = nil, nil
	s.Shared.Feedback.Reset()
	s.session = uuid.New()
	s.count(func(st *Stats) { st.Resets++ })
	glog.Infof("graph reset, session %s", s.session)
}

// link resolves pending inputs in declared order, stopping at the first
// id not present yet.
func (s *Scheduler) link(n *Node) {
	for pos := n.LinkCount(); pos < len(n.InputIDs()); pos++ {
		pred, ok := s.Node(n.InputIDs()[pos])
		if !ok || !n.Link(pred, pos) {
			return
		}
	}
}

func (s *Scheduler) aggregate(now time.Duration) {
	interval := s.StatusInterval
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	if s.statusInit && now-s.statusAt < interval {
		return
	}
	s.statusAt, s.statusInit = now, true

	st := Status{Session: s.Session(), Time: now, Running: s.fired, Nodes: len(s.nodes)}
	s.fired = false
	if len(s.nodes) == 0 {
		s.heartbeat = !s.heartbeat
		st.Configured = s.heartbeat
	} else {
		st.Configured = true
		for _, n := range s.nodes {
			if !n.IsConfigured() || !n.IsLinked() {
				st.Configured = false
			}
			if err := task.FaultOf(n.Task()); err != nil && st.Fault == nil {
				st.Fault = &NodeError{TaskID: n.ID(), Err: err}
			}
		}
	}
	if s.Configured != nil {
		s.Configured.Set(st.Configured)
	}
	if s.Running != nil {
		s.Running.Set(st.Running)
	}
	s.lock.Lock()
	s.status = st
	s.lock.Unlock()
	if s.OnStatus != nil {
		s.OnStatus(st, s.Snapshot())
	}
}

// Snapshot describes all nodes. It must be called from the Spin goroutine.
func (s *Scheduler) Snapshot() []NodeInfo {
	infos := make([]NodeInfo, 0, len(s.nodes))
	for _, n := range s.nodes {
		infos = append(infos, NodeInfo{
			TaskID:     n.ID(),
			Handle:     n.Handle(),
			Key:        n.Key(),
			Configured: n.IsConfigured(),
			Linked:     n.IsLinked(),
			Latch:      n.Latch(),
			Rate:       n.Rate(),
			InputIDs:   append([]byte(nil), n.InputIDs()...),
			Links:      n.LinkCount(),
			Runs:       n.Runs(),
			LastRun:    n.LastRun(),
			Output:     append([]float32(nil), n.Output()...),
			Fault:      task.FaultOf(n.Task()),
		})
	}
	return infos
}
