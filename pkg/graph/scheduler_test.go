package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tasknet/pkg/hw"
	"github.com/robotalks/tasknet/pkg/l0/comm"
	"github.com/robotalks/tasknet/pkg/task"
	"github.com/robotalks/tasknet/pkg/task/tasks"
)

type schedulerEnv struct {
	t      *testing.T
	board  *hw.Board
	shared *comm.Shared
	sched  *Scheduler
	probes map[string]*probe
	now    time.Duration
}

func newSchedulerEnv(t *testing.T) *schedulerEnv {
	e := &schedulerEnv{
		t:      t,
		board:  hw.NewSimBoard(),
		shared: comm.NewShared(),
		probes: make(map[string]*probe),
	}
	reg := tasks.NewRegistry(e.board)
	reg.Register("P01", func() task.Task { return e.probe("P01", newProbe(0, 1, 2)) })
	reg.Register("P10", func() task.Task { return e.probe("P10", newProbe(1, 0, 1)) })
	reg.Register("P00", func() task.Task { return e.probe("P00", newProbe(0, 0, 1)) })
	e.sched = NewScheduler(reg, e.shared).WithBoard(e.board)
	return e
}

func (e *schedulerEnv) probe(key string, p *probe) *probe {
	e.probes[key] = p
	return p
}

func (e *schedulerEnv) push(cmds ...comm.Command) *schedulerEnv {
	for _, cmd := range cmds {
		e.shared.Setup.Push(cmd)
	}
	return e
}

func (e *schedulerEnv) spin() *schedulerEnv {
	e.now += time.Millisecond
	e.sched.Spin(e.now)
	return e
}

func (e *schedulerEnv) node(id byte) *Node {
	n, ok := e.sched.Node(id)
	require.True(e.t, ok, "node %d", id)
	return n
}

func (e *schedulerEnv) feedback(id byte) *comm.FeedbackRecord {
	fb, ok := e.shared.Feedback.Get(e.node(id).Handle())
	require.True(e.t, ok)
	return fb
}

func TestSchedulerImuFilterScenario(t *testing.T) {
	e := newSchedulerEnv(t)

	e.push(&comm.InitCommand{TaskID: 10, Key: "LSM"}).spin()
	imu := e.node(10)
	require.Equal(t, 0, imu.Handle())
	// the first pass created the node; its feedback is unconfigured until a
	// run publishes it.
	require.Equal(t, uint64(1), imu.Runs())

	e.push(&comm.InitCommand{TaskID: 9, Key: "CMF", InputIDs: []byte{9, 10}})
	e.push(&comm.ConfigureCommand{TaskID: 9, Values: []float32{0.6}})
	e.spin()

	filter := e.node(9)
	require.Equal(t, 1, filter.Handle())
	require.True(t, filter.IsConfigured())
	require.False(t, filter.IsLinked())
	require.Equal(t, 0, filter.LinkCount())
	require.Equal(t, uint64(0), filter.Runs())
	require.True(t, e.feedback(9).Configured)

	require.Equal(t, uint64(2), imu.Runs())
	fb := e.feedback(10)
	require.True(t, fb.Configured)
	require.Equal(t, 2, fb.UpdateCount)
	require.Len(t, fb.Output, 6)
	require.InDelta(t, 9.8, fb.Output[2], 0.2)
	require.NoError(t, task.FaultOf(imu.Task()))

	for i := 0; i < 10; i++ {
		e.spin()
	}
	require.Equal(t, uint64(0), filter.Runs())
}

func TestSchedulerInitCreatesUnconfiguredFeedback(t *testing.T) {
	e := newSchedulerEnv(t)
	e.push(&comm.InitCommand{TaskID: 10, Key: "LSM"})
	e.shared.Setup.Drain(e.sched.apply)
	require.Equal(t, 1, e.shared.Feedback.Len())
	fb := e.feedback(10)
	require.False(t, fb.Configured)
	require.Equal(t, 0, fb.UpdateCount)
}

func TestSchedulerOverrideLengthMismatch(t *testing.T) {
	e := newSchedulerEnv(t)
	e.push(&comm.InitCommand{TaskID: 10, Key: "LSM"}).spin()

	e.push(&comm.OverrideCommand{TaskID: 10, Latch: comm.LatchOutputHeld, Values: make([]float32, 9)}).spin()
	require.Equal(t, comm.LatchNormal, e.node(10).Latch())
	require.Equal(t, uint64(1), e.sched.Stats().OverrideErrors)

	pinned := []float32{1, 2, 3, 4, 5, 6}
	e.push(&comm.OverrideCommand{TaskID: 10, Latch: comm.LatchOutputHeld, Values: pinned}).spin()
	require.Equal(t, comm.LatchOutputHeld, e.node(10).Latch())
	fb := e.feedback(10)
	require.Equal(t, pinned, fb.Output)
	require.Equal(t, comm.LatchOutputHeld, fb.Latch)

	// unlatching is honoured whatever the payload.
	e.push(&comm.OverrideCommand{TaskID: 10, Latch: comm.LatchNormal, Values: make([]float32, 3)}).spin()
	require.Equal(t, comm.LatchNormal, e.node(10).Latch())

	e.push(&comm.OverrideCommand{TaskID: 77, Latch: comm.LatchNormal}).spin()
	require.Equal(t, uint64(1), e.sched.Stats().UnknownTasks)
}

func TestSchedulerOverrideNeedsConfiguredNode(t *testing.T) {
	e := newSchedulerEnv(t)
	e.push(&comm.InitCommand{TaskID: 3, Key: "P01"}).spin()
	require.False(t, e.node(3).IsConfigured())

	e.push(&comm.OverrideCommand{TaskID: 3, Latch: comm.LatchOutputHeld, Values: []float32{1, 2}}).spin()
	require.Equal(t, comm.LatchNormal, e.node(3).Latch())
	require.Equal(t, uint64(1), e.sched.Stats().OverrideErrors)

	e.push(&comm.OverrideCommand{TaskID: 3, Latch: comm.LatchNormal}).spin()
	require.Equal(t, uint64(1), e.sched.Stats().OverrideErrors)

	e.push(
		&comm.ConfigureCommand{TaskID: 3, Values: []float32{1}},
		&comm.OverrideCommand{TaskID: 3, Latch: comm.LatchOutputHeld, Values: []float32{1, 2}},
	).spin()
	require.Equal(t, comm.LatchOutputHeld, e.node(3).Latch())
	require.Equal(t, uint64(1), e.sched.Stats().OverrideErrors)
}

func TestSchedulerConfigureRejections(t *testing.T) {
	e := newSchedulerEnv(t)
	e.push(
		&comm.ConfigureCommand{TaskID: 3, Values: []float32{1}},
		&comm.InitCommand{TaskID: 3, Key: "P01"},
		&comm.ConfigureCommand{TaskID: 3, Offset: 13, Values: []float32{1}},
		&comm.ConfigureCommand{TaskID: 3, Values: []float32{7}},
		&comm.ConfigureCommand{TaskID: 3, Values: []float32{8}},
	).spin()

	stats := e.sched.Stats()
	require.Equal(t, uint64(1), stats.UnknownTasks)
	require.Equal(t, uint64(2), stats.ConfigErrors)
	require.Equal(t, uint64(5), stats.Commands)
	require.Equal(t, []float32{7}, e.probes["P01"].params)
}

func TestSchedulerLinksAcrossPasses(t *testing.T) {
	e := newSchedulerEnv(t)
	e.push(&comm.InitCommand{TaskID: 2, Key: "P10", InputIDs: []byte{1}}).spin()
	require.False(t, e.node(2).IsLinked())

	e.push(&comm.InitCommand{TaskID: 1, Key: "P00"}).spin()
	sink := e.node(2)
	require.True(t, sink.IsLinked())
	// the source runs after the sink in registry order.
	require.Equal(t, uint64(1), sink.Runs())
	e.spin()
	require.Equal(t, []float32{1}, e.probes["P10"].inputs[1])
	require.Equal(t, 1, sink.LinkCount())
}

func TestSchedulerReinitReplacesInPlace(t *testing.T) {
	e := newSchedulerEnv(t)
	e.push(
		&comm.InitCommand{TaskID: 5, Key: "P01"},
		&comm.ConfigureCommand{TaskID: 5, Values: []float32{1}},
		&comm.OverrideCommand{TaskID: 5, Latch: comm.LatchOutputHeld, Values: []float32{1, 2}},
	).spin()
	require.True(t, e.feedback(5).Configured)
	require.Equal(t, comm.LatchOutputHeld, e.node(5).Latch())

	e.push(&comm.InitCommand{TaskID: 5, Key: "VAL", RateMs: 20}).spin()
	n := e.node(5)
	require.Equal(t, 0, n.Handle())
	require.Equal(t, 1, e.sched.Len())
	require.Equal(t, "VAL", n.Key())
	require.Equal(t, 20*time.Millisecond, n.Rate())
	require.False(t, n.IsConfigured())
	require.Equal(t, comm.LatchNormal, n.Latch())
	require.False(t, e.feedback(5).Configured)
}

func TestSchedulerUnknownKeyIsNoop(t *testing.T) {
	e := newSchedulerEnv(t)
	e.push(&comm.InitCommand{TaskID: 1, Key: "???"}).spin()
	n := e.node(1)
	_, ok := n.Task().(*task.Noop)
	require.True(t, ok)
	require.True(t, n.IsConfigured())
	require.Equal(t, uint64(1), n.Runs())
}

func TestSchedulerReset(t *testing.T) {
	e := newSchedulerEnv(t)
	session := e.sched.Session()
	e.push(&comm.InitCommand{TaskID: 1, Key: "P00"}, &comm.InitCommand{TaskID: 2, Key: "P00"}).spin()
	require.Equal(t, 2, e.shared.Feedback.Len())

	e.push(&comm.ResetCommand{}).spin()
	require.Equal(t, 0, e.sched.Len())
	require.Equal(t, 0, e.shared.Feedback.Len())
	require.NotEqual(t, session, e.sched.Session())
	require.Equal(t, uint64(1), e.sched.Stats().Resets)

	e.push(&comm.InitCommand{TaskID: 2, Key: "P00"}).spin()
	require.Equal(t, 0, e.node(2).Handle())
}

func TestSchedulerDrainIsBounded(t *testing.T) {
	e := newSchedulerEnv(t)
	e.push(&comm.InitCommand{TaskID: 1, Key: "P00"})
	e.shared.Setup.Drain(func(cmd comm.Command) {
		e.sched.apply(cmd)
		e.push(&comm.InitCommand{TaskID: 2, Key: "P00"})
	})
	require.Equal(t, 1, e.sched.Len())
	require.Equal(t, 1, e.shared.Setup.Len())
}

func TestSchedulerStatus(t *testing.T) {
	e := newSchedulerEnv(t)
	configured := e.board.Configured.(*hw.LogOutput)
	running := e.board.Running.(*hw.LogOutput)
	var statuses []Status
	e.sched.OnStatus = func(st Status, nodes []NodeInfo) {
		statuses = append(statuses, st)
		require.Len(t, nodes, st.Nodes)
	}

	// heartbeat with no nodes.
	e.sched.Spin(0)
	require.True(t, configured.On())
	e.sched.Spin(100 * time.Millisecond)
	require.Len(t, statuses, 1)
	e.sched.Spin(250 * time.Millisecond)
	require.False(t, configured.On())
	e.sched.Spin(500 * time.Millisecond)
	require.True(t, configured.On())
	require.False(t, running.On())

	e.push(&comm.InitCommand{TaskID: 1, Key: "P00"}, &comm.InitCommand{TaskID: 2, Key: "P01"})
	e.sched.Spin(750 * time.Millisecond)
	require.False(t, configured.On())
	require.True(t, running.On())

	e.push(&comm.ConfigureCommand{TaskID: 2, Values: []float32{1}})
	e.sched.Spin(1000 * time.Millisecond)
	require.True(t, configured.On())
	last := e.sched.Status()
	require.True(t, last.Configured)
	require.Equal(t, 2, last.Nodes)
	require.Equal(t, e.sched.Session(), last.Session)
	require.NoError(t, last.Fault)
}

func TestSchedulerReportsFault(t *testing.T) {
	e := newSchedulerEnv(t)
	e.board.Bus.(*hw.SimBus).Detach(hw.SimIMUAddress)
	e.push(&comm.InitCommand{TaskID: 4, Key: "LSM"})
	e.sched.Spin(0)
	st := e.sched.Status()
	require.Error(t, st.Fault)
	var nodeErr *NodeError
	require.True(t, errors.As(st.Fault, &nodeErr))
	require.Equal(t, byte(4), nodeErr.TaskID)
}

func TestSchedulerBudget(t *testing.T) {
	e := newSchedulerEnv(t)
	e.sched.Budget = time.Millisecond
	e.sched.Clock = fixedClock(10 * time.Millisecond)
	e.sched.Spin(0)
	e.sched.Spin(9500 * time.Microsecond)
	stats := e.sched.Stats()
	require.Equal(t, uint64(2), stats.Passes)
	require.Equal(t, uint64(1), stats.Overruns)
}

type fixedClock time.Duration

func (c fixedClock) Elapsed() time.Duration { return time.Duration(c) }
