package sh

import (
	"sort"
	"sync"

	"github.com/robotalks/tasknet/pkg/l0/comm"
)

// TaskState is the latest feedback of one task.
type TaskState struct {
	TaskID    byte           `json:"task_id"`
	Latch     comm.LatchMode `json:"latch"`
	Output    []float32      `json:"output"`
	Timestamp float32        `json:"timestamp"`
	Reports   uint64         `json:"reports"`
}

// Summary is what the tracker knows about the device.
type Summary struct {
	Reports  uint64      `json:"reports"`
	Statuses uint64      `json:"statuses"`
	Writes   float32     `json:"writes"`
	Reads    float32     `json:"reads"`
	Device   float32     `json:"device_time"`
	Host     float32     `json:"host_time"`
	Elapsed  float32     `json:"elapsed"`
	Tasks    []TaskState `json:"tasks"`
}

// Tracker folds reports into the latest known device state.
type Tracker struct {
	lock    sync.Mutex
	summary Summary
	tasks   map[byte]*TaskState
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{tasks: make(map[byte]*TaskState)}
}

// Add records a report.
func (t *Tracker) Add(r comm.Report) {
	t.lock.Lock()
	defer t.lock.Unlock()
	times := r.ReportTimes()
	t.summary.Reports++
	t.summary.Device, t.summary.Host, t.summary.Elapsed = times.Device, times.Host, times.Elapsed
	switch rep := r.(type) {
	case *comm.StatusReport:
		t.summary.Statuses++
		t.summary.Writes, t.summary.Reads = rep.Writes, rep.Reads
	case *comm.FeedbackReport:
		st := t.tasks[rep.TaskID]
		if st == nil {
			st = &TaskState{TaskID: rep.TaskID}
			t.tasks[rep.TaskID] = st
		}
		st.Latch, st.Timestamp = rep.Latch, rep.Timestamp
		st.Output = append(st.Output[:0], rep.Output...)
		st.Reports++
	}
}

// Reset forgets the tasks, e.g. after a kill.
func (t *Tracker) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.tasks = make(map[byte]*TaskState)
}

// Summary returns a copy of the state, tasks ordered by id.
func (t *Tracker) Summary() Summary {
	t.lock.Lock()
	defer t.lock.Unlock()
	s := t.summary
	s.Tasks = make([]TaskState, 0, len(t.tasks))
	for _, st := range t.tasks {
		cp := *st
		cp.Output = append([]float32(nil), st.Output...)
		s.Tasks = append(s.Tasks, cp)
	}
	sort.Slice(s.Tasks, func(i, j int) bool { return s.Tasks[i].TaskID < s.Tasks[j].TaskID })
	return s
}
