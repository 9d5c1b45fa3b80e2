package comm

import "sync"

// FeedbackRecord is the outbound state of one node, keyed by its handle.
type FeedbackRecord struct {
	TaskID      byte
	UpdateCount int
	Configured  bool
	Latch       LatchMode
	// Timestamp is the node's last run in seconds.
	Timestamp float32
	Output    []float32
}

func (r *FeedbackRecord) clone() *FeedbackRecord {
	c := *r
	c.Output = append([]float32(nil), r.Output...)
	return &c
}

// FeedbackTable holds one record per node handle. The scheduler publishes
// into it, the pipeline takes from it; every method locks for one record.
type FeedbackTable struct {
	lock    sync.Mutex
	records []*FeedbackRecord
	last    int
}

// NewFeedbackTable creates an empty table.
func NewFeedbackTable() *FeedbackTable {
	return &FeedbackTable{last: -1}
}

// Append adds a record for a new node and returns its handle.
func (t *FeedbackTable) Append(taskID byte) int {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.records = append(t.records, &FeedbackRecord{TaskID: taskID})
	return len(t.records) - 1
}

// Len returns the number of records.
func (t *FeedbackTable) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.records)
}

// SetConfigured updates the configured flag of a record.
func (t *FeedbackTable) SetConfigured(handle int, configured bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if r := t.record(handle); r != nil {
		r.Configured = configured
	}
}

// Publish records a run of the node at handle and counts an update.
func (t *FeedbackTable) Publish(handle int, output []float32, latch LatchMode, configured bool, timestamp float32) {
	t.lock.Lock()
	defer t.lock.Unlock()
	r := t.record(handle)
	if r == nil {
		return
	}
	r.Output = append(r.Output[:0], output...)
	r.Latch = latch
	r.Configured = configured
	r.Timestamp = timestamp
	r.UpdateCount++
}

// Get returns a copy of the record at handle.
func (t *FeedbackTable) Get(handle int) (*FeedbackRecord, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if r := t.record(handle); r != nil {
		return r.clone(), true
	}
	return nil, false
}

// Next takes the next updated record after the last one taken, wrapping
// around. The record's update count is zeroed and a copy is returned.
// Records without output are never taken.
func (t *FeedbackTable) Next() (*FeedbackRecord, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	n := len(t.records)
	for i := 1; i <= n; i++ {
		idx := (t.last + i) % n
		if idx < 0 {
			idx += n
		}
		if r := t.records[idx]; r.UpdateCount > 0 && len(r.Output) > 0 {
			r.UpdateCount = 0
			t.last = idx
			return r.clone(), true
		}
	}
	return nil, false
}

// Reset drops all records.
func (t *FeedbackTable) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.records, t.last = nil, -1
}

func (t *FeedbackTable) record(handle int) *FeedbackRecord {
	if handle < 0 || handle >= len(t.records) {
		return nil
	}
	return t.records[handle]
}

// Shared is the state the pipeline and the scheduler exchange.
type Shared struct {
	Setup    *SetupQueue
	Feedback *FeedbackTable
}

// NewShared creates empty shared state.
func NewShared() *Shared {
	return &Shared{Setup: &SetupQueue{}, Feedback: NewFeedbackTable()}
}
