package telemetry

import "github.com/golang/protobuf/proto"

// GraphStatus is the periodic snapshot of a device graph.
type GraphStatus struct {
	DeviceID   string          `protobuf:"bytes,1,opt,name=device_id,proto3" json:"device_id,omitempty"`
	Session    string          `protobuf:"bytes,2,opt,name=session,proto3" json:"session,omitempty"`
	TimeMs     int64           `protobuf:"varint,3,opt,name=time_ms,proto3" json:"time_ms,omitempty"`
	Configured bool            `protobuf:"varint,4,opt,name=configured,proto3" json:"configured,omitempty"`
	Running    bool            `protobuf:"varint,5,opt,name=running,proto3" json:"running,omitempty"`
	Fault      string          `protobuf:"bytes,6,opt,name=fault,proto3" json:"fault,omitempty"`
	Nodes      []*NodeStatus   `protobuf:"bytes,7,rep,name=nodes,proto3" json:"nodes,omitempty"`
	Scheduler  *SchedulerStats `protobuf:"bytes,8,opt,name=scheduler,proto3" json:"scheduler,omitempty"`
	Pipeline   *PipelineStats  `protobuf:"bytes,9,opt,name=pipeline,proto3" json:"pipeline,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *GraphStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *GraphStatus) Reset() { *m = GraphStatus{} }

// String implements proto.Message.
func (m *GraphStatus) String() string { return proto.CompactTextString(m) }

// NodeStatus describes one node.
type NodeStatus struct {
	TaskID     uint32    `protobuf:"varint,1,opt,name=task_id,proto3" json:"task_id,omitempty"`
	Handle     uint32    `protobuf:"varint,2,opt,name=handle,proto3" json:"handle,omitempty"`
	Key        string    `protobuf:"bytes,3,opt,name=key,proto3" json:"key,omitempty"`
	Configured bool      `protobuf:"varint,4,opt,name=configured,proto3" json:"configured,omitempty"`
	Linked     bool      `protobuf:"varint,5,opt,name=linked,proto3" json:"linked,omitempty"`
	Latch      uint32    `protobuf:"varint,6,opt,name=latch,proto3" json:"latch,omitempty"`
	RateMs     uint32    `protobuf:"varint,7,opt,name=rate_ms,proto3" json:"rate_ms,omitempty"`
	InputIDs   []byte    `protobuf:"bytes,8,opt,name=input_ids,proto3" json:"input_ids,omitempty"`
	Runs       uint64    `protobuf:"varint,9,opt,name=runs,proto3" json:"runs,omitempty"`
	LastRunMs  int64     `protobuf:"varint,10,opt,name=last_run_ms,proto3" json:"last_run_ms,omitempty"`
	Output     []float32 `protobuf:"fixed32,11,rep,packed,name=output,proto3" json:"output,omitempty"`
	Fault      string    `protobuf:"bytes,12,opt,name=fault,proto3" json:"fault,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *NodeStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *NodeStatus) Reset() { *m = NodeStatus{} }

// String implements proto.Message.
func (m *NodeStatus) String() string { return proto.CompactTextString(m) }

// SchedulerStats mirrors graph.Stats.
type SchedulerStats struct {
	Passes         uint64 `protobuf:"varint,1,opt,name=passes,proto3" json:"passes,omitempty"`
	Overruns       uint64 `protobuf:"varint,2,opt,name=overruns,proto3" json:"overruns,omitempty"`
	Commands       uint64 `protobuf:"varint,3,opt,name=commands,proto3" json:"commands,omitempty"`
	Runs           uint64 `protobuf:"varint,4,opt,name=runs,proto3" json:"runs,omitempty"`
	UnknownTasks   uint64 `protobuf:"varint,5,opt,name=unknown_tasks,proto3" json:"unknown_tasks,omitempty"`
	ConfigErrors   uint64 `protobuf:"varint,6,opt,name=config_errors,proto3" json:"config_errors,omitempty"`
	OverrideErrors uint64 `protobuf:"varint,7,opt,name=override_errors,proto3" json:"override_errors,omitempty"`
	Resets         uint64 `protobuf:"varint,8,opt,name=resets,proto3" json:"resets,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SchedulerStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SchedulerStats) Reset() { *m = SchedulerStats{} }

// String implements proto.Message.
func (m *SchedulerStats) String() string { return proto.CompactTextString(m) }

// PipelineStats mirrors comm.PipelineStats.
type PipelineStats struct {
	Writes         uint64  `protobuf:"varint,1,opt,name=writes,proto3" json:"writes,omitempty"`
	Reads          uint64  `protobuf:"varint,2,opt,name=reads,proto3" json:"reads,omitempty"`
	SendErrors     uint64  `protobuf:"varint,3,opt,name=send_errors,proto3" json:"send_errors,omitempty"`
	ProtocolErrors uint64  `protobuf:"varint,4,opt,name=protocol_errors,proto3" json:"protocol_errors,omitempty"`
	Overruns       uint64  `protobuf:"varint,5,opt,name=overruns,proto3" json:"overruns,omitempty"`
	WatchdogResets uint64  `protobuf:"varint,6,opt,name=watchdog_resets,proto3" json:"watchdog_resets,omitempty"`
	HostTime       float32 `protobuf:"fixed32,7,opt,name=host_time,proto3" json:"host_time,omitempty"`
	ElapsedMs      int64   `protobuf:"varint,8,opt,name=elapsed_ms,proto3" json:"elapsed_ms,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *PipelineStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PipelineStats) Reset() { *m = PipelineStats{} }

// String implements proto.Message.
func (m *PipelineStats) String() string { return proto.CompactTextString(m) }
