// Package telemetry publishes protobuf snapshots of the device graph.
package telemetry

import (
	"context"
	"strings"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/tasknet/pkg/graph"
	"github.com/robotalks/tasknet/pkg/l0/comm"
)

// TopicStatus is the topic suffix under the device id.
const TopicStatus = "/status"

// Sink delivers an encoded snapshot.
type Sink interface {
	Publish(topic string, payload []byte) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(topic string, payload []byte) error

// Publish implements Sink.
func (f SinkFunc) Publish(topic string, payload []byte) error {
	return f(topic, payload)
}

// Publisher snapshots the graph on every status and publishes from its own
// goroutine. Snapshots are dropped while the sink is behind.
type Publisher struct {
	DeviceID string
	Sink     Sink
	// Scheduler and Pipeline add their counters when set.
	Scheduler *graph.Scheduler
	Pipeline  *comm.Pipeline

	pending chan *GraphStatus
}

// NewPublisher creates a Publisher.
func NewPublisher(deviceID string, sink Sink) *Publisher {
	return &Publisher{DeviceID: deviceID, Sink: sink, pending: make(chan *GraphStatus, 4)}
}

// Topic returns the topic snapshots are published to.
func (p *Publisher) Topic() string {
	return p.DeviceID + TopicStatus
}

// HandleStatus implements graph.StatusHandler.
func (p *Publisher) HandleStatus(st graph.Status, nodes []graph.NodeInfo) {
	msg := p.Snapshot(st, nodes)
	select {
	case p.pending <- msg:
	default:
		glog.V(2).Info("telemetry snapshot dropped")
	}
}

// Snapshot converts a status into a message.
func (p *Publisher) Snapshot(st graph.Status, nodes []graph.NodeInfo) *GraphStatus {
	msg := &GraphStatus{
		DeviceID:   p.DeviceID,
		Session:    st.Session,
		TimeMs:     st.Time.Milliseconds(),
		Configured: st.Configured,
		Running:    st.Running,
		Fault:      errString(st.Fault),
		Nodes:      make([]*NodeStatus, 0, len(nodes)),
	}
	for _, n := range nodes {
		msg.Nodes = append(msg.Nodes, &NodeStatus{
			TaskID:     uint32(n.TaskID),
			Handle:     uint32(n.Handle),
			Key:        n.Key,
			Configured: n.Configured,
			Linked:     n.Linked,
			Latch:      uint32(n.Latch),
			RateMs:     uint32(n.Rate.Milliseconds()),
			InputIDs:   n.InputIDs,
			Runs:       n.Runs,
			LastRunMs:  n.LastRun.Milliseconds(),
			Output:     n.Output,
			Fault:      errString(n.Fault),
		})
	}
	if p.Scheduler != nil {
		s := p.Scheduler.Stats()
		msg.Scheduler = &SchedulerStats{
			Passes:         s.Passes,
			Overruns:       s.Overruns,
			Commands:       s.Commands,
			Runs:           s.Runs,
			UnknownTasks:   s.UnknownTasks,
			ConfigErrors:   s.ConfigErrors,
			OverrideErrors: s.OverrideErrors,
			Resets:         s.Resets,
		}
	}
	if p.Pipeline != nil {
		s := p.Pipeline.Stats()
		msg.Pipeline = &PipelineStats{
			Writes:         s.Writes,
			Reads:          s.Reads,
			SendErrors:     s.SendErrors,
			ProtocolErrors: s.ProtocolErrors,
			Overruns:       s.Overruns,
			WatchdogResets: s.WatchdogResets,
			HostTime:       s.HostTime,
			ElapsedMs:      s.Elapsed.Milliseconds(),
		}
	}
	return msg
}

// Run implements framework.Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	topic := p.Topic()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-p.pending:
			payload, err := proto.Marshal(msg)
			if err != nil {
				glog.Errorf("encode telemetry: %v", err)
				continue
			}
			if err := p.Sink.Publish(topic, payload); err != nil {
				glog.V(1).Infof("publish telemetry: %v", err)
			}
		}
	}
}

// Decode parses a published snapshot.
func Decode(payload []byte) (*GraphStatus, error) {
	msg := &GraphStatus{}
	if err := proto.Unmarshal(payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DeviceOf extracts the device id from a status topic without prefix.
func DeviceOf(topic string) (string, bool) {
	if !strings.HasSuffix(topic, TopicStatus) {
		return "", false
	}
	id := strings.TrimSuffix(topic, TopicStatus)
	return id, id != "" && !strings.Contains(id, "/")
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
