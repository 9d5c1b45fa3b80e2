package telemetry

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/l0/transport/mqtt"
)

// MQTTSink publishes snapshots through an MQTT queue.
type MQTTSink struct {
	Queue *mqtt.Queue
}

// NewMQTTSink creates a sink on the broker.
func NewMQTTSink(brokerURL string) (*MQTTSink, error) {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &MQTTSink{Queue: q}, nil
}

// Publish implements Sink. It does not wait for delivery.
func (s *MQTTSink) Publish(topic string, payload []byte) error {
	if !s.Queue.Client.IsConnected() {
		return mqtt.ErrNotConnected
	}
	s.Queue.Pub(topic, payload)
	return nil
}

// Run implements framework.Runnable. It keeps the queue connected.
func (s *MQTTSink) Run(ctx context.Context) error {
	if token := s.Queue.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	<-ctx.Done()
	s.Queue.Close()
	return ctx.Err()
}

// Handler receives snapshots from Watch.
type Handler func(deviceID string, status *GraphStatus)

// Watch subscribes to the snapshots of deviceID, or of every device for "+".
func Watch(q *mqtt.Queue, deviceID string, handler Handler) *mqtt.Subscription {
	return q.Sub(deviceID+TopicStatus, func(topic string, payload []byte) {
		id, ok := DeviceOf(topic)
		if !ok {
			return
		}
		msg, err := Decode(payload)
		if err != nil {
			glog.Warningf("bad snapshot on %s: %v", topic, err)
			return
		}
		handler(id, msg)
	})
}
