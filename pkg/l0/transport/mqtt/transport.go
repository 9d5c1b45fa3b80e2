package mqtt

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/l0/comm"
)

// Role selects the topic direction of a Transport.
type Role int

// Roles.
const (
	// RoleDevice subscribes <id>/in and publishes <id>/out.
	RoleDevice Role = iota
	// RoleHost subscribes <id>/out and publishes <id>/in.
	RoleHost
)

// Topic suffixes under the device id.
const (
	TopicIn     = "/in"
	TopicOut    = "/out"
	TopicOnline = "/online"
)

var (
	online  = []byte{'1'}
	offline = []byte{'0'}
)

// Transport implements comm.Transport with one report per message.
type Transport struct {
	Queue    *Queue
	Role     Role
	DeviceID string
	SubTopic string
	PubTopic string

	inbox     *comm.Inbox
	connected int32
	peer      int32
}

// New creates a Transport for deviceID on the broker.
// The device announces itself on <id>/online, retained, with a last will
// clearing it; a host transport is available only while it is announced.
func New(brokerURL, deviceID string, role Role) (*Transport, error) {
	opts, prefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	if role == RoleDevice {
		opts.SetBinaryWill(prefix+deviceID+TopicOnline, offline, 1, true)
		if opts.ClientID == "" {
			opts.SetClientID("tasknet:" + deviceID)
		}
	}
	return NewWithQueue(NewQueue(opts, prefix), deviceID, role), nil
}

// NewWithQueue creates a Transport on an existing queue.
func NewWithQueue(q *Queue, deviceID string, role Role) *Transport {
	t := &Transport{Queue: q, Role: role, DeviceID: deviceID, inbox: comm.NewInbox(0)}
	if role == RoleHost {
		t.SubTopic, t.PubTopic = deviceID+TopicOut, deviceID+TopicIn
	} else {
		t.SubTopic, t.PubTopic = deviceID+TopicIn, deviceID+TopicOut
	}
	q.OnConnect = t.onConnect
	q.OnDisconnect = func(*Queue) { atomic.StoreInt32(&t.connected, 0) }
	return t
}

// Available implements comm.Transport.
func (t *Transport) Available() bool {
	if atomic.LoadInt32(&t.connected) == 0 {
		return false
	}
	return t.Role == RoleDevice || atomic.LoadInt32(&t.peer) != 0
}

// Recv implements comm.Transport.
func (t *Transport) Recv(p []byte) (int, error) {
	return t.inbox.Recv(p), nil
}

// Send implements comm.Transport. It does not wait for the publish.
func (t *Transport) Send(p []byte) (int, error) {
	if atomic.LoadInt32(&t.connected) == 0 {
		return 0, comm.ErrUnavailable
	}
	t.Queue.Pub(t.PubTopic, append([]byte(nil), p...))
	return len(p), nil
}

// Dropped returns the number of reports dropped on a full inbox.
func (t *Transport) Dropped() uint64 {
	return t.inbox.Dropped()
}

// Run implements framework.Runnable.
func (t *Transport) Run(ctx context.Context) error {
	sub := t.Queue.Sub(t.SubTopic, t.handleReport)
	defer sub.Close()
	if t.Role == RoleHost {
		peer := t.Queue.Sub(t.DeviceID+TopicOnline, t.handleOnline)
		defer peer.Close()
	}
	if token := t.Queue.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	<-ctx.Done()
	if t.Role == RoleDevice {
		t.Queue.PubWith(t.DeviceID+TopicOnline, offline, 1, true).Wait()
	}
	t.Queue.Close()
	return ctx.Err()
}

func (t *Transport) onConnect(q *Queue) {
	atomic.StoreInt32(&t.connected, 1)
	if t.Role == RoleDevice {
		q.PubWith(t.DeviceID+TopicOnline, online, 1, true)
	}
}

func (t *Transport) handleReport(_ string, payload []byte) {
	if len(payload) != comm.ReportSize {
		glog.Warningf("dropped %d bytes on %s", len(payload), t.SubTopic)
		return
	}
	if !t.inbox.Deliver(payload) {
		glog.V(2).Info("inbox full, report dropped")
	}
}

func (t *Transport) handleOnline(_ string, payload []byte) {
	var v int32
	if len(payload) > 0 && payload[0] == online[0] {
		v = 1
	}
	if atomic.SwapInt32(&t.peer, v) != v {
		glog.Infof("device %s online: %v", t.DeviceID, v != 0)
	}
}
