// Package serial carries reports over a serial port.
package serial

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/tasknet/pkg/l0/comm"
	"github.com/robotalks/tasknet/pkg/l0/link"
)

// Defaults of Open.
const (
	DefaultBaudRate = 115200
	ReadTimeout     = 20 * time.Millisecond
)

// Transport implements comm.Transport on top of a link.
type Transport struct {
	Port io.ReadWriteCloser
	Link *link.Link

	inbox *comm.Inbox
}

// Open opens the named serial port.
func Open(name string, baudRate int) (*Transport, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, err
	}
	// the link expects reads to return periodically to expire its timer.
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		port.Close()
		return nil, err
	}
	glog.Infof("opened %s at %d baud", name, baudRate)
	return New(port), nil
}

// New creates a transport on an opened port.
func New(port io.ReadWriteCloser) *Transport {
	t := &Transport{Port: port, inbox: comm.NewInbox(0)}
	t.Link = link.New(port, t)
	t.Link.OnState = func(s link.State) {
		glog.V(1).Infof("serial link %s", s)
	}
	return t
}

// Ports lists the serial ports of the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

// Available implements comm.Transport.
func (t *Transport) Available() bool {
	return t.Link.State().IsReady()
}

// Recv implements comm.Transport.
func (t *Transport) Recv(p []byte) (int, error) {
	return t.inbox.Recv(p), nil
}

// Send implements comm.Transport.
func (t *Transport) Send(p []byte) (int, error) {
	if err := t.Link.Send(link.KindReport, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Dropped returns the number of reports dropped on a full inbox.
func (t *Transport) Dropped() uint64 {
	return t.inbox.Dropped()
}

// HandleFrame implements link.FrameHandler.
func (t *Transport) HandleFrame(f *link.Frame) {
	if f.Kind != link.KindReport {
		glog.V(2).Infof("ignored frame kind %#x", f.Kind)
		return
	}
	if !t.inbox.Deliver(f.Payload) {
		glog.V(2).Info("inbox full, report dropped")
	}
}

// Run implements framework.Runnable. The port is closed when it returns.
func (t *Transport) Run(ctx context.Context) error {
	defer t.Port.Close()
	return t.Link.Run(ctx)
}
