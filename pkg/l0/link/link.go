package link

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultSyncTimeout is how long a handshake or partial frame may stall.
const DefaultSyncTimeout = 100 * time.Millisecond

// FrameHandler receives complete frames.
type FrameHandler interface {
	HandleFrame(*Frame)
}

// FrameHandlerFunc is the func form of FrameHandler.
type FrameHandlerFunc func(*Frame)

// HandleFrame implements FrameHandler.
func (f FrameHandlerFunc) HandleFrame(frame *Frame) {
	f(frame)
}

// Link exchanges frames over a byte stream.
type Link struct {
	Port        io.ReadWriter
	Handler     FrameHandler
	SyncTimeout time.Duration
	// OnState is called from the Run goroutine when the state changes.
	OnState func(State)

	seq    Seq
	state  State
	lock   sync.Mutex
	parser Parser
}

// New creates a Link on port.
func New(port io.ReadWriter, handler FrameHandler) *Link {
	return &Link{
		Port:        port,
		Handler:     handler,
		SyncTimeout: DefaultSyncTimeout,
		seq:         NewSeq(),
	}
}

// State returns the current state.
func (l *Link) State() State {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.state
}

// Send writes one frame. It fails with ErrNotReady until synchronised.
func (l *Link) Send(kind byte, payload []byte) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.state.IsReady() {
		return ErrNotReady
	}
	f := &Frame{Seq: l.seq, Kind: kind, Payload: payload}
	if _, err := f.WriteTo(l.Port); err != nil {
		return err
	}
	l.seq = l.seq.Next()
	return nil
}

// Run reads the port until ctx is done or the port fails.
// A Read returning no bytes without an error is treated as a read timeout.
func (l *Link) Run(ctx context.Context) error {
	if l.seq == 0 {
		l.seq = NewSeq()
	}
	timeout := l.SyncTimeout
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	apply := func(s Step) error {
		if err := l.apply(s); err != nil {
			return err
		}
		switch {
		case s.ArmTimer():
			stopTimer(timer)
			timer.Reset(timeout)
		case s.State.IsReady():
			stopTimer(timer)
		}
		return nil
	}
	if err := apply(l.parser.Reset()); err != nil {
		return err
	}

	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	byteCh, errCh := make(chan []byte), make(chan error, 1)
	go l.readLoop(readCtx, byteCh, errCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-timer.C:
			if err := apply(l.parser.Expire()); err != nil {
				return err
			}
		case chunk := <-byteCh:
			for _, b := range chunk {
				if err := apply(l.parser.Feed(b)); err != nil {
					return err
				}
			}
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan<- []byte, errCh chan<- error) {
	buf := make([]byte, 128)
	for {
		n, err := l.Port.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case byteCh <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) apply(s Step) (err error) {
	var changed bool
	l.lock.Lock()
	if l.state != s.State {
		l.state, changed = s.State, true
	}
	if s.Reply != 0 {
		_, err = l.Port.Write([]byte{s.Reply, byte(l.seq)})
	}
	l.lock.Unlock()
	if err != nil {
		return err
	}
	if changed {
		glog.V(3).Infof("link state %s", s.State)
		if l.OnState != nil {
			l.OnState(s.State)
		}
	}
	if s.Frame != nil && l.Handler != nil {
		l.Handler.HandleFrame(s.Frame)
	}
	return nil
}
