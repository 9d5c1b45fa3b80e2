// Package websocket carries one report per binary websocket message.
// The device serves, the host dials.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/tasknet/pkg/framework"
	"github.com/robotalks/tasknet/pkg/l0/comm"
)

// Defaults.
const (
	DefaultPath          = "/reports"
	DefaultWriteTimeout  = 20 * time.Millisecond
	DefaultRetryInterval = time.Second
)

// Transport implements comm.Transport on the current connection.
type Transport struct {
	WriteTimeout time.Duration

	inbox *comm.Inbox
	lock  sync.Mutex
	conn  *websocket.Conn
}

func newTransport() Transport {
	return Transport{WriteTimeout: DefaultWriteTimeout, inbox: comm.NewInbox(0)}
}

// Available implements comm.Transport.
func (t *Transport) Available() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.conn != nil
}

// Recv implements comm.Transport.
func (t *Transport) Recv(p []byte) (int, error) {
	return t.inbox.Recv(p), nil
}

// Send implements comm.Transport.
func (t *Transport) Send(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.conn == nil {
		return 0, comm.ErrUnavailable
	}
	if t.WriteTimeout > 0 {
		t.conn.SetWriteDeadline(time.Now().Add(t.WriteTimeout))
	}
	if err := websocket.Message.Send(t.conn, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// serve makes conn current and reads reports until it fails. A newer
// connection replaces the current one.
func (t *Transport) serve(conn *websocket.Conn) error {
	t.lock.Lock()
	prev := t.conn
	t.conn = conn
	t.lock.Unlock()
	if prev != nil {
		glog.Info("previous connection replaced")
		prev.Close()
	}
	defer func() {
		t.lock.Lock()
		if t.conn == conn {
			t.conn = nil
		}
		t.lock.Unlock()
		conn.Close()
	}()
	for {
		var report []byte
		if err := websocket.Message.Receive(conn, &report); err != nil {
			return err
		}
		if len(report) != comm.ReportSize {
			glog.Warningf("dropped message of %d bytes", len(report))
			continue
		}
		if !t.inbox.Deliver(report) {
			glog.V(2).Info("inbox full, report dropped")
		}
	}
}

// Server is the device side: it accepts host connections.
type Server struct {
	Transport
	Addr string
	Path string
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{Transport: newTransport(), Addr: addr, Path: DefaultPath}
}

// Handler returns the websocket handler.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		glog.Infof("host connected from %s", conn.Request().RemoteAddr)
		err := s.serve(conn)
		glog.Infof("host disconnected: %v", err)
	})
}

// Run implements framework.Runnable.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.Path, s.Handler())
	server := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("serving reports on ws://%s%s", s.Addr, s.Path)
	return framework.RunWithContextCloser(ctx, server, server.ListenAndServe)
}

// Client is the host side: it dials the device and redials on failure.
type Client struct {
	Transport
	URL           string
	Origin        string
	RetryInterval time.Duration
}

// NewClient creates a Client for ws://host:port/path.
func NewClient(url string) *Client {
	return &Client{
		Transport:     newTransport(),
		URL:           url,
		Origin:        "http://localhost/",
		RetryInterval: DefaultRetryInterval,
	}
}

// Run implements framework.Runnable.
func (c *Client) Run(ctx context.Context) error {
	for {
		conn, err := websocket.Dial(c.URL, "", c.Origin)
		if err == nil {
			glog.Infof("connected to %s", c.URL)
			err = framework.RunWithContextCloser(ctx, conn, func() error {
				return c.serve(conn)
			})
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		glog.Warningf("%s: %v", c.URL, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryInterval):
		}
	}
}
