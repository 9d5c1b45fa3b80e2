// Package sh is the interactive host shell driving a device graph.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/env"
	"github.com/robotalks/tasknet/pkg/framework"
	"github.com/robotalks/tasknet/pkg/l0/comm"
)

// DefaultWatch is how long watch prints reports without an argument.
const DefaultWatch = 5 * time.Second

// ConnectTimeout is how long a command waits for the transport.
const ConnectTimeout = 3 * time.Second

// Shell provides an ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is a running host connection.
type Conn struct {
	URL     string
	Client  *comm.Client
	Tracker *Tracker
	Runner  *framework.Runner

	lock    sync.Mutex
	watchCh chan comm.Report
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
		&PortsCmd,
		&InitCmd,
		&ConfigCmd,
		&LatchCmd,
		&UnlatchCmd,
		&KillCmd,
		&WatchCmd,
		&StatsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps a command requiring a connection.
func MustBeConnected(fn func(c *ishell.Context, conn *Conn)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		conn := ShellFrom(c).Conn
		if conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c, conn)
	}
}

// Connect opens the host transport at url, replacing the current one.
func (s *Shell) Connect(url string) error {
	conf := *s.Config
	conf.TransportURL = url
	transport, err := conf.OpenTransport(env.RoleHost)
	if err != nil {
		return err
	}
	conn := &Conn{
		URL:     url,
		Client:  comm.NewClient(transport),
		Tracker: NewTracker(),
	}
	conn.Runner = framework.NewRunner().Go(
		framework.NamedRun("transport", transport),
		framework.NamedRun("client", framework.RunnableFunc(conn.Client.Run)),
		framework.NamedRun("tracker", framework.RunnableFunc(conn.track)),
	)
	s.Disconnect()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

// Disconnect closes the current connection.
func (s *Shell) Disconnect() {
	if s.Conn == nil {
		return
	}
	s.Conn.Runner.Stop()
	if err := s.Conn.Runner.Wait(); err != nil {
		glog.V(1).Infof("disconnect %s: %v", s.Conn.URL, err)
	}
	s.Conn = nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Print prints v as JSON when requested, otherwise with format.
func (s *Shell) Print(c *ishell.Context, v interface{}, format string, args ...interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Printf(format, args...)
}

// Do sends cmd once the transport is available.
func (c *Conn) Do(cmd comm.Command) error {
	deadline := time.Now().Add(ConnectTimeout)
	for !c.Client.Transport.Available() {
		if time.Now().After(deadline) {
			return comm.ErrUnavailable
		}
		time.Sleep(10 * time.Millisecond)
	}
	return c.Client.Do(cmd)
}

// Watch forwards reports to ch until the returned func is called.
func (c *Conn) Watch(ch chan comm.Report) func() {
	c.lock.Lock()
	c.watchCh = ch
	c.lock.Unlock()
	return func() {
		c.lock.Lock()
		c.watchCh = nil
		c.lock.Unlock()
	}
}

func (c *Conn) track(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-c.Client.Reports():
			c.Tracker.Add(r)
			c.lock.Lock()
			ch := c.watchCh
			c.lock.Unlock()
			if ch != nil {
				select {
				case ch <- r:
				default:
				}
			}
		}
	}
}

// Run runs the shell, connecting to the configured transport first.
func (s *Shell) Run(args ...string) {
	if url := s.Config.TransportURL; url != "" {
		if err := s.Connect(url); err != nil {
			glog.Exitf("connect %s: %v", url, err)
		}
		defer s.Disconnect()
	}
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Exit("command expected")
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).Run(flag.Args()...)
}
