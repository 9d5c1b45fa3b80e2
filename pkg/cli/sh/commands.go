package sh

import (
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/tasknet/pkg/l0/comm"
	"github.com/robotalks/tasknet/pkg/l0/transport/serial"
)

func doOrErr(c *ishell.Context, conn *Conn, cmd comm.Command) {
	if err := conn.Do(cmd); err != nil {
		c.Err(err)
		return
	}
	if !ShellFrom(c).OutputJSON {
		c.Println("OK")
	}
}

// FormatReport renders a report on one line.
func FormatReport(r comm.Report) string {
	t := r.ReportTimes()
	switch rep := r.(type) {
	case *comm.StatusReport:
		return fmt.Sprintf("[%8.3f] status writes=%.0f reads=%.0f host=%.3f",
			t.Device, rep.Writes, rep.Reads, t.Host)
	case *comm.FeedbackReport:
		vals := make([]string, len(rep.Output))
		for i, v := range rep.Output {
			vals[i] = fmt.Sprintf("%.4g", v)
		}
		return fmt.Sprintf("[%8.3f] task %d %s @%.3f: %s",
			t.Device, rep.TaskID, rep.Latch, rep.Timestamp, strings.Join(vals, " "))
	}
	return fmt.Sprintf("[%8.3f] %T", t.Device, r)
}

var (
	// ConnectCmd connects a transport.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("URL expected"))
				return
			}
			if err := ShellFrom(c).Connect(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the current transport.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).Print(c, ports, "%s\n", strings.Join(ports, "\n"))
		},
	}

	// InitCmd creates or replaces a task node.
	InitCmd = ishell.Cmd{
		Name: "init",
		Help: "ID KEY [RATE_MS [INPUT...]]",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			cmd, err := ParseInit(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			doOrErr(c, conn, cmd)
		}),
	}

	// ConfigCmd sends the parameters of a node.
	ConfigCmd = ishell.Cmd{
		Name:    "config",
		Aliases: []string{"cfg"},
		Help:    "ID VALUE...",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("ID VALUE... expected"))
				return
			}
			id, err := ParseTaskID(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			vals, err := ParseFloats(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			for _, cmd := range comm.ConfigureChunks(id, vals) {
				if err := conn.Do(cmd); err != nil {
					c.Err(err)
					return
				}
			}
			if !ShellFrom(c).OutputJSON {
				c.Println("OK")
			}
		}),
	}

	// LatchCmd pins the output or the input of a node.
	LatchCmd = ishell.Cmd{
		Name: "latch",
		Help: "ID out|in VALUE...",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			cmd, err := ParseLatch(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			doOrErr(c, conn, cmd)
		}),
	}

	// UnlatchCmd returns a node to normal.
	UnlatchCmd = ishell.Cmd{
		Name: "unlatch",
		Help: "ID",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("ID expected"))
				return
			}
			id, err := ParseTaskID(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			doOrErr(c, conn, &comm.OverrideCommand{TaskID: id, Latch: comm.LatchNormal})
		}),
	}

	// KillCmd drops the device graph.
	KillCmd = ishell.Cmd{
		Name: "kill",
		Help: "drop every node on the device",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			conn.Tracker.Reset()
			doOrErr(c, conn, &comm.ResetCommand{})
		}),
	}

	// WatchCmd prints reports.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION|COUNT]",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			dur, count, err := ParseWatch(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := ShellFrom(c)
			ch := make(chan comm.Report, 64)
			stop := conn.Watch(ch)
			defer stop()
			timeout := time.After(dur)
			for n := 0; count == 0 || n < count; n++ {
				select {
				case r := <-ch:
					s.Print(c, r, "%s\n", FormatReport(r))
				case <-timeout:
					return
				}
			}
		}),
	}

	// StatsCmd prints what is known about the device.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Func: MustBeConnected(func(c *ishell.Context, conn *Conn) {
			sum := conn.Tracker.Summary()
			s := ShellFrom(c)
			if s.OutputJSON {
				s.Print(c, sum, "")
				return
			}
			c.Printf("reports=%d statuses=%d device writes=%.0f reads=%.0f\n",
				sum.Reports, sum.Statuses, sum.Writes, sum.Reads)
			c.Printf("device=%.3f host=%.3f elapsed=%.3f\n", sum.Device, sum.Host, sum.Elapsed)
			for _, st := range sum.Tasks {
				c.Printf("task %3d %-11s reports=%-6d @%.3f %v\n",
					st.TaskID, st.Latch, st.Reports, st.Timestamp, st.Output)
			}
		}),
	}
)
