package comm

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/framework"
)

// DefaultPollInterval is how often the client polls for reports.
const DefaultPollInterval = time.Millisecond

// Client is the host side of the report protocol.
type Client struct {
	Transport Transport
	Clock     framework.Clock
	Poll      time.Duration

	reportCh chan Report
	lock     sync.Mutex
	buf      ByteBuffer
}

// NewClient creates a client on a host transport.
func NewClient(t Transport) *Client {
	return &Client{
		Transport: t,
		Clock:     framework.NewSystemClock(),
		Poll:      DefaultPollInterval,
		reportCh:  make(chan Report, 64),
	}
}

// Reports returns the chan of decoded device reports.
func (c *Client) Reports() <-chan Report {
	return c.reportCh
}

// Do sends one command stamped with the host time.
func (c *Client) Do(cmd Command) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.Transport.Available() {
		return ErrUnavailable
	}
	if err := EncodeCommand(&c.buf, cmd, framework.Seconds(c.Clock.Elapsed())); err != nil {
		return err
	}
	n, err := c.Transport.Send(c.buf.Bytes())
	if err == nil && n <= 0 {
		err = ErrUnavailable
	}
	return err
}

// Init registers the node id running the task key.
func (c *Client) Init(id byte, key string, rateMs uint16, inputs ...byte) error {
	return c.Do(&InitCommand{TaskID: id, Key: key, RateMs: rateMs, InputIDs: inputs})
}

// Configure sends params in as many chunks as needed.
func (c *Client) Configure(id byte, params ...float32) error {
	for _, cmd := range ConfigureChunks(id, params) {
		if err := c.Do(cmd); err != nil {
			return err
		}
	}
	return nil
}

// Override changes the latch mode of id, pinning values.
func (c *Client) Override(id byte, latch LatchMode, values ...float32) error {
	return c.Do(&OverrideCommand{TaskID: id, Latch: latch, Values: values})
}

// Kill sends the kill switch, dropping the device graph.
func (c *Client) Kill() error {
	return c.Do(&ResetCommand{})
}

// Run polls the transport and decodes reports until ctx is done.
// Reports are dropped when nobody drains Reports.
func (c *Client) Run(ctx context.Context) error {
	poll := c.Poll
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	data := make([]byte, ReportSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		for {
			n, err := c.Transport.Recv(data)
			if err != nil {
				glog.V(2).Infof("recv: %v", err)
			}
			if n == 0 {
				break
			}
			report, err := DecodeReport(data[:n])
			if err != nil {
				glog.Warningf("dropped report: %v", err)
				continue
			}
			select {
			case c.reportCh <- report:
			default:
				glog.V(2).Info("report chan full")
			}
		}
	}
}
