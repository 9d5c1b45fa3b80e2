package comm

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/framework"
)

// Pipeline defaults.
const (
	DefaultTickPeriod      = 5 * time.Millisecond
	DefaultWatchdogTimeout = 5 * time.Second
)

// PipelineStats is a snapshot of pipeline counters.
type PipelineStats struct {
	Writes         uint64
	Reads          uint64
	SendErrors     uint64
	ProtocolErrors uint64
	Overruns       uint64
	WatchdogResets uint64
	HostTime       float32
	Elapsed        time.Duration
}

// Pipeline performs one report exchange per tick: it decodes at most one
// inbound report into the setup queue and sends exactly one outbound report.
type Pipeline struct {
	Transport       Transport
	Shared          *Shared
	Clock           framework.Clock
	Period          time.Duration
	WatchdogTimeout time.Duration
	// Budget is the tick duration counted as an overrun. Zero uses Period.
	Budget time.Duration

	lock       sync.Mutex
	buf        ByteBuffer
	stats      PipelineStats
	epoch      time.Duration
	lastSeen   time.Duration
	sendFailed bool
}

// NewPipeline creates a pipeline with default timings.
func NewPipeline(t Transport, shared *Shared, clock framework.Clock) *Pipeline {
	return &Pipeline{
		Transport:       t,
		Shared:          shared,
		Clock:           clock,
		Period:          DefaultTickPeriod,
		WatchdogTimeout: DefaultWatchdogTimeout,
	}
}

// AddToLoop implements framework.LoopAdder. The pipeline ticks from its own
// goroutine, independent of the loop's passes.
func (p *Pipeline) AddToLoop(l *framework.Loop) {
	if p.Clock == nil {
		p.Clock = l.Clock
	}
	l.AddRunnable(framework.NamedRun("pipeline", &framework.Ticker{
		Period:  p.Period,
		Clock:   p.Clock,
		Handler: framework.SpinFunc(p.Tick),
	}))
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() PipelineStats {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.stats
}

// Tick runs one exchange at time now.
func (p *Pipeline) Tick(now time.Duration) {
	p.lock.Lock()
	defer p.lock.Unlock()
	defer p.account(now)

	if !p.Transport.Available() {
		if now-p.lastSeen > p.WatchdogTimeout {
			glog.V(1).Infof("transport unavailable since %v, reset stats", p.lastSeen)
			p.resetStats(now)
			p.stats.WatchdogResets++
			p.lastSeen = now
		}
		return
	}
	p.lastSeen = now

	n, err := p.Transport.Recv(p.buf.Bytes())
	if err != nil {
		glog.V(2).Infof("recv: %v", err)
	}
	if n == ReportSize {
		p.stats.Reads++
		p.stats.HostTime = HostTime(&p.buf)
		if reply, reset := p.handleReport(); reply {
			p.sendStatus(now)
			if reset {
				p.resetStats(now)
			}
			return
		}
	} else if n > 0 {
		p.stats.ProtocolErrors++
		glog.Warningf("dropped short report of %d bytes", n)
	}
	p.sendNext(now)
}

// handleReport decodes the received report. It reports whether the report
// is answered with a status report, and whether stats reset after that.
func (p *Pipeline) handleReport() (reply, reset bool) {
	cmd, err := DecodeCommand(&p.buf)
	if err != nil {
		p.stats.ProtocolErrors++
		glog.Warningf("dropped report: %v", err)
		return false, false
	}
	glog.V(3).Infof("received %v", cmd)
	switch cmd.(type) {
	case *ResetCommand:
		glog.Info("kill switch received")
		p.Shared.Setup.Push(cmd)
		return true, true
	case *OverrideCommand:
		p.Shared.Setup.Push(cmd)
		return false, false
	default:
		p.Shared.Setup.Push(cmd)
		return true, false
	}
}

func (p *Pipeline) sendNext(now time.Duration) {
	if fb, ok := p.Shared.Feedback.Next(); ok {
		err := EncodeFeedback(&p.buf, fb)
		if err == nil {
			p.send(now)
			return
		}
		p.stats.ProtocolErrors++
		glog.Errorf("encode feedback: %v", err)
	}
	p.sendStatus(now)
}

func (p *Pipeline) sendStatus(now time.Duration) {
	EncodeStatus(&p.buf, float32(p.stats.Writes), float32(p.stats.Reads))
	p.send(now)
}

func (p *Pipeline) send(now time.Duration) {
	PutTimes(&p.buf, Times{
		Device:  framework.Seconds(now),
		Host:    p.stats.HostTime,
		Elapsed: framework.Seconds(now - p.epoch),
	})
	n, err := p.Transport.Send(p.buf.Bytes())
	if err == nil && n <= 0 {
		err = ErrUnavailable
	}
	if err != nil {
		p.stats.SendErrors++
		if !p.sendFailed {
			glog.Warningf("send report: %v", err)
		}
		p.sendFailed = true
		return
	}
	p.sendFailed = false
	p.stats.Writes++
}

func (p *Pipeline) resetStats(now time.Duration) {
	resets := p.stats.WatchdogResets
	p.stats = PipelineStats{WatchdogResets: resets}
	p.epoch = now
}

func (p *Pipeline) account(start time.Duration) {
	if p.Clock == nil {
		p.stats.Elapsed = start - p.epoch
		return
	}
	budget := p.Budget
	if budget <= 0 {
		budget = p.Period
	}
	if took := p.Clock.Elapsed() - start; budget > 0 && took > budget {
		p.stats.Overruns++
		glog.V(1).Infof("pipeline tick took %v > %v", took, budget)
	}
	p.stats.Elapsed = start - p.epoch
}
