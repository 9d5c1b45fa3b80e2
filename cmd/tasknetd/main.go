package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/env"
	"github.com/robotalks/tasknet/pkg/framework"
	"github.com/robotalks/tasknet/pkg/graph"
	"github.com/robotalks/tasknet/pkg/hw"
	"github.com/robotalks/tasknet/pkg/l0/comm"
	"github.com/robotalks/tasknet/pkg/task/tasks"
	"github.com/robotalks/tasknet/pkg/telemetry"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	conf := env.Default()

	board := hw.NewSimBoard()
	shared := comm.NewShared()
	sched := graph.NewScheduler(tasks.NewRegistry(board), shared).WithBoard(board)
	sched.Budget = conf.Cycle

	transport := conf.MustOpenTransport(env.RoleDevice)
	pipeline := comm.NewPipeline(transport, shared, nil)
	pipeline.Period = conf.Tick
	pipeline.WatchdogTimeout = conf.Watchdog

	loop := framework.NewLoop()
	loop.Cycle = conf.Cycle
	loop.AddRunnable(framework.NamedRun("transport", transport))
	loop.Add(sched, pipeline)

	var pub *telemetry.Publisher
	if conf.TelemetryURL != "" {
		sink, err := telemetry.NewMQTTSink(conf.TelemetryURL)
		if err != nil {
			glog.Exitf("telemetry: %v", err)
		}
		pub = telemetry.NewPublisher(conf.DeviceID, sink)
		pub.Scheduler, pub.Pipeline = sched, pipeline
		loop.AddRunnable(framework.NamedRun("telemetry-sink", sink), framework.NamedRun("telemetry", pub))
	}

	// status outputs are driven before OnStatus, so a fault is visible on
	// the board when the process exits.
	sched.OnStatus = func(st graph.Status, nodes []graph.NodeInfo) {
		if pub != nil {
			pub.HandleStatus(st, nodes)
		}
		if st.Fault != nil {
			glog.Exitf("fault: %v", st.Fault)
		}
	}

	glog.Infof("device %s on %s", conf.DeviceID, conf.TransportURL)
	loop.RunOrFail(framework.NewRunner().HandleSignals().Context)
}
