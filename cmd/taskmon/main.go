package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/robotalks/tasknet/pkg/l0/transport/mqtt"
	"github.com/robotalks/tasknet/pkg/telemetry"
)

var (
	mqttURL = "mqtt://localhost:1883/"
	device  = "+"
)

func init() {
	if val := os.Getenv("TASKNET_TELEMETRY"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&device, "device", device, "Device ID to watch, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	telemetry.Watch(q, device, func(id string, st *telemetry.GraphStatus) {
		flags := make([]string, 0, 2)
		if st.Configured {
			flags = append(flags, "configured")
		}
		if st.Running {
			flags = append(flags, "running")
		}
		log.Printf("%s session=%s t=%dms nodes=%d [%s]", id, st.Session, st.TimeMs, len(st.Nodes), strings.Join(flags, ","))
		if st.Fault != "" {
			log.Printf("%s FAULT: %s", id, st.Fault)
		}
		for _, n := range st.Nodes {
			log.Printf("  %3d %s runs=%d latch=%d linked=%v configured=%v out=%v",
				n.TaskID, n.Key, n.Runs, n.Latch, n.Linked, n.Configured, n.Output)
		}
		if p := st.Pipeline; p != nil {
			log.Printf("  pipeline writes=%d reads=%d send-errors=%d protocol-errors=%d watchdog=%d",
				p.Writes, p.Reads, p.SendErrors, p.ProtocolErrors, p.WatchdogResets)
		}
	})
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	<-sigCh
}
