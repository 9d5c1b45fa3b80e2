// Package env configures tasknet programs from flags and environment.
package env

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/tasknet/pkg/framework"
	"github.com/robotalks/tasknet/pkg/l0/comm"
	"github.com/robotalks/tasknet/pkg/l0/transport/mqtt"
	"github.com/robotalks/tasknet/pkg/l0/transport/serial"
	"github.com/robotalks/tasknet/pkg/l0/transport/websocket"
)

// Role is the side of the report protocol a program plays.
type Role int

// Roles.
const (
	RoleDevice Role = iota
	RoleHost
)

// Config holds the common options.
type Config struct {
	// DeviceID names the device in MQTT topics.
	DeviceID string
	// TransportURL selects the report transport, e.g.
	//   serial:///dev/ttyACM0?baud=115200
	//   mqtt://host:1883/prefix/
	//   ws://host:8080/reports
	TransportURL string
	// TelemetryURL is the MQTT broker for snapshots. Empty disables.
	TelemetryURL string
	// Cycle is the main loop period.
	Cycle time.Duration
	// Tick is the pipeline period.
	Tick time.Duration
	// Watchdog is how long the transport may be unavailable.
	Watchdog time.Duration
}

var defaultConfig = Config{
	TransportURL: "ws://localhost:8080/reports",
	Cycle:        framework.DefaultCycle,
	Tick:         comm.DefaultTickPeriod,
	Watchdog:     comm.DefaultWatchdogTimeout,
}

func init() {
	loadEnv(&defaultConfig, os.Getenv)
	if defaultConfig.DeviceID == "" {
		defaultConfig.DeviceID = MachineID()
	}
}

func loadEnv(c *Config, getenv func(string) string) {
	if val := getenv("TASKNET_DEVICE_ID"); val != "" {
		c.DeviceID = val
	}
	if val := getenv("TASKNET_TRANSPORT"); val != "" {
		c.TransportURL = val
	}
	if val := getenv("TASKNET_TELEMETRY"); val != "" {
		c.TelemetryURL = val
	}
	durations := map[string]*time.Duration{
		"TASKNET_CYCLE":    &c.Cycle,
		"TASKNET_TICK":     &c.Tick,
		"TASKNET_WATCHDOG": &c.Watchdog,
	}
	for name, dst := range durations {
		val := getenv(name)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			glog.Warningf("ignored %s=%q: %v", name, val, err)
			continue
		}
		*dst = d
	}
}

// MachineID returns an id unique to the machine, or "tasknet" when it
// can't be determined.
func MachineID() string {
	id, err := machineid.ProtectedID("tasknet")
	if err != nil {
		glog.V(1).Infof("machine id: %v", err)
		return "tasknet"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// SetupFlags registers the flags on the default config.
func SetupFlags() {
	SetupFlagSet(flag.CommandLine, &defaultConfig)
}

// SetupFlagSet registers the flags of c on fs.
func SetupFlagSet(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.DeviceID, "id", c.DeviceID, "Device ID")
	fs.StringVar(&c.TransportURL, "transport", c.TransportURL, "Report transport URL (serial://, mqtt://, ws://)")
	fs.StringVar(&c.TelemetryURL, "telemetry", c.TelemetryURL, "MQTT broker URL for telemetry")
	fs.DurationVar(&c.Cycle, "cycle", c.Cycle, "Main loop cycle")
	fs.DurationVar(&c.Tick, "tick", c.Tick, "Comms pipeline period")
	fs.DurationVar(&c.Watchdog, "watchdog", c.Watchdog, "Transport watchdog timeout")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a copy of the default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Transport is a comm.Transport which must be run.
type Transport interface {
	comm.Transport
	framework.Runnable
}

// OpenTransport creates the transport for role from TransportURL.
func (c *Config) OpenTransport(role Role) (Transport, error) {
	u, err := url.Parse(c.TransportURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %w", err)
	}
	switch u.Scheme {
	case "serial":
		baud := 0
		if val := u.Query().Get("baud"); val != "" {
			if baud, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q: %w", val, err)
			}
		}
		name := u.Path
		if name == "" {
			name = u.Opaque
		}
		return serial.Open(name, baud)
	case "mqtt", "mqtts":
		if c.DeviceID == "" {
			return nil, fmt.Errorf("device id is required for %s", u.Scheme)
		}
		mrole := mqtt.RoleDevice
		if role == RoleHost {
			mrole = mqtt.RoleHost
		}
		return mqtt.New(c.TransportURL, c.DeviceID, mrole)
	case "ws":
		if role == RoleHost {
			return websocket.NewClient(c.TransportURL), nil
		}
		s := websocket.NewServer(u.Host)
		if u.Path != "" {
			s.Path = u.Path
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
}

// MustOpenTransport opens the transport and exits on failure.
func (c *Config) MustOpenTransport(role Role) Transport {
	t, err := c.OpenTransport(role)
	if err != nil {
		glog.Exitf("open transport %s: %v", c.TransportURL, err)
	}
	return t
}
