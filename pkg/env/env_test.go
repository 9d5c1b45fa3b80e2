package env

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tasknet/pkg/l0/transport/mqtt"
	"github.com/robotalks/tasknet/pkg/l0/transport/websocket"
)

func TestLoadEnv(t *testing.T) {
	vars := map[string]string{
		"TASKNET_DEVICE_ID": "bot",
		"TASKNET_TRANSPORT": "mqtt://broker/",
		"TASKNET_CYCLE":     "1ms",
		"TASKNET_WATCHDOG":  "soon",
	}
	c := Config{Watchdog: time.Second}
	loadEnv(&c, func(name string) string { return vars[name] })
	require.Equal(t, "bot", c.DeviceID)
	require.Equal(t, "mqtt://broker/", c.TransportURL)
	require.Equal(t, time.Millisecond, c.Cycle)
	require.Equal(t, time.Second, c.Watchdog)
	require.Empty(t, c.TelemetryURL)
}

func TestFlags(t *testing.T) {
	c := NewConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	SetupFlagSet(fs, c)
	require.NoError(t, fs.Parse([]string{"-id", "d1", "-telemetry", "mqtt://b/", "-tick", "2ms"}))
	require.Equal(t, "d1", c.DeviceID)
	require.Equal(t, "mqtt://b/", c.TelemetryURL)
	require.Equal(t, 2*time.Millisecond, c.Tick)
	require.NotEqual(t, "d1", Default().DeviceID)
	require.NotEmpty(t, Default().DeviceID)
}

func TestOpenTransport(t *testing.T) {
	c := &Config{DeviceID: "bot", TransportURL: "ws://localhost:9000/r"}
	tr, err := c.OpenTransport(RoleDevice)
	require.NoError(t, err)
	server, ok := tr.(*websocket.Server)
	require.True(t, ok)
	require.Equal(t, "localhost:9000", server.Addr)
	require.Equal(t, "/r", server.Path)

	tr, err = c.OpenTransport(RoleHost)
	require.NoError(t, err)
	client, ok := tr.(*websocket.Client)
	require.True(t, ok)
	require.Equal(t, "ws://localhost:9000/r", client.URL)

	c.TransportURL = "mqtt://localhost:1883/lab/"
	tr, err = c.OpenTransport(RoleHost)
	require.NoError(t, err)
	mt, ok := tr.(*mqtt.Transport)
	require.True(t, ok)
	require.Equal(t, "bot/out", mt.SubTopic)

	c.DeviceID = ""
	_, err = c.OpenTransport(RoleDevice)
	require.Error(t, err)

	testCases := []string{
		"serial:///dev/ttyS0?baud=fast",
		"serial:///dev/tasknet-no-such-port",
		"udp://localhost:9000",
		"://",
	}
	for _, u := range testCases {
		c.TransportURL = u
		_, err := c.OpenTransport(RoleDevice)
		require.Error(t, err, u)
	}
}
