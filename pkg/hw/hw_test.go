package hw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimBusRegisters(t *testing.T) {
	bus := NewSimBus()
	who := make([]byte, 1)
	require.NoError(t, bus.Tx(SimIMUAddress, []byte{regWhoAmI}, who))
	require.Equal(t, byte(whoAmIValue), who[0])

	require.NoError(t, bus.Tx(SimIMUAddress, []byte{0x10, 1, 2, 3}, nil))
	got := make([]byte, 3)
	require.NoError(t, bus.Tx(SimIMUAddress, []byte{0x10}, got))
	require.Equal(t, []byte{1, 2, 3}, got)

	err := bus.Tx(0x33, []byte{0}, got)
	require.Error(t, err)
	bus.Detach(SimIMUAddress)
	require.Error(t, bus.Tx(SimIMUAddress, []byte{regWhoAmI}, who))
}

func TestPinOutput(t *testing.T) {
	pins := NewSimPins()
	out := &PinOutput{GPIO: pins, Pin: 13}
	out.Set(true)
	require.True(t, pins.Digital(13))
	out.Set(false)
	require.False(t, pins.Digital(13))

	require.NoError(t, pins.Write(2, 100))
	pins.SetResolution(12)
	require.Equal(t, 100, pins.Analog(2))
	require.Equal(t, uint(12), pins.Resolution())
}
