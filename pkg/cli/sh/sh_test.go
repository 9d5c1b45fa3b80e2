package sh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/tasknet/pkg/l0/comm"
)

func TestParseInit(t *testing.T) {
	cmd, err := ParseInit([]string{"9", "cmf", "10", "9", "0x0a"})
	require.NoError(t, err)
	require.Equal(t, &comm.InitCommand{TaskID: 9, Key: "CMF", RateMs: 10, InputIDs: []byte{9, 10}}, cmd)

	cmd, err = ParseInit([]string{"1", "VAL"})
	require.NoError(t, err)
	require.Equal(t, uint16(0), cmd.RateMs)
	require.Empty(t, cmd.InputIDs)

	testCases := [][]string{
		{"1"},
		{"256", "VAL"},
		{"1", "VALUE"},
		{"1", "VAL", "-1"},
		{"1", "VAL", "0", "x"},
	}
	for _, args := range testCases {
		_, err := ParseInit(args)
		require.Error(t, err, "%v", args)
	}
}

func TestParseLatch(t *testing.T) {
	cmd, err := ParseLatch([]string{"3", "out", "1", "-2.5"})
	require.NoError(t, err)
	require.Equal(t, comm.LatchOutputHeld, cmd.Latch)
	require.Equal(t, []float32{1, -2.5}, cmd.Values)

	cmd, err = ParseLatch([]string{"3", "IN"})
	require.NoError(t, err)
	require.Equal(t, comm.LatchInputHeld, cmd.Latch)
	require.Empty(t, cmd.Values)

	_, err = ParseLatch([]string{"3", "sideways"})
	require.Error(t, err)
	_, err = ParseLatch([]string{"3", "out", "one"})
	require.Error(t, err)
	many := []string{"3", "out"}
	for i := 0; i <= comm.MaxOverrideLen; i++ {
		many = append(many, "0")
	}
	_, err = ParseLatch(many)
	require.Error(t, err)
}

func TestParseWatch(t *testing.T) {
	dur, count, err := ParseWatch(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultWatch, dur)
	require.Equal(t, 0, count)

	_, count, err = ParseWatch([]string{"10"})
	require.NoError(t, err)
	require.Equal(t, 10, count)

	dur, _, err = ParseWatch([]string{"2s"})
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, dur)

	_, _, err = ParseWatch([]string{"soon"})
	require.Error(t, err)
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	tr.Add(&comm.StatusReport{Times: comm.Times{Device: 1}, Writes: 4, Reads: 2})
	tr.Add(&comm.FeedbackReport{TaskID: 9, Output: []float32{1, 2}, Timestamp: 1.5})
	tr.Add(&comm.FeedbackReport{TaskID: 3, Latch: comm.LatchOutputHeld, Output: []float32{7}})
	tr.Add(&comm.FeedbackReport{TaskID: 9, Output: []float32{3}, Timestamp: 2, Times: comm.Times{Device: 2}})

	sum := tr.Summary()
	require.Equal(t, uint64(4), sum.Reports)
	require.Equal(t, uint64(1), sum.Statuses)
	require.Equal(t, float32(4), sum.Writes)
	require.Equal(t, float32(2), sum.Device)
	require.Len(t, sum.Tasks, 2)
	require.Equal(t, byte(3), sum.Tasks[0].TaskID)
	require.Equal(t, comm.LatchOutputHeld, sum.Tasks[0].Latch)
	require.Equal(t, []float32{3}, sum.Tasks[1].Output)
	require.Equal(t, uint64(2), sum.Tasks[1].Reports)

	tr.Reset()
	require.Empty(t, tr.Summary().Tasks)
	require.Equal(t, uint64(4), tr.Summary().Reports)
}

func TestFormatReport(t *testing.T) {
	require.Equal(t, "[   1.500] status writes=3 reads=2 host=0.250",
		FormatReport(&comm.StatusReport{Times: comm.Times{Device: 1.5, Host: 0.25}, Writes: 3, Reads: 2}))
	require.Equal(t, "[   0.000] task 4 input-held @1.000: 0.5 -2",
		FormatReport(&comm.FeedbackReport{TaskID: 4, Latch: comm.LatchInputHeld, Timestamp: 1, Output: []float32{0.5, -2}}))
}
