package comm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitRoundTrip(t *testing.T) {
	var b ByteBuffer
	in := &InitCommand{TaskID: 9, RateMs: 250, Key: "CMF", InputIDs: []byte{9, 10}}
	require.NoError(t, EncodeCommand(&b, in, 12.5))

	raw := b.Bytes()
	require.Equal(t, []byte{255, 1, 9, 250, 0, 'C', 'M', 'F'}, raw[:8])
	require.Equal(t, byte(2), raw[10])
	require.Equal(t, []byte{9, 10}, raw[11:13])
	require.Equal(t, float32(12.5), HostTime(&b))

	out, err := DecodeCommand(NewByteBuffer(raw))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestCommandRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		cmd  Command
	}{
		{"init no inputs", &InitCommand{TaskID: 10, Key: "LSM", InputIDs: []byte{}}},
		{"init max inputs", &InitCommand{TaskID: 1, RateMs: 65535, Key: "PWM", InputIDs: make([]byte, MaxInputIDs)}},
		{"configure", &ConfigureCommand{TaskID: 9, Offset: 0, Values: []float32{0.6}}},
		{"configure second chunk", &ConfigureCommand{TaskID: 3, Offset: ChunkSize, Values: []float32{1, 2, 3}}},
		{"override", &OverrideCommand{TaskID: 10, Latch: LatchOutputHeld, Values: []float32{1, 2, 3, 4, 5, 6}}},
		{"override max", &OverrideCommand{TaskID: 2, Latch: LatchInputHeld, Values: make([]float32, MaxOverrideLen)}},
		{"kill", &ResetCommand{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var b ByteBuffer
			require.NoError(t, EncodeCommand(&b, tc.cmd, 1))
			out, err := DecodeCommand(&b)
			require.NoError(t, err)
			require.Equal(t, tc.cmd, out)
		})
	}
}

func TestOverrideLayout(t *testing.T) {
	var b ByteBuffer
	require.NoError(t, EncodeCommand(&b, &OverrideCommand{TaskID: 7, Latch: LatchInputHeld, Values: []float32{2}}, 0))
	require.Equal(t, []byte{1, 2, 7, 1}, b.Bytes()[:4])
}

func TestEncodeCommandLimits(t *testing.T) {
	var b ByteBuffer
	require.Error(t, EncodeCommand(&b, &InitCommand{Key: "LSM", InputIDs: make([]byte, MaxInputIDs+1)}, 0))
	require.Error(t, EncodeCommand(&b, &InitCommand{Key: "LS"}, 0))
	require.Error(t, EncodeCommand(&b, &ConfigureCommand{Values: make([]float32, ChunkSize+1)}, 0))
	require.Error(t, EncodeCommand(&b, &ConfigureCommand{Offset: 5, Values: []float32{1}}, 0))
	require.Error(t, EncodeCommand(&b, &OverrideCommand{Values: make([]float32, MaxOverrideLen+1)}, 0))
}

func TestDecodeCommandErrors(t *testing.T) {
	testCases := []struct {
		name   string
		header []byte
	}{
		{"unknown type", []byte{42}},
		{"unknown setup", []byte{255, 7}},
		{"too many inputs", []byte{255, 1, 1, 0, 0, 'V', 'A', 'L', 0, 0, MaxInputIDs + 1}},
		{"chunk too large", []byte{255, 2, 1, 0, ChunkSize + 1}},
		{"override too large", []byte{1, 0, 1, MaxOverrideLen + 1}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCommand(NewByteBuffer(tc.header))
			require.Error(t, err)
		})
	}
	_, err := DecodeCommand(NewByteBuffer([]byte{42}))
	typeErr, ok := err.(*ReportTypeError)
	require.True(t, ok)
	require.Equal(t, byte(42), typeErr.Type)
	_, err = DecodeCommand(NewByteBuffer([]byte{1, 0, 1, MaxOverrideLen + 1}))
	require.True(t, errors.Is(err, ErrTooManyValues))
}

func TestConfigureChunks(t *testing.T) {
	params := make([]float32, 30)
	for i := range params {
		params[i] = float32(i)
	}
	chunks := ConfigureChunks(4, params)
	require.Len(t, chunks, 3)
	require.Equal(t, 0, chunks[0].Offset)
	require.Equal(t, ChunkSize, chunks[1].Offset)
	require.Equal(t, 2*ChunkSize, chunks[2].Offset)
	require.Len(t, chunks[2].Values, 4)
	require.Equal(t, float32(26), chunks[2].Values[0])
	require.Empty(t, ConfigureChunks(4, nil))
}

func TestReportRoundTrip(t *testing.T) {
	var b ByteBuffer
	times := Times{Device: 3, Host: 2, Elapsed: 1}

	EncodeStatus(&b, 10, 20)
	PutTimes(&b, times)
	require.Equal(t, []byte{255, 255}, b.Bytes()[:2])
	r, err := DecodeReport(b.Bytes())
	require.NoError(t, err)
	require.Equal(t, &StatusReport{Times: times, Writes: 10, Reads: 20}, r)

	fb := &FeedbackRecord{TaskID: 10, Latch: LatchOutputHeld, Output: []float32{1, 2, 3}, Timestamp: 0.5}
	require.NoError(t, EncodeFeedback(&b, fb))
	PutTimes(&b, times)
	require.Equal(t, []byte{1, 1, 10, 3}, b.Bytes()[:4])
	r, err = DecodeReport(b.Bytes())
	require.NoError(t, err)
	require.Equal(t, &FeedbackReport{
		Times:     times,
		TaskID:    10,
		Latch:     LatchOutputHeld,
		Output:    []float32{1, 2, 3},
		Timestamp: 0.5,
	}, r)
	require.Equal(t, times, r.ReportTimes())

	_, err = DecodeReport(b.Bytes()[:10])
	require.Equal(t, ErrShortReport, err)
	require.Error(t, EncodeFeedback(&b, &FeedbackRecord{Output: make([]float32, MaxFeedbackLen+1)}))
}
