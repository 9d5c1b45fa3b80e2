package comm

import "fmt"

// Report types in byte 0.
const (
	TypeSetup    byte = 255
	TypeOverride byte = 1
	TypeKill     byte = 13

	TypeStatus   byte = 255
	TypeFeedback byte = 1
)

// Setup sub types in byte 1.
const (
	SetupInit      byte = 1
	SetupConfigure byte = 2
	// StatusMarker fills byte 1 of a status report.
	StatusMarker byte = 255
)

// Field offsets.
const (
	typeOffset    = 0
	subTypeOffset = 1
	taskIDOffset  = 2

	initRateOffset   = 3
	initKeyOffset    = 5
	initCountOffset  = 10
	initInputsOffset = 11

	configIndexOffset = 3
	configCountOffset = 4
	configDataOffset  = 5

	overrideLatchOffset = 1
	overrideIDOffset    = 2
	overrideCountOffset = 3
	overrideDataOffset  = 4
	hostTimeOffset      = 60

	statusWritesOffset = 2
	statusReadsOffset  = 6

	feedbackLatchOffset = 1
	feedbackIDOffset    = 2
	feedbackCountOffset = 3
	feedbackDataOffset  = 4
	feedbackTimeOffset  = 48

	deviceTimeOffset = 52
	lastHostOffset   = 56
	elapsedOffset    = 60
)

// Capacities of the variable length fields.
const (
	KeySize        = 3
	ChunkSize      = 13
	MaxInputIDs    = hostTimeOffset - initInputsOffset
	MaxOverrideLen = (hostTimeOffset - overrideDataOffset) / 4
	MaxFeedbackLen = (feedbackTimeOffset - feedbackDataOffset) / 4
)

// Times is the clock trailer of an outbound report, in seconds.
type Times struct {
	Device  float32
	Host    float32
	Elapsed float32
}

// Report is a decoded outbound report.
type Report interface {
	ReportTimes() Times
}

// StatusReport is sent when no feedback is pending.
type StatusReport struct {
	Times
	Writes float32
	Reads  float32
}

// FeedbackReport carries the latest output of one node.
type FeedbackReport struct {
	Times
	TaskID    byte
	Latch     LatchMode
	Output    []float32
	Timestamp float32
}

// ReportTimes implements Report.
func (t Times) ReportTimes() Times {
	return t
}

// DecodeCommand decodes an inbound report.
func DecodeCommand(buf *ByteBuffer) (Command, error) {
	data := buf.Bytes()
	switch data[typeOffset] {
	case TypeSetup:
		switch data[subTypeOffset] {
		case SetupInit:
			return decodeInit(buf)
		case SetupConfigure:
			return decodeConfigure(buf)
		}
	case TypeOverride:
		return decodeOverride(buf)
	case TypeKill:
		return &ResetCommand{}, nil
	}
	return nil, &ReportTypeError{Type: data[typeOffset], SubType: data[subTypeOffset]}
}

// HostTime returns the host time carried by an inbound report.
func HostTime(buf *ByteBuffer) float32 {
	v, _ := buf.Float32(hostTimeOffset)
	return v
}

func decodeInit(buf *ByteBuffer) (Command, error) {
	data := buf.Bytes()
	cmd := &InitCommand{TaskID: data[taskIDOffset]}
	cmd.RateMs, _ = buf.Uint16(initRateOffset)
	cmd.Key = string(data[initKeyOffset : initKeyOffset+KeySize])
	n := int(data[initCountOffset])
	if n > MaxInputIDs {
		return nil, fmt.Errorf("init %d: %d inputs: %w", cmd.TaskID, n, ErrTooManyValues)
	}
	cmd.InputIDs = append([]byte{}, data[initInputsOffset:initInputsOffset+n]...)
	return cmd, nil
}

func decodeConfigure(buf *ByteBuffer) (Command, error) {
	data := buf.Bytes()
	cmd := &ConfigureCommand{
		TaskID: data[taskIDOffset],
		Offset: int(data[configIndexOffset]) * ChunkSize,
	}
	n := int(data[configCountOffset])
	if n > ChunkSize {
		return nil, fmt.Errorf("configure %d: %d values: %w", cmd.TaskID, n, ErrTooManyValues)
	}
	vals, err := buf.Floats(configDataOffset, n)
	if err != nil {
		return nil, err
	}
	cmd.Values = vals
	return cmd, nil
}

func decodeOverride(buf *ByteBuffer) (Command, error) {
	data := buf.Bytes()
	cmd := &OverrideCommand{
		TaskID: data[overrideIDOffset],
		Latch:  LatchMode(data[overrideLatchOffset]),
	}
	n := int(data[overrideCountOffset])
	if n > MaxOverrideLen {
		return nil, fmt.Errorf("override %d: %d values: %w", cmd.TaskID, n, ErrTooManyValues)
	}
	vals, err := buf.Floats(overrideDataOffset, n)
	if err != nil {
		return nil, err
	}
	cmd.Values = vals
	return cmd, nil
}

// EncodeCommand writes cmd as an inbound report stamped with hostTime.
func EncodeCommand(buf *ByteBuffer, cmd Command, hostTime float32) error {
	buf.Clear()
	var err error
	switch c := cmd.(type) {
	case *InitCommand:
		err = encodeInit(buf, c)
	case *ConfigureCommand:
		err = encodeConfigure(buf, c)
	case *OverrideCommand:
		err = encodeOverride(buf, c)
	case *ResetCommand:
		err = buf.PutByte(typeOffset, TypeKill)
	default:
		err = fmt.Errorf("unsupported command %T", cmd)
	}
	if err != nil {
		return err
	}
	return buf.PutFloat32(hostTimeOffset, hostTime)
}

func encodeInit(buf *ByteBuffer, c *InitCommand) error {
	if len(c.InputIDs) > MaxInputIDs {
		return ErrTooManyValues
	}
	if len(c.Key) != KeySize {
		return fmt.Errorf("task key %q must be %d characters", c.Key, KeySize)
	}
	buf.PutBytes(typeOffset, []byte{TypeSetup, SetupInit, c.TaskID})
	buf.PutUint16(initRateOffset, c.RateMs)
	buf.PutBytes(initKeyOffset, []byte(c.Key))
	buf.PutByte(initCountOffset, byte(len(c.InputIDs)))
	return buf.PutBytes(initInputsOffset, c.InputIDs)
}

func encodeConfigure(buf *ByteBuffer, c *ConfigureCommand) error {
	if len(c.Values) > ChunkSize {
		return ErrTooManyValues
	}
	if c.Offset%ChunkSize != 0 || c.Offset/ChunkSize > 0xff {
		return fmt.Errorf("chunk offset %d is not a multiple of %d", c.Offset, ChunkSize)
	}
	buf.PutBytes(typeOffset, []byte{TypeSetup, SetupConfigure, c.TaskID,
		byte(c.Offset / ChunkSize), byte(len(c.Values))})
	return buf.PutFloats(configDataOffset, c.Values)
}

func encodeOverride(buf *ByteBuffer, c *OverrideCommand) error {
	if len(c.Values) > MaxOverrideLen {
		return ErrTooManyValues
	}
	buf.PutBytes(typeOffset, []byte{TypeOverride, byte(c.Latch), c.TaskID, byte(len(c.Values))})
	return buf.PutFloats(overrideDataOffset, c.Values)
}

// ConfigureChunks splits a parameter list into configure commands.
func ConfigureChunks(taskID byte, params []float32) []*ConfigureCommand {
	var cmds []*ConfigureCommand
	for off := 0; off < len(params); off += ChunkSize {
		end := off + ChunkSize
		if end > len(params) {
			end = len(params)
		}
		cmds = append(cmds, &ConfigureCommand{
			TaskID: taskID,
			Offset: off,
			Values: append([]float32(nil), params[off:end]...),
		})
	}
	return cmds
}

// EncodeStatus writes a status report body.
func EncodeStatus(buf *ByteBuffer, writes, reads float32) {
	buf.Clear()
	buf.PutBytes(typeOffset, []byte{TypeStatus, StatusMarker})
	buf.PutFloat32(statusWritesOffset, writes)
	buf.PutFloat32(statusReadsOffset, reads)
}

// EncodeFeedback writes a feedback report body.
func EncodeFeedback(buf *ByteBuffer, fb *FeedbackRecord) error {
	if len(fb.Output) > MaxFeedbackLen {
		return fmt.Errorf("feedback %d: %d outputs: %w", fb.TaskID, len(fb.Output), ErrTooManyValues)
	}
	buf.Clear()
	buf.PutBytes(typeOffset, []byte{TypeFeedback, byte(fb.Latch), fb.TaskID, byte(len(fb.Output))})
	buf.PutFloats(feedbackDataOffset, fb.Output)
	return buf.PutFloat32(feedbackTimeOffset, fb.Timestamp)
}

// PutTimes stamps the clock trailer of an outbound report.
func PutTimes(buf *ByteBuffer, t Times) {
	buf.PutFloat32(deviceTimeOffset, t.Device)
	buf.PutFloat32(lastHostOffset, t.Host)
	buf.PutFloat32(elapsedOffset, t.Elapsed)
}

// DecodeReport decodes an outbound report.
func DecodeReport(b []byte) (Report, error) {
	if len(b) < ReportSize {
		return nil, ErrShortReport
	}
	buf := NewByteBuffer(b)
	var t Times
	t.Device, _ = buf.Float32(deviceTimeOffset)
	t.Host, _ = buf.Float32(lastHostOffset)
	t.Elapsed, _ = buf.Float32(elapsedOffset)
	switch {
	case b[typeOffset] == TypeStatus && b[subTypeOffset] == StatusMarker:
		r := &StatusReport{Times: t}
		r.Writes, _ = buf.Float32(statusWritesOffset)
		r.Reads, _ = buf.Float32(statusReadsOffset)
		return r, nil
	case b[typeOffset] == TypeFeedback:
		r := &FeedbackReport{
			Times:  t,
			TaskID: b[feedbackIDOffset],
			Latch:  LatchMode(b[feedbackLatchOffset]),
		}
		n := int(b[feedbackCountOffset])
		if n > MaxFeedbackLen {
			return nil, ErrTooManyValues
		}
		r.Output, _ = buf.Floats(feedbackDataOffset, n)
		r.Timestamp, _ = buf.Float32(feedbackTimeOffset)
		return r, nil
	}
	return nil, &ReportTypeError{Type: b[typeOffset], SubType: b[subTypeOffset]}
}
