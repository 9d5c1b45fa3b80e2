package sh

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/tasknet/pkg/l0/comm"
)

// ParseTaskID parses a task id in 0..255.
func ParseTaskID(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return byte(v), nil
}

// ParseFloats parses every arg as a float32.
func ParseFloats(args []string) ([]float32, error) {
	vals := make([]float32, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", arg)
		}
		vals = append(vals, float32(v))
	}
	return vals, nil
}

// ParseInit parses: ID KEY [RATE_MS [INPUT...]].
func ParseInit(args []string) (*comm.InitCommand, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("ID KEY [RATE_MS [INPUT...]] expected")
	}
	id, err := ParseTaskID(args[0])
	if err != nil {
		return nil, err
	}
	key := strings.ToUpper(args[1])
	if len(key) != comm.KeySize {
		return nil, fmt.Errorf("key %q must have %d characters", args[1], comm.KeySize)
	}
	cmd := &comm.InitCommand{TaskID: id, Key: key}
	if len(args) > 2 {
		rate, err := strconv.ParseUint(args[2], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid rate %q", args[2])
		}
		cmd.RateMs = uint16(rate)
	}
	if len(args) > 3 {
		if len(args)-3 > comm.MaxInputIDs {
			return nil, fmt.Errorf("at most %d inputs", comm.MaxInputIDs)
		}
		for _, arg := range args[3:] {
			in, err := ParseTaskID(arg)
			if err != nil {
				return nil, err
			}
			cmd.InputIDs = append(cmd.InputIDs, in)
		}
	}
	return cmd, nil
}

// ParseLatch parses: ID out|in VALUE...
func ParseLatch(args []string) (*comm.OverrideCommand, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("ID out|in VALUE... expected")
	}
	id, err := ParseTaskID(args[0])
	if err != nil {
		return nil, err
	}
	cmd := &comm.OverrideCommand{TaskID: id}
	switch strings.ToLower(args[1]) {
	case "out", "output":
		cmd.Latch = comm.LatchOutputHeld
	case "in", "input":
		cmd.Latch = comm.LatchInputHeld
	default:
		return nil, fmt.Errorf("unknown latch %q", args[1])
	}
	if cmd.Values, err = ParseFloats(args[2:]); err != nil {
		return nil, err
	}
	if len(cmd.Values) > comm.MaxOverrideLen {
		return nil, fmt.Errorf("at most %d values", comm.MaxOverrideLen)
	}
	return cmd, nil
}

// ParseWatch parses: [DURATION|COUNT]. Zero count means until the duration.
func ParseWatch(args []string) (time.Duration, int, error) {
	if len(args) == 0 {
		return DefaultWatch, 0, nil
	}
	if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
		return DefaultWatch, n, nil
	}
	d, err := time.ParseDuration(args[0])
	if err != nil || d <= 0 {
		return 0, 0, fmt.Errorf("invalid duration or count %q", args[0])
	}
	return d, 0, nil
}
