package comm

import "fmt"

// LatchMode is the per-node override state.
type LatchMode byte

const (
	// LatchNormal runs the node on live inputs.
	LatchNormal LatchMode = 0
	// LatchOutputHeld pins the output; the task does not run.
	LatchOutputHeld LatchMode = 1
	// LatchInputHeld pins the input; the task still runs.
	LatchInputHeld LatchMode = 2
)

func (m LatchMode) String() string {
	switch m {
	case LatchNormal:
		return "normal"
	case LatchOutputHeld:
		return "output-held"
	case LatchInputHeld:
		return "input-held"
	default:
		return fmt.Sprintf("latch(%d)", byte(m))
	}
}

// IsValid reports whether m is a known mode.
func (m LatchMode) IsValid() bool {
	return m <= LatchInputHeld
}

// Command is a decoded setup instruction, applied by the scheduler.
type Command interface {
	command()
}

// InitCommand registers or replaces the task node TaskID.
type InitCommand struct {
	TaskID byte
	// RateMs is the minimum interval between runs in milliseconds.
	RateMs   uint16
	Key      string
	InputIDs []byte
}

// ConfigureCommand carries one chunk of parameters.
type ConfigureCommand struct {
	TaskID byte
	// Offset is the index of the first value within the parameter list.
	Offset int
	Values []float32
}

// OverrideCommand changes the latch mode and pins values.
type OverrideCommand struct {
	TaskID byte
	Latch  LatchMode
	Values []float32
}

// ResetCommand drops the whole graph.
type ResetCommand struct{}

func (*InitCommand) command()      {}
func (*ConfigureCommand) command() {}
func (*OverrideCommand) command()  {}
func (*ResetCommand) command()     {}

func (c *InitCommand) String() string {
	return fmt.Sprintf("init(%d %s rate=%dms inputs=%v)", c.TaskID, c.Key, c.RateMs, c.InputIDs)
}

func (c *ConfigureCommand) String() string {
	return fmt.Sprintf("configure(%d @%d %v)", c.TaskID, c.Offset, c.Values)
}

func (c *OverrideCommand) String() string {
	return fmt.Sprintf("override(%d %s %v)", c.TaskID, c.Latch, c.Values)
}

func (c *ResetCommand) String() string {
	return "reset"
}
