package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type faultyTask struct {
	Noop
	err error
}

func (f *faultyTask) Fault() error { return f.err }

func TestRegistryFallsBackToNoop(t *testing.T) {
	r := NewRegistry()
	r.Register("ABC", func() Task { return &faultyTask{} })

	tk := r.New("XYZ")
	noop, ok := tk.(*Noop)
	require.True(t, ok)
	require.Equal(t, "XYZ", noop.Key)
	require.Equal(t, Dimensions{}, tk.Dimensions())
	tk.Run(nil, nil, 0)

	_, ok = r.New("ABC").(*faultyTask)
	require.True(t, ok)
	require.Equal(t, []string{"ABC"}, r.Keys())
}

func TestFaultOf(t *testing.T) {
	require.NoError(t, FaultOf(&Noop{}))
	err := errors.New("not connected")
	require.Equal(t, err, FaultOf(&faultyTask{err: err}))
	require.Equal(t, "1/2/3", Dimensions{Input: 1, Param: 2, Output: 3}.String())
}
