package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrShortReport indicates a report smaller than ReportSize.
	ErrShortReport = errors.New("short report")
	// ErrUnknownReport indicates an unrecognised report type.
	ErrUnknownReport = errors.New("unknown report type")
	// ErrTooManyValues indicates a payload exceeding the report capacity.
	ErrTooManyValues = errors.New("too many values")
	// ErrUnavailable indicates the transport has no peer.
	ErrUnavailable = errors.New("transport unavailable")
)

// OutOfRangeError is returned by ByteBuffer on access past its end.
type OutOfRangeError struct {
	Offset int
	Size   int
}

// Error implements error.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("access of %d bytes at %d out of range", e.Size, e.Offset)
}

// ReportTypeError reports an unrecognised report header.
type ReportTypeError struct {
	Type    byte
	SubType byte
}

// Error implements error.
func (e *ReportTypeError) Error() string {
	return fmt.Sprintf("%v: %d/%d", ErrUnknownReport, e.Type, e.SubType)
}
