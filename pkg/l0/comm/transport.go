package comm

import (
	"sync/atomic"
)

// Transport is the raw report exchange. Recv and Send must not block: Recv
// returns 0 when nothing arrived.
type Transport interface {
	Available() bool
	Recv(p []byte) (int, error)
	Send(p []byte) (int, error)
}

// DefaultInboxSize is the number of reports an Inbox buffers.
const DefaultInboxSize = 16

// Inbox buffers reports delivered by a transport goroutine until the
// pipeline picks them up. Delivery never blocks; reports are dropped when
// the inbox is full.
type Inbox struct {
	ch      chan []byte
	dropped uint64
}

// NewInbox creates an Inbox holding up to size reports.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{ch: make(chan []byte, size)}
}

// Deliver queues a copy of a report.
func (b *Inbox) Deliver(report []byte) bool {
	cp := make([]byte, len(report))
	copy(cp, report)
	select {
	case b.ch <- cp:
		return true
	default:
		atomic.AddUint64(&b.dropped, 1)
		return false
	}
}

// Recv copies the oldest report into p. It returns 0 if none is queued.
func (b *Inbox) Recv(p []byte) int {
	select {
	case report := <-b.ch:
		return copy(p, report)
	default:
		return 0
	}
}

// Chan exposes the queued reports for blocking consumers.
func (b *Inbox) Chan() <-chan []byte {
	return b.ch
}

// Dropped returns the number of reports dropped on a full inbox.
func (b *Inbox) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}
