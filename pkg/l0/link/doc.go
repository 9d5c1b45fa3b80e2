// Package link frames reports over a raw byte stream such as a serial port.
//
// Both peers synchronise on a sequence number before exchanging frames.
// A frame is lost or reordered only as a whole: any sequence mismatch drops
// the peer back into syncing, and the partially received frame is discarded.
// There is no checksum; enable parity on the port if bit errors matter.
//
// Sync handshake:
//
//	A -> B  0xff <seqA>     sync request
//	B -> A  0xfe <seqB>     sync ack
//
// Frame:
//
//	<seq> <kind> <len> <payload...>
//
// len is below 0x80 and seq is in [1, 0xef].
package link
