// Package comm implements the report protocol between a host and the device.
//
// Every exchange is one fixed 64-byte report in each direction. Scalars are
// little-endian and floats are IEEE-754 single precision.
//
// Inbound (host to device), by byte 0:
//
//	255 1   init       2:id 3-4:rate ms 5-7:key 10:n 11..:input ids
//	255 2   configure  2:id 3:chunk index 4:n 5..:n floats
//	1       override   1:latch 2:id 3:n 4..:n floats
//	13      kill switch
//
// Bytes 60-63 of an inbound report carry the host time.
//
// Outbound (device to host), by byte 0:
//
//	255 255 status     2-5:writes 6-9:reads
//	1       feedback   1:latch 2:task id 3:n 4..:n floats 48-51:node time
//
// Bytes 52-63 of every outbound report carry device time, the last host
// time seen and the pipeline elapsed time.
//
// The device side runs a Pipeline ticked at a fixed rate; it shares a
// SetupQueue and a FeedbackTable with the scheduler. The host side uses
// Client.
package comm
