// Package transport groups the comm.Transport implementations.
//
//   - serial: reports framed by package link over a serial port.
//   - mqtt: one report per message on <device-id>/in and <device-id>/out.
//   - websocket: one report per binary message, the device serving and the
//     host dialing.
//
// Each transport is also a framework.Runnable which must be running for the
// transport to become available.
package transport
