// Package transport carries single-byte TOSR0x commands to a board and returns its raw response.
//
// Two variants implement the Transport interface:
//
//   - Serial holds a serial port (USB FT232RL) open for its whole lifetime. Buffered
//     bytes are drained when the port is opened so that stale data from a previous
//     session is never taken for a response.
//   - Network talks to a board fitted with the WiFi module. No connection is kept
//     between commands: every Exchange dials, discards the greeting the module sends
//     on connect, writes the command, optionally reads the response and closes.
//
// Transports are not goroutine-safe. The relay package serializes all commands of a
// module through a single lock.
package transport
