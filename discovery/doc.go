// Package discovery finds TOSR0x boards on USB serial ports.
//
// Each candidate device path is probed in turn: the port is opened with a short
// read timeout, stale input is drained, and the board is asked for its id. Only a
// two-byte answer starting with the TOSR0x module id is accepted. Rejected
// candidates are closed and skipped; a board that fails to answer is
// indistinguishable from a device of another kind.
//
// Probing writes a byte to every candidate port. Restrict the candidate list when
// other serial equipment is attached.
//
// Network modules cannot be discovered; create them with transport.NewNetwork and
// relay.NewModule.
package discovery
