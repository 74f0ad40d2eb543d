// Package relay drives one TOSR0x relay board over a transport.Transport.
//
// A Module serializes its commands through a lock it owns for its whole life and
// keeps at least MinCommandInterval between two commands, because some boards
// (the WiFi LazyBone among them) silently drop commands that arrive too close
// together. Failures never panic; every operation returns an error that matches
// one of ErrTransportUnavailable, ErrProtocolMismatch, ErrInvalidArgument or
// ErrIOFailure with errors.Is.
//
// # Relay count
//
// The relay count is fixed when the module is created:
//
//   - WithRelayCount(n) trusts the caller (values above 8 are clamped).
//   - WithAutoDetect() runs the calibration sequence: every relay is switched to
//     position 1, the state byte is read back, and every relay is switched to
//     position 0 again. THIS TOGGLES ALL PHYSICAL RELAYS and may be unsafe for the
//     equipment wired to them, so it only ever runs when asked for. If any step
//     fails the module assumes 8 relays.
//   - Without either option the module assumes 8 relays and touches nothing.
//
// # Limitations
//
// The command lock belongs to a Module. Two Modules created for the same physical
// board are not coordinated with each other.
package relay
