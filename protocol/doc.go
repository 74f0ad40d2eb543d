// Package protocol defines the TOSR0x single-byte command set and the decoding
// of the raw responses returned by the board.
//
// Every command is one byte. Relay positions are set with a two-dimensional table
// indexed by (position, relay), where relay 0 addresses all relays at once:
//
//	position 1: 'd' (all), 'e' (relay 1) ... 'l' (relay 8)
//	position 0: 'n' (all), 'o' (relay 1) ... 'v' (relay 8)
//
// Query commands answer with raw bytes: 'Z' returns the module id and software
// version, '[' returns one bitmask byte of relay states, 'b' returns a CR/LF
// terminated ASCII temperature and ']' returns the supply voltage payload.
package protocol
