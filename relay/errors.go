package relay

import (
	"errors"
	"fmt"

	"github.com/amorphic/tosr0x/protocol"
	"github.com/amorphic/tosr0x/transport"
)

var (
	// ErrTransportUnavailable indicates the device path is absent, the port cannot be
	// opened, the network module cannot be reached, or the module was closed.
	ErrTransportUnavailable = errors.New("relay: transport unavailable")

	// ErrProtocolMismatch indicates the board answered the identity probe unexpectedly.
	ErrProtocolMismatch = protocol.ErrProtocolMismatch

	// ErrInvalidArgument indicates an out-of-range relay index or position.
	// No command is sent when it is returned.
	ErrInvalidArgument = errors.New("relay: invalid argument")

	// ErrIOFailure indicates a write or read failed in the middle of a command.
	ErrIOFailure = errors.New("relay: i/o failure")
)

// classify maps a transport error onto the relay error taxonomy. The transport
// error text is kept, its identity is not.
func classify(err error) error {
	switch {
	case errors.Is(err, transport.ErrUnavailable),
		errors.Is(err, transport.ErrNotOpen),
		errors.Is(err, transport.ErrClosed):
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
}
