package relay

import "github.com/amorphic/tosr0x/protocol"

// AllRelays addresses every relay of the board in SetRelayPosition.
const AllRelays = protocol.AllRelays

// Position is the position of a single relay.
type Position uint8

const (
	// PositionOff is position 0, the relay de-energized.
	PositionOff Position = 0
	// PositionOn is position 1, the relay energized.
	PositionOn Position = 1
)

// Valid reports whether p is PositionOff or PositionOn.
func (p Position) Valid() bool {
	return p == PositionOff || p == PositionOn
}

func (p Position) String() string {
	switch p {
	case PositionOff:
		return "off"
	case PositionOn:
		return "on"
	default:
		return "invalid"
	}
}
