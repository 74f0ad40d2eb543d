package protocol

import (
	"errors"
	"fmt"
)

// Operation names a logical board command.
type Operation string

// The operations understood by the TOSR0x command set.
const (
	GetIDVersion   Operation = "getIdVersion"
	GetStates      Operation = "getStates"
	GetVoltage     Operation = "getVoltage"
	GetTemperature Operation = "getTemperature"
	SetPosition    Operation = "setPosition"
)

const (
	// ExpectedModuleID is the first byte a TOSR0x board returns to GetIDVersion.
	ExpectedModuleID = 15

	// MaxRelays is the largest relay count of the board family.
	MaxRelays = 8

	// AllRelays addresses every relay of the board in SetPosition.
	AllRelays = 0

	// MaxResponseSize is the number of bytes read for any response.
	MaxResponseSize = 16
)

// ErrInvalidOperation is returned when an operation, or one of its indices, has no wire code.
var ErrInvalidOperation = errors.New("protocol: invalid operation")

var simpleCommands = map[Operation]byte{
	GetIDVersion:   'Z',
	GetStates:      '[',
	GetVoltage:     ']',
	GetTemperature: 'b',
}

// setPositionCommands is indexed by [position][relay].
var setPositionCommands = [2][MaxRelays + 1]byte{
	{'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v'},
	{'d', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l'},
}

// Encode returns the wire byte for op.
//
// SetPosition requires exactly two indices, position (0 or 1) and relay (0..8).
// All other operations take no indices.
func Encode(op Operation, indices ...int) (byte, error) {
	if op == SetPosition {
		if len(indices) != 2 {
			return 0, fmt.Errorf("%w: %s takes position and relay, got %d indices", ErrInvalidOperation, op, len(indices))
		}
		return SetPositionCode(indices[0], indices[1])
	}

	code, ok := simpleCommands[op]
	if !ok {
		return 0, fmt.Errorf("%w: unknown operation %q", ErrInvalidOperation, op)
	}
	if len(indices) != 0 {
		return 0, fmt.Errorf("%w: %s takes no indices", ErrInvalidOperation, op)
	}

	return code, nil
}

// SetPositionCode returns the wire byte that moves relay to position.
// A relay of AllRelays moves every relay.
func SetPositionCode(position int, relay int) (byte, error) {
	if position < 0 || position > 1 {
		return 0, fmt.Errorf("%w: position %d not in [0, 1]", ErrInvalidOperation, position)
	}
	if relay < AllRelays || relay > MaxRelays {
		return 0, fmt.Errorf("%w: relay %d not in [0, %d]", ErrInvalidOperation, relay, MaxRelays)
	}

	return setPositionCommands[position][relay], nil
}

// MustEncode is like Encode but panics on error. It is meant for constant operations.
func MustEncode(op Operation, indices ...int) byte {
	code, err := Encode(op, indices...)
	if err != nil {
		panic(err)
	}
	return code
}

// CommandName returns a readable name for a wire byte, e.g. "setPosition[1][3]".
// Unknown bytes are rendered as their hex value.
func CommandName(code byte) string {
	for op, c := range simpleCommands {
		if c == code {
			return string(op)
		}
	}
	for position, relays := range setPositionCommands {
		for relay, c := range relays {
			if c == code {
				return fmt.Sprintf("%s[%d][%d]", SetPosition, position, relay)
			}
		}
	}

	return fmt.Sprintf("0x%02x", code)
}
