package protocol

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrEmptyResponse is returned when a response holds no bytes to decode.
	ErrEmptyResponse = errors.New("protocol: empty response")

	// ErrProtocolMismatch is returned when an identity response does not come from a TOSR0x board.
	ErrProtocolMismatch = errors.New("protocol: unexpected identity response")
)

// IDVersion is the decoded GetIDVersion response.
type IDVersion struct {
	ModuleID byte
	Version  byte
}

// DecodeInts returns the value of each raw byte.
func DecodeInts(raw []byte) []int {
	ints := make([]int, len(raw))
	for i, b := range raw {
		ints[i] = int(b)
	}

	return ints
}

// DecodeBinaryString renders the first byte of raw in binary without leading zeros,
// so 0x05 becomes "101" and 0x00 becomes "0". Callers that need one digit per relay
// must left-pad the result.
func DecodeBinaryString(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmptyResponse
	}

	return strconv.FormatUint(uint64(raw[0]), 2), nil
}

// ParseIDVersion accepts a response of exactly two bytes whose first byte is ExpectedModuleID.
func ParseIDVersion(raw []byte) (IDVersion, error) {
	ints := DecodeInts(raw)
	if len(ints) != 2 {
		return IDVersion{}, fmt.Errorf("%w: got %d bytes, want 2", ErrProtocolMismatch, len(ints))
	}
	if ints[0] != ExpectedModuleID {
		return IDVersion{}, fmt.Errorf("%w: module id %d, want %d", ErrProtocolMismatch, ints[0], ExpectedModuleID)
	}

	return IDVersion{ModuleID: raw[0], Version: raw[1]}, nil
}
