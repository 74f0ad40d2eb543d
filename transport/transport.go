package transport

import "errors"

// Kind identifies the transport variant. It is fixed when a transport is constructed.
type Kind int

const (
	KindSerial Kind = iota + 1
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindSerial:
		return "serial"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Transport sends one command byte to a board and, when asked for, returns its response.
type Transport interface {
	// Open acquires the underlying resource. Opening an open transport is a no-op.
	Open() error
	// Exchange writes cmd and, if responseRequired is true, reads at most
	// MaxResponseSize bytes of response. A nil error with responseRequired set
	// always comes with at least one byte.
	Exchange(cmd byte, responseRequired bool) ([]byte, error)
	// Close releases the underlying resource.
	Close() error
	// Kind reports the transport variant.
	Kind() Kind
	// Address identifies the board: a device path or a host:port pair.
	Address() string
}

// MaxResponseSize is the largest response read for a single command.
const MaxResponseSize = 16

var (
	// ErrUnavailable indicates that the device path does not exist, the port could not be
	// opened, or the network module could not be reached.
	ErrUnavailable = errors.New("transport: device unavailable")

	// ErrIO indicates that a write or read failed in the middle of a command.
	ErrIO = errors.New("transport: i/o failure")

	// ErrNotOpen indicates that a command was issued before Open.
	ErrNotOpen = errors.New("transport: not open")

	// ErrClosed indicates that a command was issued after Close.
	ErrClosed = errors.New("transport: closed")
)
