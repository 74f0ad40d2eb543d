// Package boardsim simulates a TOSR0x relay board for tests and examples.
//
// A Board interprets the single-byte command set. It can be reached through a
// Server (WiFi module emulation over TCP) or a Port (serial port emulation).
package boardsim

import (
	"sync"
	"time"
)

const (
	defaultModuleID = 15
	defaultVersion  = 4
)

// Record is one command received by a Board.
type Record struct {
	Cmd byte
	At  time.Time
}

// Board is a simulated relay board. It is safe for concurrent use.
type Board struct {
	mu          sync.Mutex
	relays      int
	states      byte
	moduleID    byte
	version     byte
	temperature string
	voltage     []byte
	stateMask   byte
	records     []Record
}

// Option configures a Board.
type Option func(*Board)

// WithModuleID sets the id answered to 'Z'. The default is 15.
func WithModuleID(id byte) Option {
	return func(b *Board) { b.moduleID = id }
}

// WithTemperature sets the temperature answered to 'b', without line ending.
func WithTemperature(t string) Option {
	return func(b *Board) { b.temperature = t }
}

// WithVoltage sets the payload answered to ']'.
func WithVoltage(v []byte) Option {
	return func(b *Board) { b.voltage = v }
}

// WithStates sets the initial relay bitmask.
func WithStates(states byte) Option {
	return func(b *Board) { b.states = states }
}

// WithStateMask forces bits on in every state byte reported, to mimic boards whose
// state byte carries more bits than relays.
func WithStateMask(mask byte) Option {
	return func(b *Board) { b.stateMask = mask }
}

// New creates a board with the given number of relays (1..8).
func New(relays int, opts ...Option) *Board {
	b := &Board{
		relays:      relays,
		moduleID:    defaultModuleID,
		version:     defaultVersion,
		temperature: "23.5",
		voltage:     []byte{0x7d},
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Handle applies cmd and returns the board's response, nil for commands without one.
func (b *Board) Handle(cmd byte) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = append(b.records, Record{Cmd: cmd, At: time.Now()})

	switch {
	case cmd == 'Z':
		return []byte{b.moduleID, b.version}
	case cmd == '[':
		return []byte{b.states | b.stateMask}
	case cmd == ']':
		return append([]byte(nil), b.voltage...)
	case cmd == 'b':
		return []byte(b.temperature + "\r\n")
	case cmd >= 'd' && cmd <= 'l':
		b.set(int(cmd-'d'), true)
	case cmd >= 'n' && cmd <= 'v':
		b.set(int(cmd-'n'), false)
	}

	return nil
}

func (b *Board) set(relay int, on bool) {
	var mask byte
	if relay == 0 {
		mask = byte(1<<b.relays - 1)
	} else if relay <= b.relays {
		mask = 1 << (relay - 1)
	}

	if on {
		b.states |= mask
	} else {
		b.states &^= mask
	}
}

// States returns the relay bitmask, bit 0 being relay 1.
func (b *Board) States() byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.states
}

// Records returns a copy of every command received so far.
func (b *Board) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Record(nil), b.records...)
}

// Commands returns the command bytes received so far.
func (b *Board) Commands() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	cmds := make([]byte, len(b.records))
	for i, r := range b.records {
		cmds[i] = r.Cmd
	}

	return cmds
}

// Reset forgets the received commands.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = nil
}
