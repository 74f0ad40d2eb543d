package relay

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/amorphic/tosr0x/logger"
	"github.com/amorphic/tosr0x/protocol"
	"github.com/amorphic/tosr0x/transport"
)

var (
	cmdGetIDVersion   = protocol.MustEncode(protocol.GetIDVersion)
	cmdGetStates      = protocol.MustEncode(protocol.GetStates)
	cmdGetVoltage     = protocol.MustEncode(protocol.GetVoltage)
	cmdGetTemperature = protocol.MustEncode(protocol.GetTemperature)
)

// Module is one TOSR0x board reached through a transport.
//
// Module is safe for concurrent use; commands are sent one at a time.
type Module struct {
	mu          sync.Mutex
	t           transport.Transport
	cfg         *Config
	logger      logger.Logger
	relayCount  int
	lastCommand time.Time
	metrics     Metrics
}

// NewModule creates a Module on t, opening t if needed, and determines the relay count.
//
// The relay count comes from WithRelayCount, from calibration if WithAutoDetect is
// given, or defaults to 8. Calibration toggles every relay on the board.
func NewModule(t transport.Transport, opts ...Option) (*Module, error) {
	if t == nil {
		return nil, errors.New("relay: transport is nil")
	}

	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	if err := t.Open(); err != nil {
		return nil, classify(err)
	}

	m := &Module{
		t:           t,
		cfg:         cfg,
		logger:      cfg.logger.With("addr", t.Address(), "transport", t.Kind().String()),
		lastCommand: cfg.clock.Now(),
	}

	switch {
	case cfg.relayCount > 0:
		m.relayCount = cfg.relayCount
	case cfg.autoDetect:
		n, err := m.detectRelayCount()
		if err != nil {
			m.relayCount = protocol.MaxRelays
			m.emit(Event{Type: EventRelayCountFallback, RelayCount: m.relayCount, Err: err})
		} else {
			m.relayCount = n
			m.emit(Event{Type: EventRelayCountDetected, RelayCount: n})
		}
	default:
		m.relayCount = protocol.MaxRelays
		m.emit(Event{Type: EventRelayCountAssumed, RelayCount: m.relayCount})
	}

	return m, nil
}

// detectRelayCount switches all relays on, counts the digits of the state byte, and
// switches all relays off again.
func (m *Module) detectRelayCount() (int, error) {
	if err := m.SetRelayPosition(AllRelays, PositionOn); err != nil {
		return 0, err
	}

	resp, err := m.sendCommand(cmdGetStates, true)
	if err != nil {
		return 0, err
	}
	bits, err := protocol.DecodeBinaryString(resp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	if err := m.SetRelayPosition(AllRelays, PositionOff); err != nil {
		return 0, err
	}

	return len(bits), nil
}

// Address returns the device path or host:port of the board.
func (m *Module) Address() string { return m.t.Address() }

// Kind returns the transport kind.
func (m *Module) Kind() transport.Kind { return m.t.Kind() }

// RelayCount returns the number of relays, fixed at construction.
func (m *Module) RelayCount() int {
	if m.relayCount == 0 {
		// calibration in progress
		return protocol.MaxRelays
	}
	return m.relayCount
}

// Config returns the module configuration.
func (m *Module) Config() *Config { return m.cfg }

// Metrics returns the module counters.
func (m *Module) Metrics() *Metrics { return &m.metrics }

// SetRelayPosition moves relay to position. Relay 0 moves every relay.
//
// An error wrapping ErrInvalidArgument is returned, and nothing is sent, if relay is
// not in [0, RelayCount()] or position is not PositionOff or PositionOn.
func (m *Module) SetRelayPosition(relay int, position Position) error {
	if relay < protocol.AllRelays || relay > m.RelayCount() {
		return m.invalid(fmt.Errorf("%w: relay %d not in [0, %d]", ErrInvalidArgument, relay, m.RelayCount()))
	}
	if !position.Valid() {
		return m.invalid(fmt.Errorf("%w: position %d not in [0, 1]", ErrInvalidArgument, position))
	}

	code, err := protocol.SetPositionCode(int(position), relay)
	if err != nil {
		return m.invalid(fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}

	_, err = m.sendCommand(code, false)

	return err
}

// GetRelayPositions reads the position of every relay. The map holds exactly
// RelayCount() entries keyed from 1.
func (m *Module) GetRelayPositions() (map[int]Position, error) {
	resp, err := m.sendCommand(cmdGetStates, true)
	if err != nil {
		return nil, err
	}

	bits, err := protocol.DecodeBinaryString(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}

	count := m.RelayCount()
	if pad := count - len(bits); pad > 0 {
		bits = strings.Repeat("0", pad) + bits
	}

	// the last digit is relay 1
	positions := make(map[int]Position, count)
	for relay := 1; relay <= count; relay++ {
		positions[relay] = Position(bits[len(bits)-relay] - '0')
	}

	return positions, nil
}

// GetTemperature returns the board temperature reading as sent by the board, without
// its line terminator or other trailing whitespace. Boards without a sensor answer
// with an arbitrary string.
func (m *Module) GetTemperature() (string, error) {
	resp, err := m.sendCommand(cmdGetTemperature, true)
	if err != nil {
		return "", err
	}

	return strings.TrimRightFunc(string(resp), unicode.IsSpace), nil
}

// GetIDVersion reads the module id and firmware version.
func (m *Module) GetIDVersion() (protocol.IDVersion, error) {
	resp, err := m.sendCommand(cmdGetIDVersion, true)
	if err != nil {
		return protocol.IDVersion{}, err
	}

	return protocol.ParseIDVersion(resp)
}

// GetVoltage returns the raw supply voltage response.
func (m *Module) GetVoltage() ([]byte, error) {
	return m.sendCommand(cmdGetVoltage, true)
}

// Close releases the transport. Later commands fail with ErrTransportUnavailable.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.t.Close()
}

// sendCommand waits out the minimum command interval, exchanges cmd, and records the
// completion time whether or not the exchange succeeded.
func (m *Module) sendCommand(cmd byte, responseRequired bool) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if wait := m.cfg.minInterval - m.cfg.clock.Since(m.lastCommand); wait > 0 {
		m.metrics.incThrottleCount()
		m.cfg.clock.Sleep(wait)
	}

	resp, err := m.t.Exchange(cmd, responseRequired)
	m.lastCommand = m.cfg.clock.Now()
	m.metrics.incCommandCount()

	if err == nil && responseRequired && len(resp) == 0 {
		err = fmt.Errorf("%w: empty response", transport.ErrIO)
	}
	if err != nil {
		m.metrics.incCommandErrCount()
		err = classify(err)
		m.emit(Event{Type: EventCommandFailed, Command: cmd, Err: err})

		return nil, err
	}

	m.logger.Debug("relay: command done", "cmd", protocol.CommandName(cmd), "response", fmt.Sprintf("% x", resp))

	return resp, nil
}

func (m *Module) invalid(err error) error {
	m.metrics.incInvalidArgCount()
	m.emit(Event{Type: EventInvalidArgument, Err: err})

	return err
}

func (m *Module) emit(e Event) {
	e.Address = m.t.Address()
	e.Dispatch(m.cfg.logger, m.cfg.handler)
}
