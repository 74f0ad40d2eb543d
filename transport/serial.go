package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/multierr"

	"github.com/amorphic/tosr0x/internal/pool"
	"github.com/amorphic/tosr0x/logger"
)

// Port is the subset of a serial port used by the Serial transport.
// A go.bug.st/serial Port satisfies it.
type Port interface {
	io.ReadWriteCloser
	// SetReadTimeout bounds every Read. A Read that times out returns 0, nil.
	SetReadTimeout(t time.Duration) error
	// ResetInputBuffer discards data received but not yet read.
	ResetInputBuffer() error
}

// PortOpener opens the serial device at path.
type PortOpener func(path string, baudRate int) (Port, error)

// OpenPort opens path as an 8N1 serial port with go.bug.st/serial.
func OpenPort(path string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return port, nil
}

// Serial is a Transport over a USB serial port. The port stays open from Open until Close.
type Serial struct {
	path   string
	cfg    *SerialConfig
	logger logger.Logger
	port   Port
}

var _ Transport = (*Serial)(nil)

// NewSerial creates a Serial transport for the device at path. The port is not opened.
func NewSerial(path string, opts ...SerialOption) (*Serial, error) {
	if path == "" {
		return nil, errors.New("transport: empty device path")
	}

	cfg, err := NewSerialConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Serial{
		path:   path,
		cfg:    cfg,
		logger: cfg.logger.With("device", path),
	}, nil
}

// Kind returns KindSerial.
func (s *Serial) Kind() Kind { return KindSerial }

// Address returns the device path.
func (s *Serial) Address() string { return s.path }

// Config returns the transport configuration.
func (s *Serial) Config() *SerialConfig { return s.cfg }

// Open opens the port and discards any bytes left from an earlier session.
//
// It returns an error wrapping ErrUnavailable if the path does not exist or the
// port cannot be opened.
func (s *Serial) Open() error {
	if s.port != nil {
		return nil
	}

	if err := checkDevicePath(s.path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, s.path, err)
	}

	port, err := s.cfg.opener(s.path, s.cfg.baudRate)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrUnavailable, s.path, err)
	}

	if err := port.SetReadTimeout(s.cfg.readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("%w: set read timeout on %s: %v", ErrUnavailable, s.path, err)
	}

	s.port = port
	s.logger.Debug("transport: serial port opened", "baudRate", s.cfg.baudRate, "readTimeout", s.cfg.readTimeout)

	if _, err := s.Drain(); err != nil {
		_ = s.Close()
		return fmt.Errorf("%w: drain %s: %v", ErrUnavailable, s.path, err)
	}

	return nil
}

// Drain discards buffered input, then reads and discards bytes until the line has
// been silent for the drain timeout. It returns the number of bytes read off the line.
//
// A line that is still busy after the read timeout is given up on with an error
// wrapping ErrIO; no TOSR0x board transmits unprompted.
func (s *Serial) Drain() (int, error) {
	if s.port == nil {
		return 0, ErrNotOpen
	}

	if err := s.port.ResetInputBuffer(); err != nil {
		s.logger.Debug("transport: reset input buffer failed", "error", err)
	}

	if err := s.port.SetReadTimeout(s.cfg.drainTimeout); err != nil {
		return 0, err
	}
	defer func() { _ = s.port.SetReadTimeout(s.cfg.readTimeout) }()

	bufp := pool.GetBuffer()
	defer pool.PutBuffer(bufp)

	total := 0
	deadline := time.Now().Add(s.cfg.readTimeout)
	for {
		n, err := s.port.Read(*bufp)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			return total, fmt.Errorf("%w: line still busy after %v, %d bytes drained", ErrIO, s.cfg.readTimeout, total)
		}
	}

	if total > 0 {
		s.logger.Debug("transport: drained stale input", "bytes", total)
	}

	return total, nil
}

// Send writes a single command byte.
func (s *Serial) Send(cmd byte) error {
	if s.port == nil {
		return ErrNotOpen
	}

	n, err := s.port.Write([]byte{cmd})
	if err != nil {
		return fmt.Errorf("%w: write: %v", ErrIO, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: wrote %d bytes, want 1", ErrIO, n)
	}

	s.logger.Debug("transport: sent", "cmd", fmt.Sprintf("%q", cmd))

	return nil
}

// Receive reads a response of at most maxBytes bytes.
//
// The first byte is awaited for the read timeout; the response ends when the line
// stays silent for the inter-byte timeout or maxBytes bytes have been read.
// Receiving nothing is an error.
func (s *Serial) Receive(maxBytes int) ([]byte, error) {
	if s.port == nil {
		return nil, ErrNotOpen
	}
	if maxBytes <= 0 {
		maxBytes = MaxResponseSize
	}

	buf := make([]byte, maxBytes)
	n, err := s.port.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrIO, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no response within %v", ErrIO, s.cfg.readTimeout)
	}

	if n < maxBytes {
		if err := s.port.SetReadTimeout(s.cfg.interByteTimeout); err != nil {
			return nil, fmt.Errorf("%w: set inter-byte timeout: %v", ErrIO, err)
		}
		defer func() { _ = s.port.SetReadTimeout(s.cfg.readTimeout) }()

		for n < maxBytes {
			m, err := s.port.Read(buf[n:])
			n += m
			if err != nil {
				return nil, fmt.Errorf("%w: read: %v", ErrIO, err)
			}
			if m == 0 {
				break
			}
		}
	}

	s.logger.Debug("transport: received", "data", fmt.Sprintf("% x", buf[:n]))

	return buf[:n], nil
}

// Exchange sends cmd and reads the response if one is required. A failed write does
// not skip the read, so a late response is not left behind for the next command.
func (s *Serial) Exchange(cmd byte, responseRequired bool) ([]byte, error) {
	if s.port == nil {
		return nil, ErrNotOpen
	}

	err := s.Send(cmd)
	if !responseRequired {
		return nil, err
	}

	resp, recvErr := s.Receive(MaxResponseSize)
	if err = multierr.Append(err, recvErr); err != nil {
		return nil, err
	}

	return resp, nil
}

// Close closes the port. Closing a closed transport is a no-op.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}

	err := s.port.Close()
	s.port = nil
	s.logger.Debug("transport: serial port closed")

	return err
}

// IsOpen reports whether the port is open.
func (s *Serial) IsOpen() bool {
	return s.port != nil
}
