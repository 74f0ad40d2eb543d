package boardsim

import (
	"errors"
	"sync"
	"time"
)

// ErrPortClosed is returned by Port operations after Close.
var ErrPortClosed = errors.New("boardsim: port closed")

// Port emulates the serial side of a Board. Reads never block: when no response is
// pending they return 0, nil like a serial port whose read timeout expired.
type Port struct {
	mu          sync.Mutex
	board       *Board
	pending     []byte
	closed      bool
	readTimeout time.Duration
	resets      int
	failWrite   error
	shortWrite  bool
	stream      []byte
	reads       int
}

// NewPort returns a port attached to board. stale is left in the input buffer as if
// received before the port was opened.
func NewPort(board *Board, stale []byte) *Port {
	return &Port{board: board, pending: append([]byte(nil), stale...)}
}

// Write hands every byte to the board and queues the responses.
func (p *Port) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	if p.failWrite != nil {
		return 0, p.failWrite
	}
	if p.shortWrite {
		return 0, nil
	}
	for _, b := range data {
		p.pending = append(p.pending, p.board.Handle(b)...)
	}

	return len(data), nil
}

// Read returns pending response bytes.
func (p *Port) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPortClosed
	}
	p.reads++
	if len(p.pending) == 0 && len(p.stream) > 0 {
		// one chunk per millisecond, roughly a busy 9600 baud line
		time.Sleep(time.Millisecond)
		return copy(buf, p.stream), nil
	}
	n := copy(buf, p.pending)
	p.pending = p.pending[n:]

	return n, nil
}

// SetReadTimeout records the timeout; reads never block.
func (p *Port) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.readTimeout = t
	return nil
}

// ResetInputBuffer drops pending bytes.
func (p *Port) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.resets++
	p.pending = nil
	return nil
}

// Close closes the port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPortClosed
	}
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *Port) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

// ReadTimeout returns the last timeout set.
func (p *Port) ReadTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.readTimeout
}

// Resets returns how many times the input buffer was reset.
func (p *Port) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.resets
}

// FailWrites makes every following Write fail with err; nil restores normal writes.
func (p *Port) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failWrite = err
}

// ShortWrites makes every following Write report zero bytes written.
func (p *Port) ShortWrites(short bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.shortWrite = short
}

// Inject appends data to the input buffer, as if the board sent it unprompted.
func (p *Port) Inject(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = append(p.pending, data...)
}

// Stream makes every Read with nothing pending return data, like a device that
// transmits without pause. nil stops the stream.
func (p *Port) Stream(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stream = append([]byte(nil), data...)
}

// Reads returns how many times Read was called.
func (p *Port) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.reads
}
