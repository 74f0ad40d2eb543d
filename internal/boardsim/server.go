package boardsim

import (
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
)

// DefaultGreeting is what the simulated WiFi module writes on every new connection.
const DefaultGreeting = "*HELLO*"

// Server serves a Board over TCP the way the WiFi module does: it writes a greeting
// on connect, then answers every command byte it reads.
type Server struct {
	board    *Board
	greeting []byte
	ln       net.Listener
	wg       sync.WaitGroup
	conns    atomic.Int64
	silent   atomic.Bool
}

// NewServer starts a server for board on a random loopback port. An empty greeting
// disables the greeting.
func NewServer(board *Board, greeting string) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{board: board, greeting: []byte(greeting), ln: ln}
	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.ln.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return p
}

// Connections returns the number of connections accepted so far.
func (s *Server) Connections() int {
	return int(s.conns.Load())
}

// SetSilent makes the server swallow commands without answering them.
func (s *Server) SetSilent(silent bool) {
	s.silent.Store(silent)
}

// Close stops the listener and waits for open connections to finish.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()

	return err
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.conns.Add(1)

		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	if len(s.greeting) > 0 {
		if _, err := conn.Write(s.greeting); err != nil {
			return
		}
	}

	buf := make([]byte, 1)
	for {
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		resp := s.board.Handle(buf[0])
		if len(resp) == 0 || s.silent.Load() {
			continue
		}
		if _, err := conn.Write(resp); err != nil {
			return
		}
	}
}
