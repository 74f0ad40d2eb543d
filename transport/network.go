package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/amorphic/tosr0x/internal/pool"
	"github.com/amorphic/tosr0x/logger"
)

// DefaultNetworkTimeout bounds the dial and every read and write of a command cycle.
const DefaultNetworkTimeout = 5 * time.Second

// NetworkConfig holds the configuration of a Network transport.
type NetworkConfig struct {
	timeout      time.Duration
	skipGreeting bool
	logger       logger.Logger
}

// Timeout returns the connect/receive timeout.
func (cfg *NetworkConfig) Timeout() time.Duration { return cfg.timeout }

// SkipGreeting reports whether the connect greeting is left unread.
func (cfg *NetworkConfig) SkipGreeting() bool { return cfg.skipGreeting }

// GetLogger returns the configured logger.
func (cfg *NetworkConfig) GetLogger() logger.Logger { return cfg.logger }

// NetworkOption is a functional option for configuring a Network transport.
type NetworkOption interface {
	apply(*NetworkConfig) error
}

type networkOptFunc func(*NetworkConfig) error

func (f networkOptFunc) apply(cfg *NetworkConfig) error { return f(cfg) }

// WithNetworkTimeout sets the connect/receive timeout. The default is 5 seconds.
func WithNetworkTimeout(d time.Duration) NetworkOption {
	return networkOptFunc(func(cfg *NetworkConfig) error {
		if d <= 0 {
			return fmt.Errorf("transport: network timeout %v must be positive", d)
		}
		cfg.timeout = d
		return nil
	})
}

// WithoutGreeting disables reading the greeting after connect, for WiFi modules
// configured not to send one.
func WithoutGreeting() NetworkOption {
	return networkOptFunc(func(cfg *NetworkConfig) error {
		cfg.skipGreeting = true
		return nil
	})
}

// WithNetworkLogger sets the logger of the transport.
func WithNetworkLogger(l logger.Logger) NetworkOption {
	return networkOptFunc(func(cfg *NetworkConfig) error {
		if l != nil {
			cfg.logger = l
		}
		return nil
	})
}

// Network is a Transport to a board behind a WiFi module.
//
// Each Exchange opens its own TCP connection and closes it before returning, so no
// socket outlives a command.
type Network struct {
	addr   string
	cfg    *NetworkConfig
	logger logger.Logger
	dialer net.Dialer
	closed bool
}

var _ Transport = (*Network)(nil)

// NewNetwork creates a Network transport for the WiFi module at host:port.
func NewNetwork(host string, port int, opts ...NetworkOption) (*Network, error) {
	if host == "" {
		return nil, errors.New("transport: empty host")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("transport: port %d out of range [1, 65535]", port)
	}

	cfg := &NetworkConfig{
		timeout: DefaultNetworkTimeout,
		logger:  logger.GetLogger(),
	}
	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	return &Network{
		addr:   addr,
		cfg:    cfg,
		logger: cfg.logger.With("addr", addr),
		dialer: net.Dialer{Timeout: cfg.timeout},
	}, nil
}

// Kind returns KindNetwork.
func (n *Network) Kind() Kind { return KindNetwork }

// Address returns host:port.
func (n *Network) Address() string { return n.addr }

// Config returns the transport configuration.
func (n *Network) Config() *NetworkConfig { return n.cfg }

// Open re-enables a closed transport. No connection is made until a command is exchanged.
func (n *Network) Open() error {
	n.closed = false
	return nil
}

// Close prevents further exchanges.
func (n *Network) Close() error {
	n.closed = true
	return nil
}

// Exchange runs one command cycle: connect, discard the greeting, write cmd, read the
// response if required, close.
//
// A failing step after the connect does not skip the steps that follow it; all step
// errors are returned together. The connection is closed on every path.
func (n *Network) Exchange(cmd byte, responseRequired bool) ([]byte, error) {
	if n.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.timeout)
	defer cancel()

	conn, err := n.dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, n.addr, err)
	}

	resp, err := n.cycle(conn, cmd, responseRequired)
	if err != nil {
		n.logger.Debug("transport: network command failed", "cmd", fmt.Sprintf("%q", cmd), "error", err)
		return nil, err
	}

	return resp, nil
}

func (n *Network) cycle(conn net.Conn, cmd byte, responseRequired bool) (resp []byte, err error) {
	defer multierr.AppendInvoke(&err, multierr.Invoke(func() error {
		if cerr := conn.Close(); cerr != nil {
			return fmt.Errorf("%w: close: %v", ErrIO, cerr)
		}
		return nil
	}))

	bufp := pool.GetBuffer()
	defer pool.PutBuffer(bufp)
	buf := (*bufp)[:MaxResponseSize]

	if !n.cfg.skipGreeting {
		if g, rerr := n.read(conn, buf); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: read greeting: %v", ErrIO, rerr))
		} else {
			n.logger.Debug("transport: discarded greeting", "data", fmt.Sprintf("%q", buf[:g]))
		}
	}

	if werr := n.write(conn, cmd); werr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: write: %v", ErrIO, werr))
	} else {
		n.logger.Debug("transport: sent", "cmd", fmt.Sprintf("%q", cmd))
	}

	if responseRequired {
		m, rerr := n.read(conn, buf)
		switch {
		case rerr != nil:
			err = multierr.Append(err, fmt.Errorf("%w: read: %v", ErrIO, rerr))
		case m == 0:
			err = multierr.Append(err, fmt.Errorf("%w: empty response", ErrIO))
		default:
			resp = slices.Clone(buf[:m])
			n.logger.Debug("transport: received", "data", fmt.Sprintf("% x", resp))
		}
	}

	return resp, err
}

// read performs one Read bounded by the configured timeout.
func (n *Network) read(conn net.Conn, buf []byte) (int, error) {
	if err := conn.SetReadDeadline(time.Now().Add(n.cfg.timeout)); err != nil {
		return 0, err
	}

	return conn.Read(buf)
}

func (n *Network) write(conn net.Conn, cmd byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(n.cfg.timeout)); err != nil {
		return err
	}
	_, err := conn.Write([]byte{cmd})

	return err
}
