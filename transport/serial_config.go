package transport

import (
	"fmt"
	"time"

	"github.com/amorphic/tosr0x/logger"
)

// Default serial settings. The FT232RL on the board runs at 9600 baud, 8N1.
const (
	DefaultSerialReadTimeout = 2 * time.Second
	DefaultInterByteTimeout  = 50 * time.Millisecond
	DefaultDrainTimeout      = 50 * time.Millisecond
	DefaultBaudRate          = 9600
)

// Serial read timeout limits.
const (
	MinSerialReadTimeout = 10 * time.Millisecond
	MaxSerialReadTimeout = 30 * time.Second
)

// SerialConfig holds the configuration of a Serial transport.
type SerialConfig struct {
	readTimeout      time.Duration
	interByteTimeout time.Duration
	drainTimeout     time.Duration
	baudRate         int
	opener           PortOpener
	logger           logger.Logger
}

// NewSerialConfig returns a SerialConfig with defaults, modified by opts.
func NewSerialConfig(opts ...SerialOption) (*SerialConfig, error) {
	cfg := &SerialConfig{
		readTimeout:      DefaultSerialReadTimeout,
		interByteTimeout: DefaultInterByteTimeout,
		drainTimeout:     DefaultDrainTimeout,
		baudRate:         DefaultBaudRate,
		opener:           OpenPort,
		logger:           logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// ReadTimeout returns how long a response is awaited.
func (cfg *SerialConfig) ReadTimeout() time.Duration { return cfg.readTimeout }

// InterByteTimeout returns the silence that ends a response once its first byte arrived.
func (cfg *SerialConfig) InterByteTimeout() time.Duration { return cfg.interByteTimeout }

// DrainTimeout returns the silence that ends draining of stale input.
func (cfg *SerialConfig) DrainTimeout() time.Duration { return cfg.drainTimeout }

// BaudRate returns the configured baud rate.
func (cfg *SerialConfig) BaudRate() int { return cfg.baudRate }

// GetLogger returns the configured logger.
func (cfg *SerialConfig) GetLogger() logger.Logger { return cfg.logger }

// SerialOption is a functional option for configuring a SerialConfig.
type SerialOption interface {
	apply(*SerialConfig) error
}

type serialOptFunc func(*SerialConfig) error

func (f serialOptFunc) apply(cfg *SerialConfig) error { return f(cfg) }

// WithReadTimeout sets how long a response is awaited, in the range
// [MinSerialReadTimeout, MaxSerialReadTimeout]. The default is 2 seconds.
func WithReadTimeout(d time.Duration) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if d < MinSerialReadTimeout || d > MaxSerialReadTimeout {
			return fmt.Errorf("transport: read timeout %v out of range [%v, %v]", d, MinSerialReadTimeout, MaxSerialReadTimeout)
		}
		cfg.readTimeout = d
		return nil
	})
}

// WithInterByteTimeout sets the silence that completes a response. It must be positive.
func WithInterByteTimeout(d time.Duration) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if d <= 0 {
			return fmt.Errorf("transport: inter-byte timeout %v must be positive", d)
		}
		cfg.interByteTimeout = d
		return nil
	})
}

// WithDrainTimeout sets the silence that completes draining of stale input. It must be positive.
func WithDrainTimeout(d time.Duration) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if d <= 0 {
			return fmt.Errorf("transport: drain timeout %v must be positive", d)
		}
		cfg.drainTimeout = d
		return nil
	})
}

// WithBaudRate sets the port speed.
func WithBaudRate(baud int) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if baud <= 0 {
			return fmt.Errorf("transport: invalid baud rate %d", baud)
		}
		cfg.baudRate = baud
		return nil
	})
}

// WithPortOpener replaces the function used to open the serial port.
func WithPortOpener(opener PortOpener) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if opener == nil {
			return fmt.Errorf("transport: port opener is nil")
		}
		cfg.opener = opener
		return nil
	})
}

// WithSerialLogger sets the logger of the transport.
func WithSerialLogger(l logger.Logger) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if l != nil {
			cfg.logger = l
		}
		return nil
	})
}
