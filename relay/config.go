package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/amorphic/tosr0x/logger"
	"github.com/amorphic/tosr0x/protocol"
)

// DefaultMinCommandInterval is the minimum gap between the end of one command and
// the start of the next. Shorter gaps make some boards drop commands.
const DefaultMinCommandInterval = 150 * time.Millisecond

// Config holds the configuration of a Module.
type Config struct {
	relayCount  int
	autoDetect  bool
	minInterval time.Duration
	logger      logger.Logger
	handler     EventHandler
	clock       clock.Clock
}

// NewConfig returns a Config with defaults, modified by opts.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		minInterval: DefaultMinCommandInterval,
		logger:      logger.GetLogger(),
		clock:       clock.New(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// RelayCount returns the relay count given by WithRelayCount, or 0 if none was given.
func (cfg *Config) RelayCount() int { return cfg.relayCount }

// AutoDetect reports whether the relay count is calibrated on construction.
func (cfg *Config) AutoDetect() bool { return cfg.autoDetect }

// MinCommandInterval returns the minimum gap between two commands.
func (cfg *Config) MinCommandInterval() time.Duration { return cfg.minInterval }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// Option is a functional option for configuring a Module.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithRelayCount sets the number of relays on the board. Counts above 8 are clamped
// to 8; counts below 1 are rejected. It takes precedence over WithAutoDetect.
func WithRelayCount(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 {
			return fmt.Errorf("relay: relay count %d must be at least 1", n)
		}
		cfg.relayCount = min(n, protocol.MaxRelays)
		return nil
	})
}

// WithAutoDetect enables relay count calibration when no count is given.
//
// Calibration switches every relay on and then off again.
func WithAutoDetect() Option {
	return optFunc(func(cfg *Config) error {
		cfg.autoDetect = true
		return nil
	})
}

// WithMinCommandInterval sets the minimum gap between two commands. The default is 150ms.
func WithMinCommandInterval(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 {
			return fmt.Errorf("relay: command interval %v must not be negative", d)
		}
		cfg.minInterval = d
		return nil
	})
}

// WithLogger sets the logger events are written to.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l != nil {
			cfg.logger = l
		}
		return nil
	})
}

// WithEventHandler sets a function called with every event after it is logged.
func WithEventHandler(h EventHandler) Option {
	return optFunc(func(cfg *Config) error {
		cfg.handler = h
		return nil
	})
}

// WithClock replaces the time source of the command rate limiter.
func WithClock(c clock.Clock) Option {
	return optFunc(func(cfg *Config) error {
		if c == nil {
			return errors.New("relay: clock is nil")
		}
		cfg.clock = c
		return nil
	})
}
