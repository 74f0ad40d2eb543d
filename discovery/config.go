package discovery

import (
	"time"

	"github.com/amorphic/tosr0x/logger"
	"github.com/amorphic/tosr0x/relay"
	"github.com/amorphic/tosr0x/transport"
)

// DefaultProbeTimeout is how long a candidate is given to answer the id request.
const DefaultProbeTimeout = 2 * time.Second

// Config holds the discovery configuration.
type Config struct {
	probeTimeout time.Duration
	relayCount   int
	autoDetect   bool
	logger       logger.Logger
	handler      relay.EventHandler
	serialOpts   []transport.SerialOption
	moduleOpts   []relay.Option
}

func newConfig(opts ...Option) *Config {
	cfg := &Config{
		probeTimeout: DefaultProbeTimeout,
		logger:       logger.GetLogger(),
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}

	return cfg
}

// ProbeTimeout returns how long a candidate is given to answer.
func (cfg *Config) ProbeTimeout() time.Duration { return cfg.probeTimeout }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// serialOptions returns the options of the probe transport. Caller options come last
// so they win.
func (cfg *Config) serialOptions() []transport.SerialOption {
	opts := []transport.SerialOption{
		transport.WithReadTimeout(cfg.probeTimeout),
		transport.WithSerialLogger(cfg.logger),
	}

	return append(opts, cfg.serialOpts...)
}

func (cfg *Config) moduleOptions() []relay.Option {
	opts := []relay.Option{
		relay.WithLogger(cfg.logger),
		relay.WithEventHandler(cfg.handler),
	}
	if cfg.relayCount > 0 {
		opts = append(opts, relay.WithRelayCount(cfg.relayCount))
	}
	if cfg.autoDetect {
		opts = append(opts, relay.WithAutoDetect())
	}

	return append(opts, cfg.moduleOpts...)
}

// Option is a functional option for configuring discovery.
type Option interface {
	apply(*Config)
}

type optFunc func(*Config)

func (f optFunc) apply(cfg *Config) { f(cfg) }

// WithProbeTimeout sets how long a candidate is given to answer. The default is 2 seconds.
func WithProbeTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) {
		if d > 0 {
			cfg.probeTimeout = d
		}
	})
}

// WithRelayCount gives every discovered module n relays. See relay.WithRelayCount.
func WithRelayCount(n int) Option {
	return optFunc(func(cfg *Config) { cfg.relayCount = n })
}

// WithAutoDetect calibrates the relay count of every discovered module that has no
// count given. Calibration toggles every relay of each board found.
func WithAutoDetect() Option {
	return optFunc(func(cfg *Config) { cfg.autoDetect = true })
}

// WithLogger sets the logger of discovery, its transports and its modules.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) {
		if l != nil {
			cfg.logger = l
		}
	})
}

// WithEventHandler sets the handler of discovery events and of the events of every
// discovered module.
func WithEventHandler(h relay.EventHandler) Option {
	return optFunc(func(cfg *Config) { cfg.handler = h })
}

// WithSerialOptions adds options to the serial transport of every candidate.
func WithSerialOptions(opts ...transport.SerialOption) Option {
	return optFunc(func(cfg *Config) { cfg.serialOpts = append(cfg.serialOpts, opts...) })
}

// WithModuleOptions adds options to every discovered module.
func WithModuleOptions(opts ...relay.Option) Option {
	return optFunc(func(cfg *Config) { cfg.moduleOpts = append(cfg.moduleOpts, opts...) })
}
