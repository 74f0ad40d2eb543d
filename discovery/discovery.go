package discovery

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/amorphic/tosr0x/protocol"
	"github.com/amorphic/tosr0x/relay"
	"github.com/amorphic/tosr0x/transport"
)

var cmdGetIDVersion = protocol.MustEncode(protocol.GetIDVersion)

// DiscoverModules probes paths one after another and returns a Module for every
// TOSR0x board that answered. If paths is empty, DefaultCandidatePaths is used.
//
// Candidates that fail are skipped. The scan stops early when ctx is done; modules
// found until then are returned.
func DiscoverModules(ctx context.Context, paths []string, opts ...Option) []*relay.Module {
	cfg := newConfig(opts...)

	if len(paths) == 0 {
		paths = DefaultCandidatePaths()
		cfg.logger.Debug("discovery: scanning default candidates", "paths", paths)
	}

	modules := make([]*relay.Module, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			cfg.logger.Debug("discovery: scan stopped", "error", err)
			break
		}

		m, err := probe(cfg, path)
		if err != nil {
			cfg.logger.Debug("discovery: candidate rejected", "device", path, "error", err)
			continue
		}
		modules = append(modules, m)
	}

	return modules
}

// Probe checks a single device path and returns a Module if a TOSR0x board answered.
//
// The error wraps relay.ErrTransportUnavailable if the port cannot be opened,
// relay.ErrIOFailure if the board did not answer, and relay.ErrProtocolMismatch if
// the answer does not come from a TOSR0x board.
func Probe(path string, opts ...Option) (*relay.Module, error) {
	return probe(newConfig(opts...), path)
}

func probe(cfg *Config, path string) (m *relay.Module, err error) {
	s, err := transport.NewSerial(path, cfg.serialOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relay.ErrTransportUnavailable, err)
	}
	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("%w: %v", relay.ErrTransportUnavailable, err)
	}

	defer func() {
		if err != nil {
			err = multierr.Append(err, s.Close())
		}
	}()

	resp, err := s.Exchange(cmdGetIDVersion, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relay.ErrIOFailure, err)
	}

	id, err := protocol.ParseIDVersion(resp)
	if err != nil {
		return nil, err
	}

	m, err = relay.NewModule(s, cfg.moduleOptions()...)
	if err != nil {
		return nil, err
	}

	relay.Event{
		Type:       relay.EventDeviceFound,
		Address:    path,
		RelayCount: m.RelayCount(),
	}.Dispatch(cfg.logger.With("version", id.Version), cfg.handler)

	return m, nil
}
