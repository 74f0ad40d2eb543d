package discovery

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/multierr"

	"github.com/amorphic/tosr0x/relay"
)

// Registry keeps discovered modules by address.
//
// Paths already held by the registry are not probed again, so an open port is never
// reopened by a later scan. Modules created outside the registry are not known to it
// unless added with Add.
type Registry struct {
	opts    []Option
	modules *xsync.MapOf[string, *relay.Module]
}

// NewRegistry creates an empty registry. opts are used for every scan.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		opts:    opts,
		modules: xsync.NewMapOf[string, *relay.Module](),
	}
}

// Discover probes paths not yet in the registry and registers the modules found,
// which are also returned. If paths is empty, DefaultCandidatePaths is used.
func (r *Registry) Discover(ctx context.Context, paths []string) []*relay.Module {
	if len(paths) == 0 {
		paths = DefaultCandidatePaths()
	}

	pending := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, ok := r.modules.Load(path); !ok {
			pending = append(pending, path)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	found := DiscoverModules(ctx, pending, r.opts...)
	for _, m := range found {
		r.modules.Store(m.Address(), m)
	}

	return found
}

// Add registers m under its address. It returns false, leaving the registry
// unchanged, if the address is taken.
func (r *Registry) Add(m *relay.Module) bool {
	_, loaded := r.modules.LoadOrStore(m.Address(), m)
	return !loaded
}

// Get returns the module at addr.
func (r *Registry) Get(addr string) (*relay.Module, bool) {
	return r.modules.Load(addr)
}

// Range calls f for every module until f returns false.
func (r *Registry) Range(f func(addr string, m *relay.Module) bool) {
	r.modules.Range(f)
}

// Len returns the number of registered modules.
func (r *Registry) Len() int {
	return r.modules.Size()
}

// Remove unregisters and closes the module at addr. Removing an unknown address is a no-op.
func (r *Registry) Remove(addr string) error {
	m, ok := r.modules.LoadAndDelete(addr)
	if !ok {
		return nil
	}

	return m.Close()
}

// Close unregisters and closes every module, returning all close errors.
func (r *Registry) Close() error {
	var err error
	r.modules.Range(func(addr string, m *relay.Module) bool {
		r.modules.Delete(addr)
		err = multierr.Append(err, m.Close())
		return true
	})

	return err
}
