package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amorphic/tosr0x/internal/boardsim"
	"github.com/amorphic/tosr0x/logger"
	"github.com/amorphic/tosr0x/relay"
	"github.com/amorphic/tosr0x/transport"
)

func TestRegistry(t *testing.T) {
	b := newBench(t)
	first, firstPort := b.attach("ttyUSB0", boardsim.New(2))
	second, secondPort := b.attach("ttyUSB1", boardsim.New(4))
	other, _ := b.attach("ttyUSB2", boardsim.New(2, boardsim.WithModuleID(3)))

	r := NewRegistry(b.options(WithRelayCount(2))...)
	t.Cleanup(func() { _ = r.Close() })

	found := r.Discover(context.Background(), []string{first, other})
	require.Len(t, found, 1)
	assert.Equal(t, 1, r.Len())

	m, ok := r.Get(first)
	require.True(t, ok)
	assert.Same(t, found[0], m)

	found = r.Discover(context.Background(), []string{first, second, other})
	require.Len(t, found, 1)
	assert.Equal(t, second, found[0].Address())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, b.openCount(first), "registered ports are not probed again")
	assert.Equal(t, 2, b.openCount(other))

	assert.Nil(t, r.Discover(context.Background(), []string{first, second}))

	addrs := map[string]bool{}
	r.Range(func(addr string, m *relay.Module) bool {
		addrs[addr] = true
		return true
	})
	assert.Equal(t, map[string]bool{first: true, second: true}, addrs)

	require.NoError(t, r.Remove(first))
	assert.True(t, firstPort.Closed())
	_, ok = r.Get(first)
	assert.False(t, ok)
	require.NoError(t, r.Remove(first))

	require.NoError(t, r.Close())
	assert.True(t, secondPort.Closed())
	assert.Zero(t, r.Len())
}

func TestRegistry_Add(t *testing.T) {
	srv, err := boardsim.NewServer(boardsim.New(2), boardsim.DefaultGreeting)
	require.NoError(t, err)
	defer srv.Close()

	n, err := transport.NewNetwork(srv.Host(), srv.Port())
	require.NoError(t, err)
	m, err := relay.NewModule(n, relay.WithRelayCount(2), relay.WithLogger(logger.Discard()))
	require.NoError(t, err)

	r := NewRegistry()
	assert.True(t, r.Add(m))
	assert.False(t, r.Add(m))
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(n.Address())
	require.True(t, ok)
	assert.Same(t, m, got)
	require.NoError(t, r.Close())
}
