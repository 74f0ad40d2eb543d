package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"

	"github.com/amorphic/tosr0x/internal/boardsim"
	"github.com/amorphic/tosr0x/logger"
	"github.com/amorphic/tosr0x/relay"
	"github.com/amorphic/tosr0x/transport"
)

// bench is a directory of fake device nodes, each wired to a simulated port.
type bench struct {
	t   *testing.T
	dir string

	mu     sync.Mutex
	ports  map[string]*boardsim.Port
	boards map[string]*boardsim.Board
	opens  map[string]int
}

func newBench(t *testing.T) *bench {
	t.Helper()

	return &bench{
		t:      t,
		dir:    t.TempDir(),
		ports:  map[string]*boardsim.Port{},
		boards: map[string]*boardsim.Board{},
		opens:  map[string]int{},
	}
}

// node creates a device node without a port; opening it fails.
func (b *bench) node(name string) string {
	path := filepath.Join(b.dir, name)
	require.NoError(b.t, os.WriteFile(path, nil, 0o600))

	return path
}

func (b *bench) attach(name string, board *boardsim.Board) (string, *boardsim.Port) {
	path := b.node(name)
	port := boardsim.NewPort(board, []byte{0x00, 0xff})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.ports[path] = port
	b.boards[path] = board

	return path, port
}

func (b *bench) open(path string, _ int) (transport.Port, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.opens[path]++
	port, ok := b.ports[path]
	if !ok {
		return nil, errors.New("permission denied")
	}

	return port, nil
}

func (b *bench) openCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.opens[path]
}

func (b *bench) options(extra ...Option) []Option {
	return append([]Option{
		WithLogger(logger.Discard()),
		WithSerialOptions(transport.WithPortOpener(b.open)),
		WithModuleOptions(relay.WithMinCommandInterval(time.Millisecond)),
	}, extra...)
}

type eventLog struct {
	mu     sync.Mutex
	events []relay.Event
}

func (l *eventLog) handle(e relay.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, e)
}

func (l *eventLog) ofType(typ relay.EventType) []relay.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var events []relay.Event
	for _, e := range l.events {
		if e.Type == typ {
			events = append(events, e)
		}
	}

	return events
}

func closeAll(t *testing.T, modules []*relay.Module) {
	t.Cleanup(func() {
		for _, m := range modules {
			_ = m.Close()
		}
	})
}

func TestDiscoverModules(t *testing.T) {
	b := newBench(t)
	first, firstPort := b.attach("ttyUSB0", boardsim.New(4))
	other, otherPort := b.attach("ttyUSB1", boardsim.New(2, boardsim.WithModuleID(7)))
	silent, silentPort := b.attach("ttyUSB2", boardsim.New(2))
	silentPort.ShortWrites(true)
	locked := b.node("ttyUSB3")
	missing := filepath.Join(b.dir, "ttyUSB4")
	second, secondPort := b.attach("ttyUSB5", boardsim.New(2))

	events := &eventLog{}
	modules := DiscoverModules(context.Background(),
		[]string{first, other, silent, locked, missing, second},
		b.options(WithAutoDetect(), WithEventHandler(events.handle))...)
	closeAll(t, modules)

	require.Len(t, modules, 2)
	assert.Equal(t, first, modules[0].Address())
	assert.Equal(t, 4, modules[0].RelayCount())
	assert.Equal(t, second, modules[1].Address())
	assert.Equal(t, 2, modules[1].RelayCount())

	assert.False(t, firstPort.Closed())
	assert.False(t, secondPort.Closed())
	assert.True(t, otherPort.Closed(), "rejected candidates are closed")
	assert.True(t, silentPort.Closed(), "rejected candidates are closed")
	assert.Zero(t, b.openCount(missing))
	assert.Equal(t, 1, b.openCount(locked))

	assert.Equal(t, 1, firstPort.Resets(), "stale input is drained before probing")
	assert.Equal(t, DefaultProbeTimeout, firstPort.ReadTimeout())

	found := events.ofType(relay.EventDeviceFound)
	require.Len(t, found, 2)
	assert.Equal(t, first, found[0].Address)
	assert.Equal(t, 4, found[0].RelayCount)
	assert.Equal(t, second, found[1].Address)
	assert.Len(t, events.ofType(relay.EventRelayCountDetected), 2)

	require.NoError(t, modules[0].SetRelayPosition(3, relay.PositionOn))
	assert.Equal(t, byte(0x04), b.boards[first].States())
}

func TestDiscoverModules_NoRelayToggledByDefault(t *testing.T) {
	b := newBench(t)
	board := boardsim.New(4)
	path, _ := b.attach("ttyUSB0", board)

	events := &eventLog{}
	modules := DiscoverModules(context.Background(), []string{path}, b.options(WithEventHandler(events.handle))...)
	closeAll(t, modules)

	require.Len(t, modules, 1)
	assert.Equal(t, 8, modules[0].RelayCount())
	assert.Equal(t, []byte{'Z'}, board.Commands())
	assert.Len(t, events.ofType(relay.EventRelayCountAssumed), 1)
}

func TestDiscoverModules_RelayCount(t *testing.T) {
	b := newBench(t)
	board := boardsim.New(4)
	path, _ := b.attach("ttyUSB0", board)

	modules := DiscoverModules(context.Background(), []string{path}, b.options(WithRelayCount(3), WithAutoDetect())...)
	closeAll(t, modules)

	require.Len(t, modules, 1)
	assert.Equal(t, 3, modules[0].RelayCount())
	assert.Equal(t, []byte{'Z'}, board.Commands())
}

func TestDiscoverModules_Canceled(t *testing.T) {
	b := newBench(t)
	path, _ := b.attach("ttyUSB0", boardsim.New(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	modules := DiscoverModules(ctx, []string{path}, b.options()...)
	assert.Empty(t, modules)
	assert.Zero(t, b.openCount(path))
}

func TestProbe(t *testing.T) {
	b := newBench(t)
	other, _ := b.attach("ttyUSB0", boardsim.New(2, boardsim.WithModuleID(7)))
	silent, silentPort := b.attach("ttyUSB1", boardsim.New(2))
	silentPort.ShortWrites(true)
	locked := b.node("ttyUSB2")

	_, err := Probe(other, b.options()...)
	require.ErrorIs(t, err, relay.ErrProtocolMismatch)

	_, err = Probe(silent, b.options()...)
	require.ErrorIs(t, err, relay.ErrIOFailure)

	_, err = Probe(locked, b.options()...)
	require.ErrorIs(t, err, relay.ErrTransportUnavailable)

	_, err = Probe(filepath.Join(b.dir, "ttyUSB9"), b.options()...)
	require.ErrorIs(t, err, relay.ErrTransportUnavailable)

	good, _ := b.attach("ttyUSB3", boardsim.New(2))
	m, err := Probe(good, b.options(WithRelayCount(2))...)
	require.NoError(t, err)
	defer m.Close()

	id, err := m.GetIDVersion()
	require.NoError(t, err)
	assert.Equal(t, byte(15), id.ModuleID)
}

func TestDefaultCandidatePaths(t *testing.T) {
	prevList, prevPattern := listPorts, candidatePattern
	t.Cleanup(func() { listPorts, candidatePattern = prevList, prevPattern })

	candidatePattern = "/dev/ttyUSB*"
	listPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyUSB1", IsUSB: true},
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyUSB0", IsUSB: true},
			{Name: "/dev/ttyACM0", IsUSB: true},
			{Name: "/dev/ttyUSB7"},
		}, nil
	}
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, DefaultCandidatePaths())

	dir := t.TempDir()
	for _, name := range []string{"ttyUSB1", "ttyUSB0", "ttyS0"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	candidatePattern = filepath.Join(dir, "ttyUSB*")
	listPorts = func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("enumeration not supported")
	}
	assert.Equal(t, []string{filepath.Join(dir, "ttyUSB0"), filepath.Join(dir, "ttyUSB1")}, DefaultCandidatePaths())
}

func TestDiscoverModules_DefaultCandidates(t *testing.T) {
	b := newBench(t)
	path, _ := b.attach("ttyUSB0", boardsim.New(2))

	prevList, prevPattern := listPorts, candidatePattern
	t.Cleanup(func() { listPorts, candidatePattern = prevList, prevPattern })
	candidatePattern = filepath.Join(b.dir, "ttyUSB*")
	listPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{{Name: path, IsUSB: true}}, nil
	}

	modules := DiscoverModules(context.Background(), nil, b.options(WithRelayCount(2))...)
	closeAll(t, modules)

	require.Len(t, modules, 1)
	assert.Equal(t, path, modules[0].Address())
}

func TestDiscoverModules_SkipsBusyDevice(t *testing.T) {
	b := newBench(t)
	gps, gpsPort := b.attach("ttyUSB0", boardsim.New(2))
	gpsPort.Stream([]byte("$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\r\n"))
	board, _ := b.attach("ttyUSB1", boardsim.New(2))

	start := time.Now()
	modules := DiscoverModules(context.Background(), []string{gps, board},
		b.options(WithProbeTimeout(100*time.Millisecond), WithRelayCount(2))...)
	closeAll(t, modules)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, modules, 1)
	assert.Equal(t, board, modules[0].Address())
	assert.True(t, gpsPort.Closed())
}
