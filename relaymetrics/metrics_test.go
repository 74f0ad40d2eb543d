package relaymetrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amorphic/tosr0x/internal/boardsim"
	"github.com/amorphic/tosr0x/logger"
	"github.com/amorphic/tosr0x/relay"
	"github.com/amorphic/tosr0x/transport"
)

func newNetworkModule(t *testing.T, relays int) *relay.Module {
	t.Helper()

	srv, err := boardsim.NewServer(boardsim.New(relays), boardsim.DefaultGreeting)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	n, err := transport.NewNetwork(srv.Host(), srv.Port(), transport.WithNetworkTimeout(time.Second))
	require.NoError(t, err)

	m, err := relay.NewModule(n,
		relay.WithRelayCount(relays),
		relay.WithMinCommandInterval(time.Millisecond),
		relay.WithLogger(logger.Discard()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return m
}

func TestCollector(t *testing.T) {
	m := newNetworkModule(t, 2)
	require.NoError(t, m.SetRelayPosition(1, relay.PositionOn))
	_, err := m.GetRelayPositions()
	require.NoError(t, err)
	require.ErrorIs(t, m.SetRelayPosition(3, relay.PositionOn), relay.ErrInvalidArgument)

	c := NewCollector("tosr0x", ModuleList{m})
	assert.Equal(t, 5, testutil.CollectAndCount(c))

	addr := m.Address()
	expected := `
# HELP tosr0x_relay_commands_total Commands sent to the board.
# TYPE tosr0x_relay_commands_total counter
tosr0x_relay_commands_total{addr="` + addr + `",transport="network"} 2
# HELP tosr0x_relay_invalid_arguments_total Calls rejected before a command was sent.
# TYPE tosr0x_relay_invalid_arguments_total counter
tosr0x_relay_invalid_arguments_total{addr="` + addr + `",transport="network"} 1
# HELP tosr0x_relay_count Number of relays on the board.
# TYPE tosr0x_relay_count gauge
tosr0x_relay_count{addr="` + addr + `",transport="network"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"tosr0x_relay_commands_total", "tosr0x_relay_invalid_arguments_total", "tosr0x_relay_count"))
}

func TestCollector_NoModules(t *testing.T) {
	c := NewCollector("", ModuleList{})
	assert.Zero(t, testutil.CollectAndCount(c))
}

func TestHandler(t *testing.T) {
	m := newNetworkModule(t, 4)
	reg := NewRegistry("tosr0x", ModuleList{m})

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tosr0x_relay_count")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
