package relay

import "sync/atomic"

// Metrics contains atomic counters for a Module.
// Metrics can be used as the value of a prometheus CounterFunc, see package relaymetrics.
type Metrics struct {
	// CommandCount indicates the number of commands handed to the transport.
	CommandCount atomic.Uint64
	// CommandErrCount indicates the number of commands that failed.
	CommandErrCount atomic.Uint64
	// ThrottleCount indicates the number of commands delayed to keep the minimum interval.
	ThrottleCount atomic.Uint64
	// InvalidArgCount indicates the number of calls rejected before reaching the transport.
	InvalidArgCount atomic.Uint64
}

func (m *Metrics) incCommandCount() {
	m.CommandCount.Add(1)
}

func (m *Metrics) incCommandErrCount() {
	m.CommandErrCount.Add(1)
}

func (m *Metrics) incThrottleCount() {
	m.ThrottleCount.Add(1)
}

func (m *Metrics) incInvalidArgCount() {
	m.InvalidArgCount.Add(1)
}
