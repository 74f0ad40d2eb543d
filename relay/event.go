package relay

import (
	"github.com/amorphic/tosr0x/logger"
	"github.com/amorphic/tosr0x/protocol"
)

// EventType identifies what an Event reports.
type EventType int

const (
	// EventDeviceFound reports a board accepted by discovery.
	EventDeviceFound EventType = iota + 1
	// EventCommandFailed reports a command that failed in the transport.
	EventCommandFailed
	// EventInvalidArgument reports a call rejected before reaching the transport.
	EventInvalidArgument
	// EventRelayCountDetected reports the result of calibration.
	EventRelayCountDetected
	// EventRelayCountFallback reports a failed calibration; 8 relays are assumed.
	EventRelayCountFallback
	// EventRelayCountAssumed reports that 8 relays are assumed because no count was given.
	EventRelayCountAssumed
)

func (t EventType) String() string {
	switch t {
	case EventDeviceFound:
		return "device found"
	case EventCommandFailed:
		return "command failed"
	case EventInvalidArgument:
		return "invalid argument"
	case EventRelayCountDetected:
		return "relay count detected"
	case EventRelayCountFallback:
		return "relay count fallback"
	case EventRelayCountAssumed:
		return "relay count assumed"
	default:
		return "unknown"
	}
}

// Event is a structured notification from a Module or from discovery.
type Event struct {
	Type       EventType
	Address    string
	RelayCount int
	// Command is the wire byte involved, 0 if none.
	Command byte
	Err     error
}

// EventHandler receives events. It is called synchronously, with the module lock held
// for command events, so it must not call back into the Module.
type EventHandler func(Event)

// Level returns the level the event is logged at.
func (e Event) Level() logger.Level {
	switch e.Type {
	case EventCommandFailed, EventInvalidArgument:
		return logger.ErrorLevel
	case EventRelayCountFallback, EventRelayCountAssumed:
		return logger.WarnLevel
	default:
		return logger.InfoLevel
	}
}

// Log writes the event to l.
func (e Event) Log(l logger.Logger) {
	kv := []any{"event", e.Type.String(), "addr", e.Address}
	if e.RelayCount > 0 {
		kv = append(kv, "relayCount", e.RelayCount)
	}
	if e.Command != 0 {
		kv = append(kv, "cmd", protocol.CommandName(e.Command))
	}
	if e.Err != nil {
		kv = append(kv, "error", e.Err)
	}

	msg := "relay: " + e.Type.String()
	switch e.Level() {
	case logger.ErrorLevel:
		l.Error(msg, kv...)
	case logger.WarnLevel:
		l.Warn(msg, kv...)
	default:
		l.Info(msg, kv...)
	}
}

// Dispatch logs the event to l and passes it to h if h is not nil.
func (e Event) Dispatch(l logger.Logger, h EventHandler) {
	e.Log(l)
	if h != nil {
		h(e)
	}
}
