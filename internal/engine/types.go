package engine

import (
	"time"

	"github.com/tonhe/agtoggle/internal/adguard"
	"github.com/tonhe/agtoggle/internal/indicator"
	"github.com/tonhe/agtoggle/internal/status"
)

// LatencySample is one status query outcome of a single instance.
type LatencySample struct {
	Timestamp time.Time
	Latency   time.Duration
	OK        bool
}

// InstanceStats holds the latest state and query history of one instance.
type InstanceStats struct {
	Name      string
	Status    status.Status
	Info      *adguard.StatusInfo
	PollError error
	Latency   time.Duration
	History   *RingBuffer[LatencySample]
	LastPoll  time.Time
}

// Snapshot is a point-in-time view of the last reconciliation.
type Snapshot struct {
	// Combined is the combined status of the last poll.
	Combined status.Status

	// Indicator is the symbol displayed after the last poll.
	Indicator indicator.Symbol

	// Instances are in configuration order.
	Instances []InstanceStats

	// RequestID identifies the last poll in instance request headers.
	RequestID string

	// ConfigError is set when the instance configuration could not be read
	// or is empty.
	ConfigError error

	LastPoll   time.Time
	PollCount  int
	ErrorCount int

	// Wrote is true if the last poll changed the indicator.
	Wrote bool
}

// EngineState represents the lifecycle state of the reconciliation loop.
type EngineState int

const (
	EngineStopped EngineState = iota
	EngineRunning
	EngineError
)

// String implements the fmt.Stringer interface for EngineState.
func (s EngineState) String() string {
	switch s {
	case EngineRunning:
		return "running"
	case EngineError:
		return "error"
	default:
		return "stopped"
	}
}

// EngineInfo provides summary information about the reconciliation loop.
type EngineInfo struct {
	State      EngineState
	LastPoll   time.Time
	PollCount  int
	ErrorCount int
}

// EngineEvent is emitted to subscribers after each poll.
type EngineEvent struct {
	Snapshot *Snapshot
}
