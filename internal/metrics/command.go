package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Command is the Prometheus-based implementation of the [command.Metrics]
// interface.
type Command struct {
	commands *prometheus.CounterVec
}

// NewCommand registers the command metrics in reg and returns a properly
// initialized *Command.
func NewCommand(namespace string, reg prometheus.Registerer) (m *Command, err error) {
	const commandsTotal = "commands_total"

	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      commandsTotal,
		Namespace: namespace,
		Subsystem: subsystemCommand,
		Help: "The number of commands by name. " +
			"success=1 means that the command succeeded.",
	}, []string{"name", "success"})

	err = reg.Register(cv)
	if err != nil {
		return nil, fmt.Errorf("registering metrics %q: %w", commandsTotal, err)
	}

	return &Command{commands: cv}, nil
}

// ObserveCommand implements the [command.Metrics] interface for *Command.
func (m *Command) ObserveCommand(_ context.Context, name string, err error) {
	m.commands.WithLabelValues(name, BoolString(err == nil)).Inc()
}
