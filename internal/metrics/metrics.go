// Package metrics contains the Prometheus-based implementations of the
// metrics interfaces of other packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the namespace of all metrics.
const Namespace = "agtoggle"

// Subsystem names.
const (
	subsystemStatus  = "status"
	subsystemEngine  = "engine"
	subsystemCommand = "command"
)

// BoolString returns "1" if cond is true and "0" otherwise.
func BoolString(cond bool) (s string) {
	if cond {
		return "1"
	}

	return "0"
}

// register registers every collector in reg and returns the first error.
func register(reg prometheus.Registerer, cs ...prometheus.Collector) (err error) {
	for _, c := range cs {
		err = reg.Register(c)
		if err != nil {
			return err
		}
	}

	return nil
}
