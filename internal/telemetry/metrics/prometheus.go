package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus builds the registry served by the metrics HTTP server:
// build info, Go runtime and process collectors plus whatever the caller
// adds (the pgxpool collector, for one).
func SetupPrometheus(extraCollectors ...prometheus.Collector) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewBuildInfoCollector())
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	for _, collector := range extraCollectors {
		registry.MustRegister(collector)
	}

	return registry
}
