package scheduler

import "github.com/prometheus/client_golang/prometheus"

// metrics bundles the in-process counters a Scheduler updates as it issues
// and resolves payments. Nothing here is exposed over HTTP: the simulator
// opens no network ports (see spec.md §6). The collectors are only
// registered with the configured Registerer; nothing in the simulator reads
// them back or logs them.
type metrics struct {
	issued    prometheus.Counter
	noPath    prometheus.Counter
	succeeded prometheus.Counter
	failed    prometheus.Counter
	inFlight  prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lnsim",
			Subsystem: "scheduler",
			Name:      "payments_issued_total",
			Help:      "Payments for which a path was found and a manager was started.",
		}),
		noPath: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lnsim",
			Subsystem: "scheduler",
			Name:      "payments_no_path_total",
			Help:      "Sampled (sender, recipient) pairs for which no feasible path existed.",
		}),
		succeeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lnsim",
			Subsystem: "scheduler",
			Name:      "payments_succeeded_total",
			Help:      "Payments whose manager reached terminal success.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lnsim",
			Subsystem: "scheduler",
			Name:      "payments_failed_total",
			Help:      "Payments whose manager reached terminal failure.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lnsim",
			Subsystem: "scheduler",
			Name:      "payments_in_flight",
			Help:      "Payment managers currently running.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.issued, m.noPath, m.succeeded, m.failed, m.inFlight)
	}

	return m
}
