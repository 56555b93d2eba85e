package cleanup

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bddkit"

// Metrics counts teardown activity. Each Engine owns its registry.
type Metrics struct {
	requests *prometheus.CounterVec
	logins   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates the cleanup counters on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "requests_total",
				Help:      "Cleanup requests issued during teardown, by outcome",
			},
			[]string{"outcome"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cleanup",
				Name:      "admin_logins_total",
				Help:      "Admin logins performed to authorize cleanup, by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(m.requests, m.logins)
	return m
}

// Registry exposes the registry for scraping or writing to a file.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) recordRequest(outcome Outcome) {
	m.requests.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) recordLogin(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.logins.WithLabelValues(result).Inc()
}

// Summary is a point-in-time copy of the counters.
type Summary struct {
	Requests map[Outcome]int
	Logins   map[string]int
}

// Total returns the number of cleanup requests sent.
func (s Summary) Total() int {
	n := 0
	for _, v := range s.Requests {
		n += v
	}
	return n
}

// Summary reads the current counter values from the registry.
func (m *Metrics) Summary() (Summary, error) {
	s := Summary{Requests: map[Outcome]int{}, Logins: map[string]int{}}
	families, err := m.registry.Gather()
	if err != nil {
		return s, err
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			value := int(metric.GetCounter().GetValue())
			for _, label := range metric.GetLabel() {
				switch {
				case label.GetName() == "outcome":
					s.Requests[Outcome(label.GetValue())] += value
				case label.GetName() == "result":
					s.Logins[label.GetValue()] += value
				}
			}
		}
	}
	return s, nil
}
