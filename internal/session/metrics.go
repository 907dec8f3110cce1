package session

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "housing"

// Metrics counts buffer traffic through a session.
type Metrics struct {
	Captures        prometheus.Counter
	CapturedRecords prometheus.Counter
	Sentinels       prometheus.Counter
	PreviewPages    prometheus.Counter
	PreviewSlots    prometheus.Counter
	PreviewRejected prometheus.Counter
	Imports         *prometheus.CounterVec
}

// NewMetrics creates the session counters and registers them on reg. A
// nil reg leaves them unregistered. Counters already registered by an
// earlier session on the same registry are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		Captures:        counter("captures_total", "Housing buffers decoded into the capture list."),
		CapturedRecords: counter("captured_records_total", "Furnishings decoded from housing buffers."),
		Sentinels:       counter("sentinel_buffers_total", "Housing buffers carrying the no-layout sentinel."),
		PreviewPages:    counter("preview_pages_total", "Pages synthesised into housing buffers."),
		PreviewSlots:    counter("preview_slots_total", "Slots synthesised into housing buffers."),
		PreviewRejected: counter("preview_rejected_total", "Stored furnishings skipped by the compatibility remap."),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "imports_total",
			Help:      "Layout imports by format and result.",
		}, []string{"format", "result"}),
	}
	if reg == nil {
		return m, nil
	}

	for _, dst := range []*prometheus.Counter{
		&m.Captures, &m.CapturedRecords, &m.Sentinels,
		&m.PreviewPages, &m.PreviewSlots, &m.PreviewRejected,
	} {
		if err := register(reg, *dst, func(existing prometheus.Collector) {
			*dst = existing.(prometheus.Counter)
		}); err != nil {
			return nil, err
		}
	}
	if err := register(reg, m.Imports, func(existing prometheus.Collector) {
		m.Imports = existing.(*prometheus.CounterVec)
	}); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector, reuse func(prometheus.Collector)) error {
	err := reg.Register(c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		reuse(are.ExistingCollector)
		return nil
	}
	return fmt.Errorf("registering session metrics: %w", err)
}
