package at

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts command outcomes and exchange latency per command id.
type Metrics struct {
	Commands *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the transport metrics and registers them on reg.
// Collectors that are already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cellmodem",
				Subsystem: "at",
				Name:      "commands_total",
				Help:      "Total number of AT commands executed by outcome",
			},
			[]string{"command", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cellmodem",
				Subsystem: "at",
				Name:      "command_duration_seconds",
				Help:      "AT command exchange duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 180},
			},
			[]string{"command"},
		),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.Commands, err = register(reg, m.Commands); err != nil {
		return nil, err
	}
	if m.Duration, err = register(reg, m.Duration); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

type instrumented struct {
	next    Transport
	metrics *Metrics
}

// Instrument wraps t so every Execute is recorded in m.
func Instrument(t Transport, m *Metrics) Transport {
	if m == nil {
		return t
	}
	return &instrumented{next: t, metrics: m}
}

func (i *instrumented) Execute(cmd Command, params string) (Response, error) {
	start := time.Now()
	resp, err := i.next.Execute(cmd, params)

	i.metrics.Duration.WithLabelValues(cmd.ID).Observe(time.Since(start).Seconds())
	i.metrics.Commands.WithLabelValues(cmd.ID, resp.Outcome.String()).Inc()

	return resp, err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
