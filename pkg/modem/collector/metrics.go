package collector

import (
	"github.com/LeoCommon/cellmodem/pkg/modem"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports the link quality of the latest snapshot.
type Metrics struct {
	SINR        prometheus.Gauge
	RSRQ        prometheus.Gauge
	RSRP        prometheus.Gauge
	TxPower     prometheus.Gauge
	Temperature prometheus.Gauge
	Polls       prometheus.Counter
	GPSFix      prometheus.Gauge
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cellmodem",
		Subsystem: "link",
		Name:      name,
		Help:      help,
	})
}

// NewMetrics creates the collector metrics and registers them on reg if reg is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SINR:        gauge("sinr_db", "Signal to interference plus noise ratio of the serving cell"),
		RSRQ:        gauge("rsrq_db", "Reference signal received quality of the serving cell"),
		RSRP:        gauge("rsrp_dbm", "Reference signal received power, mean of both primary receive paths"),
		TxPower:     gauge("tx_power_dbm", "Transmit power, not updated while the modem does not transmit"),
		Temperature: gauge("temperature_celsius", "Modem temperature"),
		GPSFix:      gauge("gps_fix", "1 if the last location was a valid fix"),
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cellmodem",
			Subsystem: "collector",
			Name:      "polls_total",
			Help:      "Number of published snapshots",
		}),
	}

	if reg == nil {
		return m, nil
	}

	for _, c := range []prometheus.Collector{m.SINR, m.RSRQ, m.RSRP, m.TxPower, m.Temperature, m.GPSFix, m.Polls} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(s *Snapshot) {
	if m == nil {
		return
	}

	m.Polls.Inc()

	if s.Status != nil {
		m.SINR.Set(s.Status.SINR)
		m.RSRQ.Set(s.Status.RSRQ)
		m.RSRP.Set(s.Status.PCCRSRP())
		m.Temperature.Set(float64(s.Status.Temperature))
		if s.Status.TxPower != modem.TxPowerUnknown {
			m.TxPower.Set(float64(s.Status.TxPower))
		}
	}

	if s.Location != nil {
		if s.Location.Valid {
			m.GPSFix.Set(1)
		} else {
			m.GPSFix.Set(0)
		}
	}
}
