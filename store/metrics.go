package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters for the store's write queue.
type Metrics struct {
	savesTotal   prometheus.Counter
	writesTotal  *prometheus.CounterVec
	writeLatency prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		savesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "garage",
			Subsystem: "booking_store",
			Name:      "saves_total",
			Help:      "Total saves accepted by the booking store",
		}),
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "garage",
			Subsystem: "booking_store",
			Name:      "slot_writes_total",
			Help:      "Total slot writes after coalescing saves",
		}, []string{"status"}),
		writeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "garage",
			Subsystem: "booking_store",
			Name:      "slot_write_seconds",
			Help:      "Latency of slot writes",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	reg.MustRegister(m.savesTotal, m.writesTotal, m.writeLatency)

	return m
}

func (m *Metrics) observeSave() {
	if m == nil {
		return
	}

	m.savesTotal.Inc()
}

func (m *Metrics) observeWrite(elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := "ok"

	if err != nil {
		status = "error"
	}

	m.writesTotal.WithLabelValues(status).Inc()
	m.writeLatency.Observe(elapsed.Seconds())
}
