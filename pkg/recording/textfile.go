package recording

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"VoronMonitor/pkg/metrics"
)

const metricPrefix = "voron_"

// TextfileSink exposes the latest record as gauges in a node_exporter
// textfile. Only fields present in the latest record are written, so a probe
// that went quiet does not leave a stale value behind.
type TextfileSink struct {
	path   string
	gauges map[string]prometheus.Gauge
	cycles prometheus.Counter
	mu     sync.Mutex
}

// NewTextfileSink prepares one gauge per numeric or boolean column.
func NewTextfileSink(path string) *TextfileSink {
	s := &TextfileSink{
		path:   path,
		gauges: make(map[string]prometheus.Gauge),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "cycles_total",
			Help: "Monitor cycles recorded since start.",
		}),
	}
	for _, col := range metrics.Columns() {
		kind, _ := metrics.Kind(col)
		if kind != metrics.KindFloat && kind != metrics.KindInt && kind != metrics.KindBool {
			continue
		}
		s.gauges[col] = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + col,
			Help: fmt.Sprintf("Latest %s reading (%s).", col, kind),
		})
	}
	return s
}

// Write updates the gauges and atomically rewrites the textfile.
func (s *TextfileSink) Write(record metrics.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg := prometheus.NewRegistry()
	s.cycles.Inc()
	if err := reg.Register(s.cycles); err != nil {
		return err
	}
	for col, g := range s.gauges {
		v, ok := metrics.ToFloat64Ok(record[col])
		if !ok {
			continue
		}
		g.Set(v)
		if err := reg.Register(g); err != nil {
			return fmt.Errorf("register %s: %w", col, err)
		}
	}

	if err := prometheus.WriteToTextfile(s.path, reg); err != nil {
		return fmt.Errorf("failed to write textfile: %w", err)
	}
	return nil
}

// Gauge returns the collector backing a column, for inspection.
func (s *TextfileSink) Gauge(column string) (prometheus.Gauge, bool) {
	g, ok := s.gauges[column]
	return g, ok
}

func (s *TextfileSink) Close() error { return nil }

// Path returns the textfile path.
func (s *TextfileSink) Path() string {
	return s.path
}
