package widget

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/daikurogo/ipywidgets/types"
)

const (
	outcomeCommitted  = "committed"
	outcomeFailed     = "failed"
	outcomeSuperseded = "superseded"
)

// Metrics exposes Prometheus collectors for ingestion batches. A nil *Metrics records nothing.
type Metrics struct {
	batches      *prometheus.CounterVec
	files        prometheus.Counter
	bytes        prometheus.Counter
	readDuration prometheus.Histogram
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the instance registered with the global registry. The collectors are
// created once so several controls in one process share them.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors with reg and panics on a registration error.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ipywidgets",
				Subsystem: "upload",
				Name:      "batches_total",
				Help:      "Selections processed by outcome.",
			},
			[]string{"outcome"},
		),
		files: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipywidgets",
			Subsystem: "upload",
			Name:      "files_committed_total",
			Help:      "Files committed to upload controls.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ipywidgets",
			Subsystem: "upload",
			Name:      "bytes_committed_total",
			Help:      "Bytes committed to upload controls.",
		}),
		readDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ipywidgets",
			Subsystem: "upload",
			Name:      "batch_read_duration_seconds",
			Help:      "Time spent reading all files of a selection.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.batches, m.files, m.bytes, m.readDuration)
	return m
}

func (m *Metrics) observeBatch(outcome string, metas []types.FileMetadata) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(outcome).Inc()
	if outcome != outcomeCommitted {
		return
	}
	m.files.Add(float64(len(metas)))
	var total int64
	for _, meta := range metas {
		total += meta.Size
	}
	m.bytes.Add(float64(total))
}

func (m *Metrics) observeRead(d time.Duration) {
	if m == nil {
		return
	}
	m.readDuration.Observe(d.Seconds())
}
