package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "secureshare"

type Metrics struct {
	// Counter counts domain events by "result" label, e.g. file_uploaded_total.
	Counter        *prometheus.CounterVec
	CryptoDuration *prometheus.HistogramVec
	ReaperPurged   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Counter: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "general_counters",
			},
			[]string{"result"}),
		CryptoDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "crypto_duration_seconds",
				Help:      "Time spent encrypting or decrypting one file.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"op"}),
		ReaperPurged: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reaper_purged_total",
				Help:      "Records and blobs removed by the expiry sweep.",
			},
			[]string{"kind"}),
	}
}
