// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 100121dd-d185-45d0-b199-0d48df1c51a6

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	filesHashed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hashgen",
		Name:      "files_hashed_total",
		Help:      "Total number of files hashed by algorithm",
	}, []string{"algorithm"})
	bytesHashed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hashgen",
		Name:      "bytes_hashed_total",
		Help:      "Total number of bytes streamed through hash functions",
	})
	hashDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hashgen",
		Name:      "hash_duration_seconds",
		Help:      "Histogram of per-file hashing durations by algorithm",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms up to ~16s
	}, []string{"algorithm"})
	hashErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hashgen",
		Name:      "hash_errors_total",
		Help:      "Total number of files that failed to hash",
	})
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hashgen",
		Name:      "cache_hits_total",
		Help:      "Total number of digests reused from the history store",
	})
	verifyFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hashgen",
		Name:      "verify_failures_total",
		Help:      "Total number of manifest entries that failed or were missing",
	})
	archivesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hashgen",
		Name:      "archives_created_total",
		Help:      "Total number of folder archives created",
	})
	archiveBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hashgen",
		Name:      "archive_bytes_total",
		Help:      "Total size in bytes of created archives",
	})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(filesHashed, bytesHashed, hashDuration, hashErrors,
			cacheHits, verifyFailures, archivesCreated, archiveBytes)
	})
}

// Hashing lifecycle helpers
func IncFilesHashed(algorithm string) { filesHashed.WithLabelValues(algorithm).Inc() }
func AddBytesHashed(n int64)          { bytesHashed.Add(float64(n)) }
func ObserveHashDuration(algorithm string, d time.Duration) {
	hashDuration.WithLabelValues(algorithm).Observe(d.Seconds())
}
func IncHashErrors()     { hashErrors.Inc() }
func IncCacheHits()      { cacheHits.Inc() }
func IncVerifyFailures() { verifyFailures.Inc() }

// Archive helpers
func IncArchivesCreated()     { archivesCreated.Inc() }
func AddArchiveBytes(n int64) { archiveBytes.Add(float64(n)) }

// WriteTextfile dumps the registered metrics in Prometheus
// textfile-collector format. There is no network listener; this is the
// only export path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
