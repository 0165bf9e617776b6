package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	ScansInFlight         prometheus.Gauge
	PagesScannedTotal     *prometheus.CounterVec
	PageScanDuration      *prometheus.HistogramVec
	ImagesClassifiedTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec

	initOnce sync.Once
)

// Init registers the collectors with the default registry. It is safe to call
// more than once. The recording helpers below are no-ops until Init runs.
func Init() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		ScansInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "altaudit_scans_in_flight",
				Help: "Current number of running scans.",
			},
		)

		PagesScannedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altaudit_pages_scanned_total",
				Help: "Total number of pages that reached a terminal state.",
			},
			[]string{"status", "source"}, // source: live, fallback, demo
		)

		PageScanDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "altaudit_page_scan_duration_seconds",
				Help:    "Duration of single page scans.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 15, 30},
			},
			[]string{"domain"},
		)

		ImagesClassifiedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altaudit_images_classified_total",
				Help: "Total number of classified images by alt status.",
			},
			[]string{"alt_status"},
		)

		FallbacksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "altaudit_fallbacks_total",
				Help: "Total number of pages answered with synthetic data after a retrieval failure.",
			},
			[]string{"reason"},
		)
	})
}

func ObserveHTTPRequest(method, path, status string, seconds float64) {
	if HTTPRequestsTotal == nil {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}

func ScanStarted() {
	if ScansInFlight != nil {
		ScansInFlight.Inc()
	}
}

func ScanFinished() {
	if ScansInFlight != nil {
		ScansInFlight.Dec()
	}
}

func PageScanned(status, source string) {
	if PagesScannedTotal != nil {
		PagesScannedTotal.WithLabelValues(status, source).Inc()
	}
}

func ObservePageScan(domain string, seconds float64) {
	if PageScanDuration != nil {
		PageScanDuration.WithLabelValues(domain).Observe(seconds)
	}
}

func ImagesClassified(altStatus string, n int) {
	if ImagesClassifiedTotal != nil && n > 0 {
		ImagesClassifiedTotal.WithLabelValues(altStatus).Add(float64(n))
	}
}

func Fallback(reason string) {
	if FallbacksTotal != nil {
		FallbacksTotal.WithLabelValues(reason).Inc()
	}
}
