package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docfinder"

// Page results.
const (
	ResultMatched      = "matched"
	ResultUnclassified = "unclassified"
	ResultNameMismatch = "name_mismatch"
	ResultError        = "error"
)

var (
	pagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_processed_total",
			Help:      "Total pages processed by result (matched, unclassified, name_mismatch, error)",
		},
		[]string{"result"},
	)

	documentsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_detected_total",
			Help:      "Pages classified, labeled by document type",
		},
		[]string{"type"},
	)

	enhancements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_enhancements_total",
			Help:      "Pages prepared for OCR, labeled by whether enhancement ran",
		},
		[]string{"enhanced"},
	)

	ocrLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ocr_duration_seconds",
			Help:      "Duration of OCR calls",
			Buckets:   prometheus.DefBuckets,
		},
	)

	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Scan requests by outcome (ok, failed, no_target)",
		},
		[]string{"outcome"},
	)

	ocrCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_cache_total",
			Help:      "OCR cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

var once sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(pagesProcessed, documentsDetected, enhancements, ocrLatency, scansTotal, ocrCache)
	})
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncProcessed(result string)   { pagesProcessed.WithLabelValues(result).Inc() }
func IncDetected(docType string)   { documentsDetected.WithLabelValues(docType).Inc() }
func IncEnhancement(enhanced bool) { enhancements.WithLabelValues(boolToStr(enhanced)).Inc() }
func IncScan(outcome string)       { scansTotal.WithLabelValues(outcome).Inc() }
func IncCache(result string)       { ocrCache.WithLabelValues(result).Inc() }

// ObserveOCR records how long one OCR call took.
func ObserveOCR(dur time.Duration) { ocrLatency.Observe(dur.Seconds()) }

func boolToStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
