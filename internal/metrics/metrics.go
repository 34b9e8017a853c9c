// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperSearchPagesTotal   *prometheus.CounterVec
	scraperRecordsTotal       prometheus.Counter
	scraperDropsTotal         *prometheus.CounterVec
	scraperDownloadsTotal     prometheus.Counter
	scraperDownloadBytesTotal prometheus.Counter
	scraperDownloadsInFlight  prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperSearchPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_search_pages_total",
				Help: "Total number of search API pages fetched, labeled by status code.",
			},
			[]string{"status"},
		)

		scraperRecordsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_records_total",
				Help: "Total number of raw records seen across all search pages.",
			},
		)

		scraperDropsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_drops_total",
				Help: "Total number of candidates dropped, labeled by reason.",
			},
			[]string{"reason"},
		)

		scraperDownloadsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_downloads_total",
				Help: "Total number of PDFs downloaded and indexed this run.",
			},
		)

		scraperDownloadBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_download_bytes_total",
				Help: "Total bytes of PDF payloads stored this run.",
			},
		)

		scraperDownloadsInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_downloads_in_flight",
				Help: "Number of PDF fetches currently outstanding.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveSearchPage increments the search page counter for a status code.
func ObserveSearchPage(status int) {
	scraperSearchPagesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// ObserveRecords adds raw records seen on one page.
func ObserveRecords(count int) {
	scraperRecordsTotal.Add(float64(count))
}

// ObserveDrop increments the drop counter for the given reason.
func ObserveDrop(reason string) {
	scraperDropsTotal.WithLabelValues(reason).Inc()
}

// ObserveDownload records one stored PDF of the given size.
func ObserveDownload(bytes int) {
	scraperDownloadsTotal.Inc()
	if bytes > 0 {
		scraperDownloadBytesTotal.Add(float64(bytes))
	}
}

// IncDownloadsInFlight increments the in-flight download gauge.
func IncDownloadsInFlight() {
	scraperDownloadsInFlight.Inc()
}

// DecDownloadsInFlight decrements the in-flight download gauge.
func DecDownloadsInFlight() {
	scraperDownloadsInFlight.Dec()
}
