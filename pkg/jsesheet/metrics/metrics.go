package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every jsesheet metric. It is private so a run's textfile
// only carries jsesheet series.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Document metrics
	DocumentsLoaded = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "jsesheet_documents_loaded_total",
			Help: "Quote sheets loaded and decoded",
		})
	FetchErrors = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "jsesheet_fetch_errors_total",
			Help: "Quote sheet downloads or decodes that failed",
		})

	// Extraction metrics
	SymbolsFound = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "jsesheet_symbols_found_total",
			Help: "Watchlist symbols with a price",
		})
	SymbolsMissing = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "jsesheet_symbols_missing_total",
			Help: "Watchlist symbols written with a blank price",
		})

	// Run metrics
	Runs = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsesheet_runs_total",
			Help: "Runs by result",
		}, []string{"result"})
	RunDuration = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "jsesheet_run_duration_seconds",
			Help: "Wall time of the last run",
		})
	LastSuccess = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "jsesheet_last_success_timestamp_seconds",
			Help: "Unix time of the last run that wrote output",
		})
)

// WriteTextfile writes all metrics in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
