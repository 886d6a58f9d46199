package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openpubs_queries_total",
		Help: "Total number of dataset queries by kind",
	}, []string{"query"})
	QueryErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openpubs_query_errors_total",
		Help: "Total number of rejected queries by kind",
	}, []string{"query"})
	EmptyResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "openpubs_empty_results_total",
		Help: "Total number of queries that matched no pubs",
	}, []string{"query"})
	QueryDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "openpubs_query_duration_ms",
		Help:    "Query duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"query"})
	DatasetRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "openpubs_dataset_rows",
		Help: "Number of pubs in the loaded dataset",
	})
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryErrorsTotal)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(QueryDurationMs)
	prometheus.MustRegister(DatasetRows)
}

// Observe records one finished query. results is the number of rows returned.
func Observe(query string, start time.Time, results int, err error) {
	QueriesTotal.WithLabelValues(query).Inc()
	QueryDurationMs.WithLabelValues(query).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		QueryErrorsTotal.WithLabelValues(query).Inc()
		return
	}
	if results == 0 {
		EmptyResultsTotal.WithLabelValues(query).Inc()
	}
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
