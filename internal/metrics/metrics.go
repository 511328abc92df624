package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	RowsIngested      prometheus.Counter
	DuplicatesDropped prometheus.Counter
	RowsDropped       *prometheus.CounterVec // by table
	RowsNormalized    *prometheus.CounterVec // by table
	RowsEnriched      prometheus.Counter
	SourceFailures    *prometheus.CounterVec // by source
	EmptySourceWarns  *prometheus.CounterVec // by source
	CacheHits         prometheus.Counter
	StageDurationSec  *prometheus.HistogramVec // by stage
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	rowsIngested := prometheus.NewCounter(prometheus.CounterOpts{Name: "nutriscan_rows_ingested_total"})
	dupDropped := prometheus.NewCounter(prometheus.CounterOpts{Name: "nutriscan_duplicates_dropped_total"})
	rowsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "nutriscan_rows_dropped_total"}, []string{"table"})
	rowsNormalized := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "nutriscan_rows_normalized_total"}, []string{"table"})
	rowsEnriched := prometheus.NewCounter(prometheus.CounterOpts{Name: "nutriscan_rows_enriched_total"})
	sourceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "nutriscan_source_failures_total"}, []string{"source"})
	emptyWarns := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "nutriscan_empty_source_total"}, []string{"source"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "nutriscan_fetch_cache_hits_total"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nutriscan_stage_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	r.MustRegister(rowsIngested, dupDropped, rowsDropped, rowsNormalized, rowsEnriched,
		sourceFailures, emptyWarns, cacheHits, stageDuration)
	return &Registry{
		reg:               r,
		RowsIngested:      rowsIngested,
		DuplicatesDropped: dupDropped,
		RowsDropped:       rowsDropped,
		RowsNormalized:    rowsNormalized,
		RowsEnriched:      rowsEnriched,
		SourceFailures:    sourceFailures,
		EmptySourceWarns:  emptyWarns,
		CacheHits:         cacheHits,
		StageDurationSec:  stageDuration,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
