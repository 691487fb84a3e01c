package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms exported for a clustering run.
type Metrics struct {
	ItemsInserted      prometheus.Counter
	BuildLatency        prometheus.Histogram
	HarvestedEdges      prometheus.Counter
	UnionOps            prometheus.Counter
	MSFEdges            prometheus.Counter
	HierarchyLatency    prometheus.Histogram
	ClustersSelected    prometheus.Gauge
	NoisePoints         prometheus.Gauge
	DistanceCacheHits   prometheus.Counter
	DistanceCacheMisses prometheus.Counter
	PipelineErrors      prometheus.Counter
}

// NewMetrics creates the metrics instance for a clustering run.
func NewMetrics() *Metrics {
	return &Metrics{
		ItemsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fishdbc_items_inserted_total",
			Help: "Total items inserted into the HNSW graph",
		}),
		BuildLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "fishdbc_build_latency_seconds",
			Help: "Wall-clock time spent building the HNSW graph",
		}),
		HarvestedEdges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fishdbc_harvested_edges_total",
			Help: "Candidate edges harvested during HNSW construction, post-dedup",
		}),
		UnionOps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fishdbc_union_ops_total",
			Help: "Successful union-find merges performed while building the MSF",
		}),
		MSFEdges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fishdbc_msf_edges_total",
			Help: "Edges retained in the minimum spanning forest",
		}),
		HierarchyLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "fishdbc_hierarchy_latency_seconds",
			Help: "Wall-clock time spent on dendrogram, condensation, and selection",
		}),
		ClustersSelected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fishdbc_clusters_selected",
			Help: "Number of clusters selected by the most recent run",
		}),
		NoisePoints: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fishdbc_noise_points",
			Help: "Number of points labelled noise by the most recent run",
		}),
		DistanceCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fishdbc_distance_cache_hits_total",
			Help: "Distance cache hits",
		}),
		DistanceCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fishdbc_distance_cache_misses_total",
			Help: "Distance cache misses",
		}),
		PipelineErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fishdbc_pipeline_errors_total",
			Help: "Pipeline runs that aborted with an error",
		}),
	}
}
