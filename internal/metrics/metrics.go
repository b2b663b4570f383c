package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool metrics
	PoolCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agentswap_pool_count",
			Help: "Number of liquidity pools tracked per venue",
		},
		[]string{"venue"},
	)

	PoolUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentswap_pool_updates_total",
			Help: "Total number of pool state updates received",
		},
		[]string{"venue"},
	)

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentswap_quote_requests_total",
			Help: "Total number of quote requests per venue",
		},
		[]string{"venue", "status"},
	)

	BestQuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentswap_best_quote_requests_total",
			Help: "Total number of best-quote requests",
		},
		[]string{"status"},
	)

	BestQuoteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agentswap_best_quote_duration_seconds",
		Help:    "Best-quote fan-out duration in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	QuoteCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentswap_quote_cache_hits_total",
		Help: "Total number of quote cache hits",
	})

	QuoteCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentswap_quote_cache_misses_total",
		Help: "Total number of quote cache misses",
	})

	QuoteCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentswap_quote_cache_size",
		Help: "Current number of entries in the quote cache",
	})

	PriceImpact = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentswap_price_impact_bps",
			Help:    "Price impact of winning quotes in basis points",
			Buckets: []float64{0, 10, 50, 100, 300, 500, 1000, 5000, 10000},
		},
		[]string{"severity"},
	)

	// Historical memory metrics
	SwapsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentswap_swaps_recorded_total",
			Help: "Total number of swap outcomes recorded",
		},
		[]string{"venue", "result"},
	)

	SwapVolume = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentswap_swap_volume_total",
			Help: "Cumulative swap volume in base units, by venue and side",
		},
		[]string{"venue", "side"},
	)

	MemoryRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentswap_memory_records",
		Help: "Current number of swap records held by the memory store",
	})

	RouteCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentswap_route_count",
		Help: "Number of distinct routes with accumulated metrics",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentswap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentswap_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
