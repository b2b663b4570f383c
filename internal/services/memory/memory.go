package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/metrics"
)

// Store keeps a bounded FIFO log of swap outcomes plus cumulative per-route
// statistics. The log holds at most capacity records; the metrics map is
// never trimmed, so a route's counters survive eviction of its raw records.
type Store struct {
	recordsMu sync.RWMutex
	records   []domain.SwapRecord // insertion order, oldest first
	capacity  int

	metricsMu sync.RWMutex
	routes    map[domain.RouteKey]domain.RouteMetrics

	now func() time.Time // injectable for tests and clock-failure paths

	log zerolog.Logger
}

const defaultCapacity = 1000

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{
		records:  make([]domain.SwapRecord, 0, capacity),
		capacity: capacity,
		routes:   make(map[domain.RouteKey]domain.RouteMetrics),
		now:      time.Now,
		log:      common.ComponentLogger("memory"),
	}
}

// Record appends an outcome for an executed (or attempted) swap and folds it
// into the route's cumulative metrics. The quote carries the route identity
// and amounts; success and signature come from the execution layer.
func (s *Store) Record(quote *domain.Quote, success bool, signature string) error {
	ts := s.now()
	if ts.IsZero() {
		return fmt.Errorf("%w: zero timestamp", common.ErrClock)
	}

	rec := domain.SwapRecord{
		Timestamp:      ts,
		TokenIn:        quote.TokenIn,
		TokenOut:       quote.TokenOut,
		AmountIn:       quote.AmountIn,
		AmountOut:      quote.AmountOut,
		Venue:          quote.Venue,
		Success:        success,
		PriceImpactBps: quote.PriceImpactBps,
		Signature:      signature,
	}

	s.updateMetrics(rec)
	s.append(rec)

	result := "failure"
	if success {
		result = "success"
	}
	metrics.SwapsRecorded.WithLabelValues(rec.Venue.String(), result).Inc()
	metrics.SwapVolume.WithLabelValues(rec.Venue.String(), "in").Add(float64(rec.AmountIn))
	metrics.SwapVolume.WithLabelValues(rec.Venue.String(), "out").Add(float64(rec.AmountOut))

	s.log.Debug().
		Str("venue", rec.Venue.String()).
		Bool("success", success).
		Uint64("amount_in", rec.AmountIn).
		Uint64("amount_out", rec.AmountOut).
		Msg("[memory] swap recorded")

	return nil
}

func (s *Store) append(rec domain.SwapRecord) {
	s.recordsMu.Lock()
	if len(s.records) >= s.capacity {
		// FIFO: drop the oldest before appending the newest.
		copy(s.records, s.records[1:])
		s.records[len(s.records)-1] = rec
	} else {
		s.records = append(s.records, rec)
	}
	n := len(s.records)
	s.recordsMu.Unlock()

	metrics.MemoryRecords.Set(float64(n))
}

func (s *Store) updateMetrics(rec domain.SwapRecord) {
	key := domain.RouteKey{TokenIn: rec.TokenIn, TokenOut: rec.TokenOut, Venue: rec.Venue}

	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()

	m, existed := s.routes[key]

	m.TotalSwaps++
	if rec.Success {
		m.SuccessfulSwaps++
	}

	if rec.AmountIn > 0 {
		rate := float64(rec.AmountOut) / float64(rec.AmountIn)
		if !existed || rate > m.BestRate {
			m.BestRate = rate
		}
		if !existed || rate < m.WorstRate {
			m.WorstRate = rate
		}
	}

	m.AvgPriceImpact = IncrementalMean(m.AvgPriceImpact, float64(rec.PriceImpactBps), m.TotalSwaps)
	m.VolumeIn += rec.AmountIn
	m.VolumeOut += rec.AmountOut
	m.LastUpdate = rec.Timestamp

	s.routes[key] = m

	if !existed {
		metrics.RouteCount.Set(float64(len(s.routes)))
	}
}

// GetRelevantSwaps returns a copy of the cumulative metrics for a route, or a
// zero value if the route was never observed.
func (s *Store) GetRelevantSwaps(key domain.RouteKey) domain.RouteMetrics {
	s.metricsMu.RLock()
	defer s.metricsMu.RUnlock()
	return s.routes[key]
}

// GetSuccessRate returns successfulSwaps/totalSwaps for a route, 0.0 when the
// route has no observations.
func (s *Store) GetSuccessRate(key domain.RouteKey) float64 {
	s.metricsMu.RLock()
	m := s.routes[key]
	s.metricsMu.RUnlock()

	if m.TotalSwaps == 0 {
		return 0.0
	}
	return float64(m.SuccessfulSwaps) / float64(m.TotalSwaps)
}

// GetRecentSwaps returns every retained record no older than window, in
// insertion order. Age is measured against wall-clock time at call time.
func (s *Store) GetRecentSwaps(window time.Duration) []domain.SwapRecord {
	cutoff := s.now().Add(-window)

	s.recordsMu.RLock()
	defer s.recordsMu.RUnlock()

	out := make([]domain.SwapRecord, 0, len(s.records))
	for _, rec := range s.records {
		if !rec.Timestamp.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out
}

// Len reports how many records are currently retained.
func (s *Store) Len() int {
	s.recordsMu.RLock()
	defer s.recordsMu.RUnlock()
	return len(s.records)
}

// Capacity reports the fixed record capacity set at construction.
func (s *Store) Capacity() int {
	return s.capacity
}

// Stats sums the cumulative route metrics into engine-wide totals.
func (s *Store) Stats() domain.SwapStats {
	s.metricsMu.RLock()
	defer s.metricsMu.RUnlock()

	var stats domain.SwapStats
	stats.Routes = len(s.routes)
	for _, m := range s.routes {
		stats.TotalSwaps += m.TotalSwaps
		stats.SuccessfulSwaps += m.SuccessfulSwaps
		stats.VolumeIn += m.VolumeIn
		stats.VolumeOut += m.VolumeOut
	}
	if stats.TotalSwaps > 0 {
		stats.SuccessRate = float64(stats.SuccessfulSwaps) / float64(stats.TotalSwaps)
	}
	return stats
}

// Routes returns a copy of every route key with accumulated metrics.
func (s *Store) Routes() map[domain.RouteKey]domain.RouteMetrics {
	s.metricsMu.RLock()
	defer s.metricsMu.RUnlock()

	out := make(map[domain.RouteKey]domain.RouteMetrics, len(s.routes))
	for k, v := range s.routes {
		out[k] = v
	}
	return out
}

// Snapshot copies the current records and metrics for persistence.
func (s *Store) Snapshot() ([]domain.SwapRecord, map[domain.RouteKey]domain.RouteMetrics) {
	s.recordsMu.RLock()
	records := make([]domain.SwapRecord, len(s.records))
	copy(records, s.records)
	s.recordsMu.RUnlock()

	return records, s.Routes()
}

// Restore replaces the store's contents with a previously persisted snapshot.
// Records beyond capacity keep only the newest, matching FIFO semantics.
func (s *Store) Restore(records []domain.SwapRecord, routes map[domain.RouteKey]domain.RouteMetrics) {
	if len(records) > s.capacity {
		records = records[len(records)-s.capacity:]
	}

	s.recordsMu.Lock()
	s.records = s.records[:0]
	s.records = append(s.records, records...)
	n := len(s.records)
	s.recordsMu.Unlock()

	s.metricsMu.Lock()
	s.routes = make(map[domain.RouteKey]domain.RouteMetrics, len(routes))
	for k, v := range routes {
		s.routes[k] = v
	}
	routeCount := len(s.routes)
	s.metricsMu.Unlock()

	metrics.MemoryRecords.Set(float64(n))
	metrics.RouteCount.Set(float64(routeCount))
}
