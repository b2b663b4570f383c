package market

import (
	"fmt"

	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/metrics"
)

// Registry holds the configured venue adapters. Registration order is the
// venue enumeration order used for deterministic ranking tie-breaks.
type Registry struct {
	adapters []Adapter
	byVenue  map[domain.Venue]Adapter
}

func NewRegistry() *Registry {
	return &Registry{
		adapters: make([]Adapter, 0),
		byVenue:  make(map[domain.Venue]Adapter),
	}
}

// NewDefaultRegistry wires the full closed set of venue adapters.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewRaydiumAdapter())
	r.Register(NewWhirlpoolAdapter())
	return r
}

func (r *Registry) Register(adapter Adapter) {
	if _, exists := r.byVenue[adapter.Venue()]; exists {
		return
	}
	r.adapters = append(r.adapters, adapter)
	r.byVenue[adapter.Venue()] = adapter
}

// All returns the adapters in registration order.
func (r *Registry) All() []Adapter {
	return r.adapters
}

// ForVenue returns the adapter owning the given venue.
func (r *Registry) ForVenue(venue domain.Venue) (Adapter, error) {
	adapter, ok := r.byVenue[venue]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedVenue, venue)
	}
	return adapter, nil
}

// UpsertPool routes a refreshed liquidity snapshot to its owning adapter.
func (r *Registry) UpsertPool(pool *domain.Pool) error {
	adapter, err := r.ForVenue(pool.Venue)
	if err != nil {
		return err
	}
	if err := adapter.UpsertPool(pool); err != nil {
		return err
	}
	metrics.PoolUpdates.WithLabelValues(pool.Venue.String()).Inc()
	metrics.PoolCount.WithLabelValues(pool.Venue.String()).Set(float64(len(adapter.Pools())))
	return nil
}

// AllPools returns every adapter's snapshots, grouped by registration order.
func (r *Registry) AllPools() []*domain.Pool {
	pools := make([]*domain.Pool, 0)
	for _, adapter := range r.adapters {
		pools = append(pools, adapter.Pools()...)
	}
	return pools
}
