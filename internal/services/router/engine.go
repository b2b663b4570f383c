package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/metrics"
	"github.com/hqvu/agent-swap/internal/services/market"
)

// Engine fans quote requests out to every registered venue adapter and picks
// the winner. Best quotes are cached until pool state changes.
type Engine struct {
	registry    *market.Registry
	cache       *QuoteCache
	slippageBps uint16
	minAmount   uint64

	execMu    sync.RWMutex
	executors map[domain.Venue]domain.SwapExecutor

	log zerolog.Logger
}

func NewEngine(registry *market.Registry, slippageBps uint16, cacheSize int, minAmount uint64) *Engine {
	if slippageBps == 0 {
		slippageBps = common.DefaultSlippageBps
	}
	if minAmount == 0 {
		minAmount = common.DefaultMinSwapAmount
	}
	return &Engine{
		registry:    registry,
		cache:       NewQuoteCache(cacheSize),
		slippageBps: slippageBps,
		minAmount:   minAmount,
		executors:   make(map[domain.Venue]domain.SwapExecutor),
		log:         common.ComponentLogger("engine"),
	}
}

// GetQuote asks a single venue for a quote.
func (e *Engine) GetQuote(ctx context.Context, venue domain.Venue, tokenIn, tokenOut solana.PublicKey, amountIn uint64) (*domain.Quote, error) {
	if amountIn < e.minAmount {
		return nil, fmt.Errorf("%w: %d < %d", common.ErrAmountTooSmall, amountIn, e.minAmount)
	}

	adapter, err := e.registry.ForVenue(venue)
	if err != nil {
		return nil, err
	}

	quote, err := adapter.GetQuote(ctx, tokenIn, tokenOut, amountIn, e.slippageBps)
	if err != nil {
		metrics.QuoteRequests.WithLabelValues(venue.String(), "error").Inc()
		return nil, err
	}

	metrics.QuoteRequests.WithLabelValues(venue.String(), "success").Inc()
	return quote, nil
}

// GetBestQuote queries every venue concurrently and returns the quote with the
// highest output amount. Ties break on lower price impact, then on venue
// registration order so results are deterministic.
func (e *Engine) GetBestQuote(ctx context.Context, tokenIn, tokenOut solana.PublicKey, amountIn uint64) (*domain.Quote, error) {
	if amountIn < e.minAmount {
		return nil, fmt.Errorf("%w: %d < %d", common.ErrAmountTooSmall, amountIn, e.minAmount)
	}

	if cached := e.cache.Get(tokenIn, tokenOut, amountIn); cached != nil {
		metrics.QuoteCacheHits.Inc()
		metrics.BestQuoteRequests.WithLabelValues("cached").Inc()
		return cached, nil
	}
	metrics.QuoteCacheMisses.Inc()

	start := time.Now()

	adapters := e.registry.All()
	results := make([]*domain.Quote, len(adapters))
	errs := make([]error, len(adapters))

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func(i int, adapter market.Adapter) {
			defer wg.Done()
			results[i], errs[i] = adapter.GetQuote(ctx, tokenIn, tokenOut, amountIn, e.slippageBps)
		}(i, adapter)
	}
	wg.Wait()

	metrics.BestQuoteDuration.Observe(time.Since(start).Seconds())

	// A cancelled request must not poison the cache with partial results.
	if err := ctx.Err(); err != nil {
		metrics.BestQuoteRequests.WithLabelValues("cancelled").Inc()
		return nil, err
	}

	type ranked struct {
		quote *domain.Quote
		order int
	}
	candidates := make([]ranked, 0, len(adapters))
	for i, quote := range results {
		if errs[i] != nil {
			if !errors.Is(errs[i], common.ErrPoolNotFound) {
				e.log.Debug().
					Err(errs[i]).
					Str("venue", adapters[i].Venue().String()).
					Msg("[engine] venue quote failed")
			}
			metrics.QuoteRequests.WithLabelValues(adapters[i].Venue().String(), "error").Inc()
			continue
		}
		metrics.QuoteRequests.WithLabelValues(adapters[i].Venue().String(), "success").Inc()
		candidates = append(candidates, ranked{quote: quote, order: i})
	}

	if len(candidates) == 0 {
		metrics.BestQuoteRequests.WithLabelValues("no_route").Inc()
		return nil, fmt.Errorf("%w: %s -> %s", common.ErrNoRouteFound, tokenIn, tokenOut)
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		qa, qb := candidates[a].quote, candidates[b].quote
		if qa.AmountOut != qb.AmountOut {
			return qa.AmountOut > qb.AmountOut
		}
		if qa.PriceImpactBps != qb.PriceImpactBps {
			return qa.PriceImpactBps < qb.PriceImpactBps
		}
		return candidates[a].order < candidates[b].order
	})

	best := candidates[0].quote
	e.cache.Set(tokenIn, tokenOut, amountIn, best)

	severity := GetPriceImpactSeverity(best.PriceImpactBps)
	metrics.PriceImpact.WithLabelValues(string(severity)).Observe(float64(best.PriceImpactBps))
	metrics.BestQuoteRequests.WithLabelValues("success").Inc()

	if severity == SeverityHigh || severity == SeverityExtreme {
		e.log.Warn().
			Str("venue", best.Venue.String()).
			Uint16("impact_bps", best.PriceImpactBps).
			Msg("[engine] " + GetPriceImpactWarning(best.PriceImpactBps))
	}

	return best, nil
}

// PrepareSwap builds the execution payload for a previously obtained quote.
func (e *Engine) PrepareSwap(quote *domain.Quote, user solana.PublicKey) (*domain.ExecutionPayload, error) {
	adapter, err := e.registry.ForVenue(quote.Venue)
	if err != nil {
		return nil, err
	}
	return adapter.PrepareSwap(quote, user)
}

// UpsertPool pushes fresh pool state to the owning adapter and invalidates
// cached quotes, which price against the old reserves.
func (e *Engine) UpsertPool(pool *domain.Pool) error {
	if err := e.registry.UpsertPool(pool); err != nil {
		return err
	}
	e.cache.Reset()
	return nil
}

// InvalidateQuotes drops every cached quote.
func (e *Engine) InvalidateQuotes() {
	e.cache.Reset()
}

// CacheSize reports the number of quotes currently cached.
func (e *Engine) CacheSize() int {
	return e.cache.Size()
}

// RegisterExecutor installs the signer-facing executor for a venue.
func (e *Engine) RegisterExecutor(venue domain.Venue, executor domain.SwapExecutor) {
	e.execMu.Lock()
	e.executors[venue] = executor
	e.execMu.Unlock()
}

// ExecuteSwap hands the quote to the venue's registered executor.
func (e *Engine) ExecuteSwap(ctx context.Context, quote *domain.Quote, signer solana.PrivateKey) (string, error) {
	e.execMu.RLock()
	executor, ok := e.executors[quote.Venue]
	e.execMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", common.ErrNoExecutor, quote.Venue)
	}
	return executor.ExecuteSwap(ctx, quote, signer)
}
