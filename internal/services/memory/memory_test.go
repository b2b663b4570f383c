package memory

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqvu/agent-swap/internal/common"
	"github.com/hqvu/agent-swap/internal/domain"
)

var (
	mintIn  = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	mintOut = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

func testQuote(amountIn, amountOut uint64, impactBps uint16) *domain.Quote {
	return &domain.Quote{
		Venue:          domain.VenueRaydium,
		TokenIn:        mintIn,
		TokenOut:       mintOut,
		AmountIn:       amountIn,
		AmountOut:      amountOut,
		PriceImpactBps: impactBps,
	}
}

func testRoute() domain.RouteKey {
	return domain.RouteKey{TokenIn: mintIn, TokenOut: mintOut, Venue: domain.VenueRaydium}
}

func TestRecordAppendsAndCounts(t *testing.T) {
	store := NewStore(10)

	require.NoError(t, store.Record(testQuote(100, 99, 10), true, "sig-1"))
	require.NoError(t, store.Record(testQuote(100, 98, 20), false, ""))

	assert.Equal(t, 2, store.Len())

	m := store.GetRelevantSwaps(testRoute())
	assert.Equal(t, uint64(2), m.TotalSwaps)
	assert.Equal(t, uint64(1), m.SuccessfulSwaps)
}

func TestStatsAggregateAcrossRoutes(t *testing.T) {
	store := NewStore(10)

	require.NoError(t, store.Record(testQuote(100, 99, 10), true, ""))
	require.NoError(t, store.Record(testQuote(200, 198, 10), false, ""))

	reverse := testQuote(50, 49, 5)
	reverse.TokenIn, reverse.TokenOut = mintOut, mintIn
	require.NoError(t, store.Record(reverse, true, ""))

	stats := store.Stats()
	assert.Equal(t, uint64(3), stats.TotalSwaps)
	assert.Equal(t, uint64(2), stats.SuccessfulSwaps)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.Equal(t, uint64(350), stats.VolumeIn)
	assert.Equal(t, uint64(346), stats.VolumeOut)
	assert.Equal(t, 2, stats.Routes)
}

func TestStatsEmptyStore(t *testing.T) {
	stats := NewStore(10).Stats()
	assert.Zero(t, stats.TotalSwaps)
	assert.Zero(t, stats.SuccessRate)
	assert.Zero(t, stats.Routes)
}

func TestFIFOEvictionKeepsCapacityNewest(t *testing.T) {
	const capacity = 5
	store := NewStore(capacity)

	// capacity + k inserts, k > 0
	for i := uint64(1); i <= capacity+3; i++ {
		require.NoError(t, store.Record(testQuote(i, i, 0), true, ""))
	}

	assert.Equal(t, capacity, store.Len())

	records := store.GetRecentSwaps(time.Hour)
	require.Len(t, records, capacity)
	// The survivors are the newest, still in insertion order.
	for i, rec := range records {
		assert.Equal(t, uint64(4+i), rec.AmountIn)
	}
}

func TestMetricsSurviveEviction(t *testing.T) {
	store := NewStore(2)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Record(testQuote(100, 99, 10), true, ""))
	}

	assert.Equal(t, 2, store.Len())

	m := store.GetRelevantSwaps(testRoute())
	assert.Equal(t, uint64(10), m.TotalSwaps, "counters outlive evicted records")
}

func TestGetSuccessRate(t *testing.T) {
	store := NewStore(10)

	// Unobserved route reads as 0.0.
	assert.Zero(t, store.GetSuccessRate(testRoute()))

	require.NoError(t, store.Record(testQuote(100, 99, 0), true, ""))
	require.NoError(t, store.Record(testQuote(100, 99, 0), false, ""))
	assert.InDelta(t, 0.5, store.GetSuccessRate(testRoute()), 1e-9)

	// Three successes and two failures in total.
	require.NoError(t, store.Record(testQuote(100, 99, 0), true, ""))
	require.NoError(t, store.Record(testQuote(100, 99, 0), false, ""))
	require.NoError(t, store.Record(testQuote(100, 99, 0), true, ""))
	assert.InDelta(t, 0.6, store.GetSuccessRate(testRoute()), 1e-9)
}

func TestRouteMetricsRates(t *testing.T) {
	store := NewStore(10)

	require.NoError(t, store.Record(testQuote(100, 95, 0), true, ""))
	m := store.GetRelevantSwaps(testRoute())
	assert.InDelta(t, 0.95, m.BestRate, 1e-9)
	assert.InDelta(t, 0.95, m.WorstRate, 1e-9, "first observation seeds both bounds")

	require.NoError(t, store.Record(testQuote(100, 99, 0), true, ""))
	require.NoError(t, store.Record(testQuote(100, 90, 0), true, ""))

	m = store.GetRelevantSwaps(testRoute())
	assert.InDelta(t, 0.99, m.BestRate, 1e-9)
	assert.InDelta(t, 0.90, m.WorstRate, 1e-9)
	assert.GreaterOrEqual(t, m.BestRate, m.WorstRate)
}

func TestAvgPriceImpactIncrementalMean(t *testing.T) {
	store := NewStore(10)

	impacts := []uint16{10, 20, 30, 40}
	for _, bps := range impacts {
		require.NoError(t, store.Record(testQuote(100, 99, bps), true, ""))
	}

	m := store.GetRelevantSwaps(testRoute())
	assert.InDelta(t, 25.0, m.AvgPriceImpact, 1e-9)
}

func TestIncrementalMean(t *testing.T) {
	assert.InDelta(t, 7.0, IncrementalMean(0, 7, 1), 1e-9, "first observation is exact")
	assert.InDelta(t, 5.0, IncrementalMean(4, 7, 3), 1e-9) // (4*2+7)/3
}

func TestGetRelevantSwapsZeroDefault(t *testing.T) {
	store := NewStore(10)

	m := store.GetRelevantSwaps(domain.RouteKey{TokenIn: mintOut, TokenOut: mintIn, Venue: domain.VenueWhirlpool})
	assert.Zero(t, m.TotalSwaps)
	assert.Zero(t, m.BestRate)
	assert.True(t, m.LastUpdate.IsZero())
}

func TestReverseDirectionIsSeparateRoute(t *testing.T) {
	store := NewStore(10)

	require.NoError(t, store.Record(testQuote(100, 99, 0), true, ""))

	reverse := domain.RouteKey{TokenIn: mintOut, TokenOut: mintIn, Venue: domain.VenueRaydium}
	assert.Zero(t, store.GetRelevantSwaps(reverse).TotalSwaps)
}

func TestGetRecentSwapsWindow(t *testing.T) {
	store := NewStore(10)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	current := base
	store.now = func() time.Time { return current }

	require.NoError(t, store.Record(testQuote(1, 1, 0), true, ""))

	current = base.Add(2 * time.Hour)
	require.NoError(t, store.Record(testQuote(2, 2, 0), true, ""))

	current = base.Add(2*time.Hour + time.Minute)
	recent := store.GetRecentSwaps(time.Hour)
	require.Len(t, recent, 1)
	assert.Equal(t, uint64(2), recent[0].AmountIn)

	all := store.GetRecentSwaps(24 * time.Hour)
	assert.Len(t, all, 2)
}

func TestRecordClockFailure(t *testing.T) {
	store := NewStore(10)
	store.now = func() time.Time { return time.Time{} }

	err := store.Record(testQuote(100, 99, 0), true, "")
	assert.ErrorIs(t, err, common.ErrClock)
	assert.Zero(t, store.Len(), "failed record must not be appended")
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	store := NewStore(10)
	require.NoError(t, store.Record(testQuote(100, 99, 10), true, "sig"))
	require.NoError(t, store.Record(testQuote(200, 150, 20), false, ""))

	records, routes := store.Snapshot()

	fresh := NewStore(10)
	fresh.Restore(records, routes)

	assert.Equal(t, 2, fresh.Len())
	assert.Equal(t, store.GetRelevantSwaps(testRoute()), fresh.GetRelevantSwaps(testRoute()))
}

func TestRestoreTruncatesToCapacity(t *testing.T) {
	store := NewStore(20)
	for i := uint64(1); i <= 10; i++ {
		require.NoError(t, store.Record(testQuote(i, i, 0), true, ""))
	}
	records, routes := store.Snapshot()

	small := NewStore(3)
	small.Restore(records, routes)

	assert.Equal(t, 3, small.Len())
	recent := small.GetRecentSwaps(time.Hour)
	require.Len(t, recent, 3)
	assert.Equal(t, uint64(8), recent[0].AmountIn, "restore keeps only the newest records")
}
