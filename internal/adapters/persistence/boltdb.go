package persistence

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"

	"github.com/hqvu/agent-swap/internal/domain"
)

const (
	PoolsBucket   = "pools"
	RecordsBucket = "swap_records"
	MetricsBucket = "route_metrics"

	recordLogKey = "log"

	DefaultDBPath = "./data/agent-swap.db"
)

type StoredPool struct {
	Address         string `json:"address"`
	Venue           string `json:"venue"`
	ProgramID       string `json:"programId"`
	TokenMintA      string `json:"tokenMintA"`
	TokenMintB      string `json:"tokenMintB"`
	ReserveA        uint64 `json:"reserveA"`
	ReserveB        uint64 `json:"reserveB"`
	FeeRateBps      uint16 `json:"feeRateBps"`
	LastUpdatedSlot uint64 `json:"lastUpdatedSlot"`

	Whirlpool *StoredWhirlpoolData `json:"whirlpool,omitempty"`
}

type StoredWhirlpoolData struct {
	TickCurrentIndex   int32  `json:"tickCurrentIndex"`
	TickSpacing        uint16 `json:"tickSpacing"`
	ProtocolFeeRateBps uint16 `json:"protocolFeeRateBps"`
	Liquidity          string `json:"liquidity"` // Uint128 as string
}

type StoredSwapRecord struct {
	Timestamp      int64  `json:"timestamp"` // Unix nano
	TokenIn        string `json:"tokenIn"`
	TokenOut       string `json:"tokenOut"`
	AmountIn       uint64 `json:"amountIn"`
	AmountOut      uint64 `json:"amountOut"`
	Venue          string `json:"venue"`
	Success        bool   `json:"success"`
	PriceImpactBps uint16 `json:"priceImpactBps"`
	Signature      string `json:"signature,omitempty"`
}

type StoredRouteMetrics struct {
	TokenIn         string  `json:"tokenIn"`
	TokenOut        string  `json:"tokenOut"`
	Venue           string  `json:"venue"`
	TotalSwaps      uint64  `json:"totalSwaps"`
	SuccessfulSwaps uint64  `json:"successfulSwaps"`
	AvgPriceImpact  float64 `json:"avgPriceImpact"`
	BestRate        float64 `json:"bestRate"`
	WorstRate       float64 `json:"worstRate"`
	VolumeIn        uint64  `json:"volumeIn"`
	VolumeOut       uint64  `json:"volumeOut"`
	LastUpdate      int64   `json:"lastUpdate"` // Unix nano
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[storage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePool(pool *domain.Pool) error {
	stored := poolToStored(pool)
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal pool: %w", err)
	}

	return s.db.Set(PoolsBucket, []byte(pool.Address.String()), data)
}

func (s *Storage) SavePoolBatch(pools []*domain.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for _, pool := range pools {
		stored := poolToStored(pool)
		data, err := sonic.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal pool %s: %w", pool.Address.String(), err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(PoolsBucket),
			Key:    []byte(pool.Address.String()),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add pool %s to batch: %w", pool.Address.String(), err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(pools)).Msg("[storage] FAILED to execute pool batch")
		return err
	}

	log.Info().Int("count", len(pools)).Msg("[storage] saved pool batch")
	return nil
}

func (s *Storage) LoadAllPools() ([]*domain.Pool, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	pools := make([]*domain.Pool, 0, len(data))
	failed := 0

	for address, value := range data {
		var stored StoredPool
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Error().Str("address", address).Err(err).Msg("[storage] failed to unmarshal pool, skipping")
			failed++
			continue
		}

		pool, err := storedToPool(&stored)
		if err != nil {
			log.Error().Str("address", address).Err(err).Msg("[storage] failed to convert stored pool, skipping")
			failed++
			continue
		}

		pools = append(pools, pool)
	}

	if failed > 0 {
		log.Error().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Int("failed", failed).
			Msg("[storage] pool loading completed with errors")
	} else {
		log.Info().
			Int("total_in_db", len(data)).
			Int("loaded", len(pools)).
			Msg("[storage] pool loading completed successfully")
	}

	return pools, nil
}

// SaveRecords persists the full record log as one ordered blob. Bolt returns
// bucket entries unordered, so per-record keys would lose FIFO order.
func (s *Storage) SaveRecords(records []domain.SwapRecord) error {
	stored := make([]StoredSwapRecord, len(records))
	for i, rec := range records {
		stored[i] = recordToStored(rec)
	}

	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal swap records: %w", err)
	}

	return s.db.Set(RecordsBucket, []byte(recordLogKey), data)
}

func (s *Storage) LoadRecords() ([]domain.SwapRecord, error) {
	data, err := s.db.List(RecordsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list swap records: %w", err)
	}

	raw, ok := data[recordLogKey]
	if !ok {
		return nil, nil
	}

	var stored []StoredSwapRecord
	if err := sonic.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal swap records: %w", err)
	}

	records := make([]domain.SwapRecord, 0, len(stored))
	for i := range stored {
		rec, err := storedToRecord(&stored[i])
		if err != nil {
			log.Warn().Int("index", i).Err(err).Msg("[storage] invalid stored swap record, skipping")
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *Storage) SaveRouteMetrics(routes map[domain.RouteKey]domain.RouteMetrics) error {
	if len(routes) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for key, m := range routes {
		stored := StoredRouteMetrics{
			TokenIn:         key.TokenIn.String(),
			TokenOut:        key.TokenOut.String(),
			Venue:           key.Venue.String(),
			TotalSwaps:      m.TotalSwaps,
			SuccessfulSwaps: m.SuccessfulSwaps,
			AvgPriceImpact:  m.AvgPriceImpact,
			BestRate:        m.BestRate,
			WorstRate:       m.WorstRate,
			VolumeIn:        m.VolumeIn,
			VolumeOut:       m.VolumeOut,
			LastUpdate:      m.LastUpdate.UnixNano(),
		}
		data, err := sonic.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to marshal route metrics: %w", err)
		}

		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(MetricsBucket),
			Key:    []byte(routeStorageKey(key)),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add route metrics to batch: %w", err)
		}
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Int("count", len(routes)).Msg("[storage] FAILED to execute metrics batch")
		return err
	}

	return nil
}

func (s *Storage) LoadRouteMetrics() (map[domain.RouteKey]domain.RouteMetrics, error) {
	data, err := s.db.List(MetricsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list route metrics: %w", err)
	}

	routes := make(map[domain.RouteKey]domain.RouteMetrics, len(data))
	for storageKey, value := range data {
		var stored StoredRouteMetrics
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Warn().Str("key", storageKey).Err(err).Msg("[storage] failed to unmarshal route metrics, skipping")
			continue
		}

		key, err := storedToRouteKey(&stored)
		if err != nil {
			log.Warn().Str("key", storageKey).Err(err).Msg("[storage] invalid route key, skipping")
			continue
		}

		routes[key] = domain.RouteMetrics{
			TotalSwaps:      stored.TotalSwaps,
			SuccessfulSwaps: stored.SuccessfulSwaps,
			AvgPriceImpact:  stored.AvgPriceImpact,
			BestRate:        stored.BestRate,
			WorstRate:       stored.WorstRate,
			VolumeIn:        stored.VolumeIn,
			VolumeOut:       stored.VolumeOut,
			LastUpdate:      time.Unix(0, stored.LastUpdate),
		}
	}

	return routes, nil
}

func (s *Storage) GetPoolCount() (int, error) {
	data, err := s.db.List(PoolsBucket)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

func routeStorageKey(key domain.RouteKey) string {
	return key.TokenIn.String() + "|" + key.TokenOut.String() + "|" + key.Venue.String()
}

func poolToStored(pool *domain.Pool) *StoredPool {
	stored := &StoredPool{
		Address:         pool.Address.String(),
		Venue:           pool.Venue.String(),
		ProgramID:       pool.ProgramID.String(),
		TokenMintA:      pool.TokenMintA.String(),
		TokenMintB:      pool.TokenMintB.String(),
		ReserveA:        pool.ReserveA,
		ReserveB:        pool.ReserveB,
		FeeRateBps:      pool.FeeRateBps,
		LastUpdatedSlot: pool.LastUpdatedSlot,
	}

	if pool.Whirlpool != nil {
		stored.Whirlpool = &StoredWhirlpoolData{
			TickCurrentIndex:   pool.Whirlpool.TickCurrentIndex,
			TickSpacing:        pool.Whirlpool.TickSpacing,
			ProtocolFeeRateBps: pool.Whirlpool.ProtocolFeeRateBps,
			Liquidity:          pool.Whirlpool.Liquidity.BigInt().String(),
		}
	}

	return stored
}

func storedToPool(stored *StoredPool) (*domain.Pool, error) {
	address, err := solana.PublicKeyFromBase58(stored.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	venue, err := domain.ParseVenue(stored.Venue)
	if err != nil {
		return nil, err
	}

	programID, err := solana.PublicKeyFromBase58(stored.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid programId: %w", err)
	}

	tokenMintA, err := solana.PublicKeyFromBase58(stored.TokenMintA)
	if err != nil {
		return nil, fmt.Errorf("invalid tokenMintA: %w", err)
	}

	tokenMintB, err := solana.PublicKeyFromBase58(stored.TokenMintB)
	if err != nil {
		return nil, fmt.Errorf("invalid tokenMintB: %w", err)
	}

	pool := &domain.Pool{
		Address:         address,
		Venue:           venue,
		ProgramID:       programID,
		TokenMintA:      tokenMintA,
		TokenMintB:      tokenMintB,
		ReserveA:        stored.ReserveA,
		ReserveB:        stored.ReserveB,
		FeeRateBps:      stored.FeeRateBps,
		LastUpdatedSlot: stored.LastUpdatedSlot,
	}

	if stored.Whirlpool != nil {
		liquidityBig, ok := new(big.Int).SetString(stored.Whirlpool.Liquidity, 10)
		if !ok {
			return nil, fmt.Errorf("invalid liquidity %q", stored.Whirlpool.Liquidity)
		}

		pool.Whirlpool = &domain.WhirlpoolData{
			TickCurrentIndex:   stored.Whirlpool.TickCurrentIndex,
			TickSpacing:        stored.Whirlpool.TickSpacing,
			ProtocolFeeRateBps: stored.Whirlpool.ProtocolFeeRateBps,
			Liquidity:          bigIntToUint128(liquidityBig),
		}
	}

	return pool, nil
}

func recordToStored(rec domain.SwapRecord) StoredSwapRecord {
	return StoredSwapRecord{
		Timestamp:      rec.Timestamp.UnixNano(),
		TokenIn:        rec.TokenIn.String(),
		TokenOut:       rec.TokenOut.String(),
		AmountIn:       rec.AmountIn,
		AmountOut:      rec.AmountOut,
		Venue:          rec.Venue.String(),
		Success:        rec.Success,
		PriceImpactBps: rec.PriceImpactBps,
		Signature:      rec.Signature,
	}
}

func storedToRecord(stored *StoredSwapRecord) (domain.SwapRecord, error) {
	tokenIn, err := solana.PublicKeyFromBase58(stored.TokenIn)
	if err != nil {
		return domain.SwapRecord{}, fmt.Errorf("invalid tokenIn: %w", err)
	}

	tokenOut, err := solana.PublicKeyFromBase58(stored.TokenOut)
	if err != nil {
		return domain.SwapRecord{}, fmt.Errorf("invalid tokenOut: %w", err)
	}

	venue, err := domain.ParseVenue(stored.Venue)
	if err != nil {
		return domain.SwapRecord{}, err
	}

	return domain.SwapRecord{
		Timestamp:      time.Unix(0, stored.Timestamp),
		TokenIn:        tokenIn,
		TokenOut:       tokenOut,
		AmountIn:       stored.AmountIn,
		AmountOut:      stored.AmountOut,
		Venue:          venue,
		Success:        stored.Success,
		PriceImpactBps: stored.PriceImpactBps,
		Signature:      stored.Signature,
	}, nil
}

func storedToRouteKey(stored *StoredRouteMetrics) (domain.RouteKey, error) {
	tokenIn, err := solana.PublicKeyFromBase58(stored.TokenIn)
	if err != nil {
		return domain.RouteKey{}, fmt.Errorf("invalid tokenIn: %w", err)
	}

	tokenOut, err := solana.PublicKeyFromBase58(stored.TokenOut)
	if err != nil {
		return domain.RouteKey{}, fmt.Errorf("invalid tokenOut: %w", err)
	}

	venue, err := domain.ParseVenue(stored.Venue)
	if err != nil {
		return domain.RouteKey{}, err
	}

	return domain.RouteKey{TokenIn: tokenIn, TokenOut: tokenOut, Venue: venue}, nil
}

func bigIntToUint128(value *big.Int) bin.Uint128 {
	if value == nil {
		return bin.Uint128{}
	}
	bytes := value.Bytes()

	if len(bytes) > 16 {
		bytes = bytes[len(bytes)-16:]
	}

	var result bin.Uint128

	if len(bytes) <= 8 {
		for i := 0; i < len(bytes); i++ {
			result.Lo |= uint64(bytes[len(bytes)-1-i]) << (8 * i)
		}
	} else {
		for i := 0; i < 8; i++ {
			result.Lo |= uint64(bytes[len(bytes)-1-i]) << (8 * i)
		}
		for i := 8; i < len(bytes) && i < 16; i++ {
			result.Hi |= uint64(bytes[len(bytes)-1-i]) << (8 * (i - 8))
		}
	}

	return result
}
