package http

import (
	"strconv"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/http/httputil"
	"github.com/hqvu/agent-swap/internal/services/market"
	"github.com/hqvu/agent-swap/internal/services/router"
)

type PoolHandler struct {
	registry *market.Registry
	engine   *router.Engine
}

func NewPoolHandler(registry *market.Registry, engine *router.Engine) *PoolHandler {
	return &PoolHandler{registry: registry, engine: engine}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/list", h.listPools)
	pub.GET("/stats", h.getStats)
	admin.POST("", h.upsertPool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// PoolInfo contains basic information about a liquidity pool
type PoolInfo struct {
	// Pool address (Solana public key)
	Address string `json:"address"`

	// Venue name ("raydium" or "whirlpool")
	Venue string `json:"venue"`

	// First token mint address in the pair
	TokenMintA string `json:"tokenMintA"`

	// Second token mint address in the pair
	TokenMintB string `json:"tokenMintB"`

	// Fee charged on input amount, in basis points
	FeeRateBps uint16 `json:"feeRateBps"`

	// Slot of the last observed state update
	LastUpdatedSlot uint64 `json:"lastUpdatedSlot"`
}

// PoolStatsResponse summarizes the tracked pool set
type PoolStatsResponse struct {
	// Pool count per venue name
	PoolsByVenue map[string]int `json:"poolsByVenue"`

	// Total tracked pools across all venues
	Total int `json:"total"`

	// Quotes currently held by the best-quote cache
	CachedQuotes int `json:"cachedQuotes"`
}

func (h *PoolHandler) listPools(c *gin.Context) {
	pools := h.registry.AllPools()

	infos := make([]PoolInfo, len(pools))
	for i, pool := range pools {
		infos[i] = PoolInfo{
			Address:         pool.Address.String(),
			Venue:           pool.Venue.String(),
			TokenMintA:      pool.TokenMintA.String(),
			TokenMintB:      pool.TokenMintB.String(),
			FeeRateBps:      pool.FeeRateBps,
			LastUpdatedSlot: pool.LastUpdatedSlot,
		}
	}

	httputil.Success(c, gin.H{"pools": infos, "total": len(infos)})
}

func (h *PoolHandler) getStats(c *gin.Context) {
	pools := h.registry.AllPools()

	byVenue := make(map[string]int)
	for _, pool := range pools {
		byVenue[pool.Venue.String()]++
	}

	httputil.Success(c, PoolStatsResponse{
		PoolsByVenue: byVenue,
		Total:        len(pools),
		CachedQuotes: h.engine.CacheSize(),
	})
}

// UpsertPoolRequest pushes fresh pool state into an adapter.
type UpsertPoolRequest struct {
	Address         string `json:"address" binding:"required"`
	Venue           string `json:"venue" binding:"required"`
	ProgramID       string `json:"programId"`
	TokenMintA      string `json:"tokenMintA" binding:"required"`
	TokenMintB      string `json:"tokenMintB" binding:"required"`
	ReserveA        string `json:"reserveA"`
	ReserveB        string `json:"reserveB"`
	FeeRateBps      uint16 `json:"feeRateBps"`
	LastUpdatedSlot uint64 `json:"lastUpdatedSlot"`

	Whirlpool *UpsertWhirlpoolData `json:"whirlpool,omitempty"`
}

type UpsertWhirlpoolData struct {
	TickCurrentIndex   int32  `json:"tickCurrentIndex"`
	TickSpacing        uint16 `json:"tickSpacing"`
	ProtocolFeeRateBps uint16 `json:"protocolFeeRateBps"`
	LiquidityLo        uint64 `json:"liquidityLo"`
	LiquidityHi        uint64 `json:"liquidityHi"`
}

func (h *PoolHandler) upsertPool(c *gin.Context) {
	var req UpsertPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	pool, err := upsertRequestToPool(&req)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	if err := h.engine.UpsertPool(pool); err != nil {
		httputil.FromError(c, err)
		return
	}

	httputil.Success(c, gin.H{"address": pool.Address.String()})
}

func upsertRequestToPool(req *UpsertPoolRequest) (*domain.Pool, error) {
	address, err := solana.PublicKeyFromBase58(req.Address)
	if err != nil {
		return nil, err
	}

	venue, err := domain.ParseVenue(req.Venue)
	if err != nil {
		return nil, err
	}

	tokenMintA, err := solana.PublicKeyFromBase58(req.TokenMintA)
	if err != nil {
		return nil, err
	}

	tokenMintB, err := solana.PublicKeyFromBase58(req.TokenMintB)
	if err != nil {
		return nil, err
	}

	pool := &domain.Pool{
		Address:         address,
		Venue:           venue,
		TokenMintA:      tokenMintA,
		TokenMintB:      tokenMintB,
		FeeRateBps:      req.FeeRateBps,
		LastUpdatedSlot: req.LastUpdatedSlot,
	}

	if req.ProgramID != "" {
		programID, err := solana.PublicKeyFromBase58(req.ProgramID)
		if err != nil {
			return nil, err
		}
		pool.ProgramID = programID
	}

	if req.ReserveA != "" {
		if pool.ReserveA, err = strconv.ParseUint(req.ReserveA, 10, 64); err != nil {
			return nil, err
		}
	}
	if req.ReserveB != "" {
		if pool.ReserveB, err = strconv.ParseUint(req.ReserveB, 10, 64); err != nil {
			return nil, err
		}
	}

	if req.Whirlpool != nil {
		pool.Whirlpool = &domain.WhirlpoolData{
			TickCurrentIndex:   req.Whirlpool.TickCurrentIndex,
			TickSpacing:        req.Whirlpool.TickSpacing,
			ProtocolFeeRateBps: req.Whirlpool.ProtocolFeeRateBps,
			Liquidity: bin.Uint128{
				Lo: req.Whirlpool.LiquidityLo,
				Hi: req.Whirlpool.LiquidityHi,
			},
		}
	}

	return pool, nil
}
