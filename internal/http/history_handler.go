package http

import (
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/http/httputil"
	"github.com/hqvu/agent-swap/internal/services/memory"
)

type HistoryHandler struct {
	store *memory.Store
}

func NewHistoryHandler(store *memory.Store) *HistoryHandler {
	return &HistoryHandler{store: store}
}

func (h *HistoryHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/metrics", h.getRouteMetrics)
	pub.GET("/success-rate", h.getSuccessRate)
	pub.GET("/recent", h.getRecentSwaps)
	pub.GET("/stats", h.getStats)
	pub.POST("/record", h.recordSwap)
}

func (h *HistoryHandler) Root() string {
	return "/history"
}

// RouteQuery identifies a route for metrics lookups.
type RouteQuery struct {
	InputMint  string `form:"inputMint" binding:"required"`
	OutputMint string `form:"outputMint" binding:"required"`
	Venue      string `form:"venue" binding:"required"`
}

// RouteMetricsResponse is a point-in-time copy of a route's statistics.
type RouteMetricsResponse struct {
	TotalSwaps      uint64  `json:"totalSwaps"`
	SuccessfulSwaps uint64  `json:"successfulSwaps"`
	AvgPriceImpact  float64 `json:"avgPriceImpact"`
	BestRate        float64 `json:"bestRate"`
	WorstRate       float64 `json:"worstRate"`
	VolumeIn        string  `json:"volumeIn"`
	VolumeOut       string  `json:"volumeOut"`
	LastUpdate      string  `json:"lastUpdate,omitempty"`
}

func (h *HistoryHandler) getRouteMetrics(c *gin.Context) {
	key, ok := h.bindRouteKey(c)
	if !ok {
		return
	}

	m := h.store.GetRelevantSwaps(key)

	resp := RouteMetricsResponse{
		TotalSwaps:      m.TotalSwaps,
		SuccessfulSwaps: m.SuccessfulSwaps,
		AvgPriceImpact:  m.AvgPriceImpact,
		BestRate:        m.BestRate,
		WorstRate:       m.WorstRate,
		VolumeIn:        strconv.FormatUint(m.VolumeIn, 10),
		VolumeOut:       strconv.FormatUint(m.VolumeOut, 10),
	}
	if !m.LastUpdate.IsZero() {
		resp.LastUpdate = m.LastUpdate.UTC().Format(time.RFC3339Nano)
	}

	httputil.Success(c, resp)
}

func (h *HistoryHandler) getSuccessRate(c *gin.Context) {
	key, ok := h.bindRouteKey(c)
	if !ok {
		return
	}

	httputil.Success(c, gin.H{"successRate": h.store.GetSuccessRate(key)})
}

// SwapStatsResponse sums route metrics across every observed route.
type SwapStatsResponse struct {
	TotalSwaps      uint64  `json:"totalSwaps"`
	SuccessfulSwaps uint64  `json:"successfulSwaps"`
	SuccessRate     float64 `json:"successRate"`
	VolumeIn        string  `json:"volumeIn"`
	VolumeOut       string  `json:"volumeOut"`
	Routes          int     `json:"routes"`
	RecordsHeld     int     `json:"recordsHeld"`
}

func (h *HistoryHandler) getStats(c *gin.Context) {
	stats := h.store.Stats()

	httputil.Success(c, SwapStatsResponse{
		TotalSwaps:      stats.TotalSwaps,
		SuccessfulSwaps: stats.SuccessfulSwaps,
		SuccessRate:     stats.SuccessRate,
		VolumeIn:        strconv.FormatUint(stats.VolumeIn, 10),
		VolumeOut:       strconv.FormatUint(stats.VolumeOut, 10),
		Routes:          stats.Routes,
		RecordsHeld:     h.store.Len(),
	})
}

// SwapRecordInfo is the wire form of one retained swap record.
type SwapRecordInfo struct {
	Timestamp      string `json:"timestamp"`
	InputMint      string `json:"inputMint"`
	OutputMint     string `json:"outputMint"`
	AmountIn       string `json:"amountIn"`
	AmountOut      string `json:"amountOut"`
	Venue          string `json:"venue"`
	Success        bool   `json:"success"`
	PriceImpactBps uint16 `json:"priceImpactBps"`
	Signature      string `json:"signature,omitempty"`
}

func (h *HistoryHandler) getRecentSwaps(c *gin.Context) {
	windowSeconds, err := strconv.ParseInt(c.DefaultQuery("windowSeconds", "3600"), 10, 64)
	if err != nil || windowSeconds <= 0 {
		httputil.BadRequest(c, "invalid windowSeconds")
		return
	}

	records := h.store.GetRecentSwaps(time.Duration(windowSeconds) * time.Second)

	infos := make([]SwapRecordInfo, len(records))
	for i, rec := range records {
		infos[i] = SwapRecordInfo{
			Timestamp:      rec.Timestamp.UTC().Format(time.RFC3339Nano),
			InputMint:      rec.TokenIn.String(),
			OutputMint:     rec.TokenOut.String(),
			AmountIn:       strconv.FormatUint(rec.AmountIn, 10),
			AmountOut:      strconv.FormatUint(rec.AmountOut, 10),
			Venue:          rec.Venue.String(),
			Success:        rec.Success,
			PriceImpactBps: rec.PriceImpactBps,
			Signature:      rec.Signature,
		}
	}

	httputil.Success(c, gin.H{"swaps": infos, "count": len(infos)})
}

// RecordSwapRequest reports the outcome of an executed swap.
type RecordSwapRequest struct {
	InputMint      string `json:"inputMint" binding:"required"`
	OutputMint     string `json:"outputMint" binding:"required"`
	AmountIn       string `json:"amountIn" binding:"required"`
	AmountOut      string `json:"amountOut" binding:"required"`
	Venue          string `json:"venue" binding:"required"`
	Success        *bool  `json:"success" binding:"required"`
	PriceImpactBps uint16 `json:"priceImpactBps"`
	Signature      string `json:"signature"`
}

func (h *HistoryHandler) recordSwap(c *gin.Context) {
	var req RecordSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	inputMint, err := solana.PublicKeyFromBase58(req.InputMint)
	if err != nil {
		httputil.BadRequest(c, "invalid inputMint: "+err.Error())
		return
	}

	outputMint, err := solana.PublicKeyFromBase58(req.OutputMint)
	if err != nil {
		httputil.BadRequest(c, "invalid outputMint: "+err.Error())
		return
	}

	venue, err := domain.ParseVenue(req.Venue)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	amountIn, err := strconv.ParseUint(req.AmountIn, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid amountIn: "+err.Error())
		return
	}

	amountOut, err := strconv.ParseUint(req.AmountOut, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid amountOut: "+err.Error())
		return
	}

	quote := &domain.Quote{
		Venue:          venue,
		TokenIn:        inputMint,
		TokenOut:       outputMint,
		AmountIn:       amountIn,
		AmountOut:      amountOut,
		PriceImpactBps: req.PriceImpactBps,
	}

	if err := h.store.Record(quote, *req.Success, req.Signature); err != nil {
		httputil.FromError(c, err)
		return
	}

	httputil.Success(c, gin.H{"recorded": true})
}

func (h *HistoryHandler) bindRouteKey(c *gin.Context) (domain.RouteKey, bool) {
	var q RouteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.BadRequest(c, err.Error())
		return domain.RouteKey{}, false
	}

	inputMint, err := solana.PublicKeyFromBase58(q.InputMint)
	if err != nil {
		httputil.BadRequest(c, "invalid inputMint: "+err.Error())
		return domain.RouteKey{}, false
	}

	outputMint, err := solana.PublicKeyFromBase58(q.OutputMint)
	if err != nil {
		httputil.BadRequest(c, "invalid outputMint: "+err.Error())
		return domain.RouteKey{}, false
	}

	venue, err := domain.ParseVenue(q.Venue)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return domain.RouteKey{}, false
	}

	return domain.RouteKey{TokenIn: inputMint, TokenOut: outputMint, Venue: venue}, true
}
