package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/http/httputil"
	"github.com/hqvu/agent-swap/internal/services/router"
)

type QuoteHandler struct {
	engine *router.Engine
}

func NewQuoteHandler(engine *router.Engine) *QuoteHandler {
	return &QuoteHandler{engine: engine}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest represents the parameters for requesting a swap quote
type QuoteRequest struct {
	// Input token mint address (Solana base58 public key)
	InputMint string `form:"inputMint" binding:"required" example:"So11111111111111111111111111111111111111112"`

	// Output token mint address (Solana base58 public key)
	OutputMint string `form:"outputMint" binding:"required" example:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`

	// Amount in smallest token units (lamports for SOL, base units for SPL tokens)
	Amount string `form:"amount" binding:"required" example:"1000000000"`

	// Optional venue name ("raydium" or "whirlpool"). When empty the engine
	// fans out to every venue and returns the best quote.
	Venue string `form:"venue" example:"raydium"`
}

// QuoteResponse contains the calculated swap quote
type QuoteResponse struct {
	// Venue that produced the winning quote
	Venue string `json:"venue" example:"raydium"`

	// Input token mint address
	InputMint string `json:"inputMint" example:"So11111111111111111111111111111111111111112"`

	// Output token mint address
	OutputMint string `json:"outputMint" example:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`

	// Input amount in smallest token units
	AmountIn string `json:"amountIn" example:"1000000000"`

	// Estimated output amount in smallest token units
	AmountOut string `json:"amountOut" example:"145320000"`

	// Slippage-adjusted floor on the output amount
	MinimumOut string `json:"minimumOut" example:"143866800"`

	// Price impact in basis points (1 bps = 0.01%)
	PriceImpactBps uint16 `json:"priceImpactBps" example:"25"`

	// Price impact severity classification
	PriceImpactSeverity string `json:"priceImpactSeverity" enums:"none,low,moderate,high,extreme" example:"none"`

	// Human-readable warning for elevated impact, empty when negligible
	Warning string `json:"warning,omitempty"`

	// Pool address the quote prices against
	Pool string `json:"pool" example:"HJPjoWUrhoZzkNfRpHuieeFk9WcZWjwy6PBjZ81ngndJ"`
}

func (h *QuoteHandler) getQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
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

	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid amount: "+err.Error())
		return
	}

	var quote *domain.Quote
	if req.Venue != "" {
		venue, err := domain.ParseVenue(req.Venue)
		if err != nil {
			httputil.BadRequest(c, err.Error())
			return
		}
		quote, err = h.engine.GetQuote(c.Request.Context(), venue, inputMint, outputMint, amount)
		if err != nil {
			httputil.FromError(c, err)
			return
		}
	} else {
		quote, err = h.engine.GetBestQuote(c.Request.Context(), inputMint, outputMint, amount)
		if err != nil {
			httputil.FromError(c, err)
			return
		}
	}

	httputil.Success(c, quoteToResponse(quote))
}

func quoteToResponse(quote *domain.Quote) QuoteResponse {
	return QuoteResponse{
		Venue:               quote.Venue.String(),
		InputMint:           quote.TokenIn.String(),
		OutputMint:          quote.TokenOut.String(),
		AmountIn:            strconv.FormatUint(quote.AmountIn, 10),
		AmountOut:           strconv.FormatUint(quote.AmountOut, 10),
		MinimumOut:          strconv.FormatUint(quote.MinimumOut, 10),
		PriceImpactBps:      quote.PriceImpactBps,
		PriceImpactSeverity: string(router.GetPriceImpactSeverity(quote.PriceImpactBps)),
		Warning:             router.GetPriceImpactWarning(quote.PriceImpactBps),
		Pool:                quote.Route.Pool.String(),
	}
}
