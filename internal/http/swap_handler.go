package http

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hqvu/agent-swap/internal/domain"
	"github.com/hqvu/agent-swap/internal/http/httputil"
	"github.com/hqvu/agent-swap/internal/services/router"
)

type SwapHandler struct {
	engine *router.Engine
}

func NewSwapHandler(engine *router.Engine) *SwapHandler {
	return &SwapHandler{engine: engine}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/prepare", h.prepareSwap)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// PrepareSwapRequest asks for an executable payload for the best route.
type PrepareSwapRequest struct {
	// Input token mint address (Solana base58 public key)
	InputMint string `json:"inputMint" binding:"required"`

	// Output token mint address (Solana base58 public key)
	OutputMint string `json:"outputMint" binding:"required"`

	// Amount in smallest token units
	Amount string `json:"amount" binding:"required"`

	// Wallet that will sign and pay for the swap
	UserWallet string `json:"userWallet" binding:"required"`

	// Optional venue name; empty means route through the best venue
	Venue string `json:"venue"`
}

// PrepareSwapResponse pairs the winning quote with the ordered account set
// the execution layer needs to build the instruction.
type PrepareSwapResponse struct {
	Quote      QuoteResponse `json:"quote"`
	ProgramID  string        `json:"programId"`
	Accounts   []string      `json:"accounts"`
	AmountIn   string        `json:"amountIn"`
	MinimumOut string        `json:"minimumOut"`
}

func (h *SwapHandler) prepareSwap(c *gin.Context) {
	var req PrepareSwapRequest
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

	amount, err := strconv.ParseUint(req.Amount, 10, 64)
	if err != nil {
		httputil.BadRequest(c, "invalid amount: "+err.Error())
		return
	}

	user, err := solana.PublicKeyFromBase58(req.UserWallet)
	if err != nil {
		httputil.BadRequest(c, "invalid userWallet: "+err.Error())
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

	payload, err := h.engine.PrepareSwap(quote, user)
	if err != nil {
		httputil.FromError(c, err)
		return
	}

	accounts := make([]string, len(payload.Accounts))
	for i, acc := range payload.Accounts {
		accounts[i] = acc.String()
	}

	httputil.Success(c, PrepareSwapResponse{
		Quote:      quoteToResponse(quote),
		ProgramID:  payload.ProgramID.String(),
		Accounts:   accounts,
		AmountIn:   strconv.FormatUint(payload.AmountIn, 10),
		MinimumOut: strconv.FormatUint(payload.MinimumOut, 10),
	})
}
