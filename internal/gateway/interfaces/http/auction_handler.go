package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/localmarket/internal/gateway/application"
)

// AuctionHandler 竞拍 HTTP 处理器
type AuctionHandler struct {
	gateway *application.MatchingGateway
}

// NewAuctionHandler 创建竞拍处理器实例。
func NewAuctionHandler(gateway *application.MatchingGateway) *AuctionHandler {
	return &AuctionHandler{gateway: gateway}
}

// RegisterRoutes 注册路由。
func (h *AuctionHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/auctions")
	{
		api.POST("", h.CreateAuction)     // 创建竞拍
		api.GET("", h.ListAuctions)       // 列出竞拍
		api.GET("/:id", h.GetAuction)     // 获取竞拍详情
		api.POST("/:id/bids", h.PlaceBid) // 出价
		api.POST("/:id/close", h.Close)   // 提前截止
		api.DELETE("/:id", h.Cancel)      // 取消竞拍
	}
}

// CreateAuctionRequest 创建竞拍请求
type CreateAuctionRequest struct {
	RequestKey    string    `json:"request_key"`
	ItemName      string    `json:"item_name" binding:"required"`
	Quantity      string    `json:"quantity" binding:"required"`
	Unit          string    `json:"unit" binding:"required"`
	StartingPrice string    `json:"starting_price" binding:"required"`
	ReservePrice  string    `json:"reserve_price"`
	EndTime       time.Time `json:"end_time" binding:"required"`
}

// CreateAuction 创建竞拍
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	var req CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid quantity", "")
		return
	}
	startingPrice, err := decimal.NewFromString(req.StartingPrice)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid starting_price", "")
		return
	}
	var reservePrice decimal.NullDecimal
	if req.ReservePrice != "" {
		reserve, err := decimal.NewFromString(req.ReservePrice)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid reserve_price", "")
			return
		}
		reservePrice = decimal.NewNullDecimal(reserve)
	}

	auctionID, err := h.gateway.CreateAuction(c.Request.Context(), actorFrom(c), application.CreateAuctionRequest{
		RequestKey:    req.RequestKey,
		ItemName:      req.ItemName,
		Quantity:      quantity,
		Unit:          req.Unit,
		StartingPrice: startingPrice,
		ReservePrice:  reservePrice,
		EndTime:       req.EndTime,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to create auction", "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"auction_id": auctionID})
}

// PlaceBidRequest 出价请求
type PlaceBidRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// PlaceBid 出价
func (h *AuctionHandler) PlaceBid(c *gin.Context) {
	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount", "")
		return
	}

	if err := h.gateway.PlaceAuctionBid(c.Request.Context(), actorFrom(c), c.Param("id"), amount); err != nil {
		logging.Error(c.Request.Context(), "Failed to place bid", "auction_id", c.Param("id"), "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "placed"})
}

// Close 提前截止竞拍
func (h *AuctionHandler) Close(c *gin.Context) {
	if err := h.gateway.CloseAuction(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		logging.Error(c.Request.Context(), "Failed to close auction", "auction_id", c.Param("id"), "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "closed"})
}

// Cancel 取消竞拍
func (h *AuctionHandler) Cancel(c *gin.Context) {
	if err := h.gateway.CancelAuction(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "cancelled"})
}

// GetAuction 获取竞拍详情
func (h *AuctionHandler) GetAuction(c *gin.Context) {
	auction, err := h.gateway.GetAuction(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, auction)
}

// ListAuctions 列出竞拍
func (h *AuctionHandler) ListAuctions(c *gin.Context) {
	limit, offset := pagination(c)
	auctions, total, err := h.gateway.ListAuctions(c.Request.Context(), actorFrom(c), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"auctions": auctions, "total": total})
}
