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

// GroupBuyHandler 团购 HTTP 处理器
type GroupBuyHandler struct {
	gateway *application.MatchingGateway
}

// NewGroupBuyHandler 创建团购处理器实例。
func NewGroupBuyHandler(gateway *application.MatchingGateway) *GroupBuyHandler {
	return &GroupBuyHandler{gateway: gateway}
}

// RegisterRoutes 注册路由。
func (h *GroupBuyHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/groupbuys")
	{
		api.POST("", h.CreateGroupBuy)             // 发起团购
		api.GET("", h.ListGroupBuys)               // 列出团购
		api.GET("/:id", h.GetGroupBuy)             // 获取团购详情
		api.POST("/:id/join", h.Join)              // 参与认购
		api.POST("/:id/leave", h.Leave)            // 退出团购
		api.POST("/:id/pay", h.MarkPaid)           // 标记已支付
		api.POST("/:id/confirm", h.ConfirmPayment) // 确认支付
		api.POST("/:id/complete", h.Complete)      // 履约扇出订单
		api.DELETE("/:id", h.Cancel)               // 取消团购
	}
}

// CreateGroupBuyRequest 发起团购请求
type CreateGroupBuyRequest struct {
	RequestKey      string    `json:"request_key"`
	ItemName        string    `json:"item_name" binding:"required"`
	TargetQuantity  string    `json:"target_quantity" binding:"required"`
	PricePerUnit    string    `json:"price_per_unit" binding:"required"`
	Unit            string    `json:"unit" binding:"required"`
	MinParticipants int       `json:"min_participants" binding:"required,gte=1"`
	Deadline        time.Time `json:"deadline" binding:"required"`
}

// CreateGroupBuy 发起团购
func (h *GroupBuyHandler) CreateGroupBuy(c *gin.Context) {
	var req CreateGroupBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	target, err := decimal.NewFromString(req.TargetQuantity)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid target_quantity", "")
		return
	}
	price, err := decimal.NewFromString(req.PricePerUnit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid price_per_unit", "")
		return
	}

	groupBuyID, err := h.gateway.CreateGroupBuy(c.Request.Context(), actorFrom(c), application.CreateGroupBuyRequest{
		RequestKey:      req.RequestKey,
		ItemName:        req.ItemName,
		TargetQuantity:  target,
		PricePerUnit:    price,
		Unit:            req.Unit,
		MinParticipants: req.MinParticipants,
		Deadline:        req.Deadline,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to create group buy", "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"groupbuy_id": groupBuyID})
}

// JoinGroupBuyRequest 参与认购请求
type JoinGroupBuyRequest struct {
	Quantity string `json:"quantity" binding:"required"`
}

// Join 参与认购
func (h *GroupBuyHandler) Join(c *gin.Context) {
	var req JoinGroupBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid quantity", "")
		return
	}

	if err := h.gateway.JoinGroupBuy(c.Request.Context(), actorFrom(c), c.Param("id"), quantity); err != nil {
		logging.Error(c.Request.Context(), "Failed to join group buy", "groupbuy_id", c.Param("id"), "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "joined"})
}

// Leave 退出团购
func (h *GroupBuyHandler) Leave(c *gin.Context) {
	if err := h.gateway.LeaveGroupBuy(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "left"})
}

// MarkPaid 标记已支付
func (h *GroupBuyHandler) MarkPaid(c *gin.Context) {
	if err := h.gateway.MarkGroupBuyPaid(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "paid"})
}

// ConfirmPaymentRequest 确认支付请求
type ConfirmPaymentRequest struct {
	VendorID string `json:"vendor_id" binding:"required"`
}

// ConfirmPayment 确认参与者支付
func (h *GroupBuyHandler) ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.gateway.ConfirmGroupBuyPayment(c.Request.Context(), actorFrom(c), c.Param("id"), req.VendorID); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "confirmed"})
}

// Complete 履约扇出订单
func (h *GroupBuyHandler) Complete(c *gin.Context) {
	if err := h.gateway.CompleteGroupBuy(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		logging.Error(c.Request.Context(), "Failed to complete group buy", "groupbuy_id", c.Param("id"), "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "fulfilled"})
}

// Cancel 取消团购
func (h *GroupBuyHandler) Cancel(c *gin.Context) {
	if err := h.gateway.CancelGroupBuy(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "cancelled"})
}

// GetGroupBuy 获取团购详情
func (h *GroupBuyHandler) GetGroupBuy(c *gin.Context) {
	groupBuy, err := h.gateway.GetGroupBuy(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, groupBuy)
}

// ListGroupBuys 列出团购
func (h *GroupBuyHandler) ListGroupBuys(c *gin.Context) {
	limit, offset := pagination(c)
	groupBuys, total, err := h.gateway.ListGroupBuys(c.Request.Context(), actorFrom(c), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"groupbuys": groupBuys, "total": total})
}
