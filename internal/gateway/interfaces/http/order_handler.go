package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/localmarket/internal/gateway/application"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	gateway *application.MatchingGateway
}

// NewOrderHandler 创建订单处理器实例。
func NewOrderHandler(gateway *application.MatchingGateway) *OrderHandler {
	return &OrderHandler{gateway: gateway}
}

// RegisterRoutes 注册路由。
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/orders")
	{
		api.POST("", h.CreateOrder)                  // 创建订单
		api.GET("", h.ListOrders)                    // 列出订单
		api.GET("/:id", h.GetOrder)                  // 获取订单详情
		api.POST("/:id/bids", h.SubmitBid)           // 供应商报价
		api.POST("/:id/accept", h.AcceptBid)         // 接受报价
		api.POST("/:id/join", h.JoinGroup)           // 加入内嵌拼单
		api.POST("/:id/status", h.AdvanceStatus)     // 推进状态
		api.POST("/:id/notes", h.AddNote)            // 追加备注
		api.PUT("/:id/tracking", h.UpdateTracking)   // 更新物流
		api.POST("/:id/rating", h.RateSupplier)      // 买家评分
		api.POST("/:id/vendor-rating", h.RateVendor) // 供应商评分
		api.POST("/:id/payment", h.RecordPayment)    // 记录付款时效
	}
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	RequestKey      string    `json:"request_key"`
	Kind            string    `json:"kind" binding:"required,oneof=individual group"`
	Quantity        string    `json:"quantity" binding:"required"`
	EstimatedPrice  string    `json:"estimated_price" binding:"required"`
	MinParticipants int       `json:"min_participants"`
	MaxParticipants int       `json:"max_participants"`
	Deadline        time.Time `json:"deadline"`
}

// CreateOrder 创建订单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid quantity", "")
		return
	}
	price, err := decimal.NewFromString(req.EstimatedPrice)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid estimated_price", "")
		return
	}

	orderID, err := h.gateway.CreateOrder(c.Request.Context(), actorFrom(c), application.CreateOrderRequest{
		RequestKey:      req.RequestKey,
		Kind:            req.Kind,
		Quantity:        quantity,
		EstimatedPrice:  price,
		MinParticipants: req.MinParticipants,
		MaxParticipants: req.MaxParticipants,
		Deadline:        req.Deadline,
	})
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to create order", "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"order_id": orderID})
}

// SubmitBidRequest 报价请求
type SubmitBidRequest struct {
	Price             string `json:"price" binding:"required"`
	Message           string `json:"message"`
	TurnaroundMinutes int    `json:"turnaround_minutes" binding:"required,gt=0"`
}

// SubmitBid 供应商报价
func (h *OrderHandler) SubmitBid(c *gin.Context) {
	var req SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid price", "")
		return
	}

	if err := h.gateway.SubmitBid(c.Request.Context(), actorFrom(c), c.Param("id"), price, req.Message, req.TurnaroundMinutes); err != nil {
		logging.Error(c.Request.Context(), "Failed to submit bid", "order_id", c.Param("id"), "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "submitted"})
}

// AcceptBidRequest 接受报价请求
type AcceptBidRequest struct {
	SupplierID string `json:"supplier_id" binding:"required"`
}

// AcceptBid 买家接受报价
func (h *OrderHandler) AcceptBid(c *gin.Context) {
	var req AcceptBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.gateway.AcceptBid(c.Request.Context(), actorFrom(c), c.Param("id"), req.SupplierID); err != nil {
		logging.Error(c.Request.Context(), "Failed to accept bid", "order_id", c.Param("id"), "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "accepted"})
}

// JoinGroupRequest 加入拼单请求
type JoinGroupRequest struct {
	Quantity string `json:"quantity" binding:"required"`
}

// JoinGroup 加入订单内嵌拼单
func (h *OrderHandler) JoinGroup(c *gin.Context) {
	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid quantity", "")
		return
	}

	if err := h.gateway.JoinOrderGroup(c.Request.Context(), actorFrom(c), c.Param("id"), quantity); err != nil {
		logging.Error(c.Request.Context(), "Failed to join group", "order_id", c.Param("id"), "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "joined"})
}

// AdvanceStatusRequest 推进状态请求
type AdvanceStatusRequest struct {
	NewStatus string `json:"new_status" binding:"required"`
	Note      string `json:"note"`
}

// AdvanceStatus 推进订单状态
func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.gateway.AdvanceOrderStatus(c.Request.Context(), actorFrom(c), c.Param("id"), req.NewStatus, req.Note); err != nil {
		logging.Error(c.Request.Context(), "Failed to advance status", "order_id", c.Param("id"), "new_status", req.NewStatus, "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": req.NewStatus})
}

// AddNoteRequest 追加备注请求
type AddNoteRequest struct {
	Note string `json:"note" binding:"required"`
}

// AddNote 追加订单备注
func (h *OrderHandler) AddNote(c *gin.Context) {
	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.gateway.AddOrderNote(c.Request.Context(), actorFrom(c), c.Param("id"), req.Note); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "noted"})
}

// UpdateTrackingRequest 更新物流请求
type UpdateTrackingRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// UpdateTracking 更新物流信息
func (h *OrderHandler) UpdateTracking(c *gin.Context) {
	var req UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.gateway.UpdateDeliveryTracking(c.Request.Context(), actorFrom(c), c.Param("id"), req.Carrier, req.TrackingNumber); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "updated"})
}

// RatingRequest 评分请求
type RatingRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// RateSupplier 买家对供应商评分
func (h *OrderHandler) RateSupplier(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.gateway.RateSupplier(c.Request.Context(), actorFrom(c), c.Param("id"), req.Rating); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "rated"})
}

// RateVendor 供应商对买家评分
func (h *OrderHandler) RateVendor(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.gateway.RateVendor(c.Request.Context(), actorFrom(c), c.Param("id"), req.Rating); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "rated"})
}

// RecordPaymentRequest 付款时效请求
type RecordPaymentRequest struct {
	OnTime *bool `json:"on_time" binding:"required"`
}

// RecordPayment 记录买家付款时效
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.gateway.RecordPayment(c.Request.Context(), actorFrom(c), c.Param("id"), *req.OnTime); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "recorded"})
}

// GetOrder 获取订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.gateway.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 列出当前调用方的订单
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, offset := pagination(c)
	orders, total, err := h.gateway.ListOrders(c.Request.Context(), actorFrom(c), c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"orders": orders, "total": total})
}

func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
