package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/localmarket/internal/gateway/application"
)

// ReputationHandler 信誉 HTTP 处理器
type ReputationHandler struct {
	gateway *application.MatchingGateway
}

// NewReputationHandler 创建信誉处理器实例。
func NewReputationHandler(gateway *application.MatchingGateway) *ReputationHandler {
	return &ReputationHandler{gateway: gateway}
}

// RegisterRoutes 注册路由。
func (h *ReputationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/reputation")
	{
		api.GET("/:party_id", h.GetRecord)                   // 获取信誉记录
		api.GET("/:party_id/history", h.ListHistory)         // 市民分历史
		api.POST("/:party_id/trust-score", h.RecomputeTrust) // 重算信任分
	}
}

// GetRecord 获取信誉记录
func (h *ReputationHandler) GetRecord(c *gin.Context) {
	record, err := h.gateway.GetReputation(c.Request.Context(), c.Param("party_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, record)
}

// ListHistory 市民分历史
func (h *ReputationHandler) ListHistory(c *gin.Context) {
	entries, err := h.gateway.ListReputationHistory(c.Request.Context(), c.Param("party_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"entries": entries})
}

// RecomputeTrust 重算并返回买家信任分
func (h *ReputationHandler) RecomputeTrust(c *gin.Context) {
	score, err := h.gateway.RecomputeTrustScore(c.Request.Context(), c.Param("party_id"))
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to recompute trust score", "party_id", c.Param("party_id"), "error", err)
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"party_id": c.Param("party_id"), "trust_score": score.String()})
}
