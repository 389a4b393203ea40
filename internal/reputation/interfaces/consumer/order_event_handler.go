// Package consumer 订阅订单终态事件，异步刷新买家信任分。
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/wyfcoding/localmarket/internal/reputation/application"
)

// 订阅的订单事件主题（与 order 上下文发布的主题约定一致）。
const (
	OrderCompletedTopic = "order.completed"
	OrderCancelledTopic = "order.cancelled"
)

// orderTerminalEvent 订单终态事件的消费侧契约，只解码需要的字段。
type orderTerminalEvent struct {
	OrderID  string `json:"order_id"`
	VendorID string `json:"vendor_id"`
}

// OrderEventHandler 订单事件投影处理器。
type OrderEventHandler struct {
	reputation *application.ReputationService
	logger     *slog.Logger
}

// NewOrderEventHandler 创建处理器实例。
func NewOrderEventHandler(reputation *application.ReputationService, logger *slog.Logger) *OrderEventHandler {
	return &OrderEventHandler{reputation: reputation, logger: logger}
}

// Handle 处理一条订单事件消息。
// 民事分在订单事务内同步更新；这里只做信任分的异步重算。
func (h *OrderEventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case OrderCompletedTopic, OrderCancelledTopic:
		var event orderTerminalEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal order terminal event", "topic", msg.Topic, "error", err)
			return err
		}
		if event.VendorID == "" {
			return nil
		}
		if _, err := h.reputation.RecomputeTrustScore(ctx, event.VendorID); err != nil {
			h.logger.ErrorContext(ctx, "failed to recompute trust score",
				"vendor_id", event.VendorID, "order_id", event.OrderID, "error", err)
			return err
		}
		return nil
	default:
		return nil
	}
}
