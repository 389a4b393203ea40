// Package application 实现订单生命周期的应用服务。
package application

import (
	"github.com/wyfcoding/localmarket/internal/order/domain"
)

// OrderService 订单服务门面，整合命令和查询服务。
type OrderService struct {
	Command *OrderCommandService
	Query   *OrderQueryService
}

// NewOrderService 构造函数。
func NewOrderService(
	repo domain.OrderRepository,
	txm domain.TxManager,
	publisher domain.EventPublisher,
	reputation domain.ReputationRecorder,
) *OrderService {
	return &OrderService{
		Command: NewOrderCommandService(repo, txm, publisher, reputation),
		Query:   NewOrderQueryService(repo),
	}
}
