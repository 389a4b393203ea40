// Package application 实现团购的应用服务。
package application

import (
	"github.com/wyfcoding/localmarket/internal/groupbuy/domain"
)

// GroupBuyService 团购服务门面，整合命令和查询服务。
type GroupBuyService struct {
	Command *GroupBuyCommandService
	Query   *GroupBuyQueryService
}

// NewGroupBuyService 构造函数。
func NewGroupBuyService(
	repo domain.GroupBuyRepository,
	txm domain.TxManager,
	publisher domain.EventPublisher,
	orders domain.OrderCreator,
) *GroupBuyService {
	return &GroupBuyService{
		Command: NewGroupBuyCommandService(repo, txm, publisher, orders),
		Query:   NewGroupBuyQueryService(repo),
	}
}
