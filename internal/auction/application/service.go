// Package application 实现竞拍的应用服务。
package application

import (
	"github.com/wyfcoding/localmarket/internal/auction/domain"
)

// AuctionService 竞拍服务门面，整合命令和查询服务。
type AuctionService struct {
	Command *AuctionCommandService
	Query   *AuctionQueryService
}

// NewAuctionService 构造函数。
func NewAuctionService(
	repo domain.AuctionRepository,
	txm domain.TxManager,
	publisher domain.EventPublisher,
	orders domain.OrderCreator,
) *AuctionService {
	return &AuctionService{
		Command: NewAuctionCommandService(repo, txm, publisher, orders),
		Query:   NewAuctionQueryService(repo),
	}
}
