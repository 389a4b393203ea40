package application

import (
	"context"

	"github.com/wyfcoding/localmarket/internal/auction/domain"
)

// AuctionQueryService 竞拍读操作服务。
type AuctionQueryService struct {
	repo domain.AuctionRepository
}

// NewAuctionQueryService 构造函数。
func NewAuctionQueryService(repo domain.AuctionRepository) *AuctionQueryService {
	return &AuctionQueryService{repo: repo}
}

// GetAuction 获取竞拍详情。
func (s *AuctionQueryService) GetAuction(ctx context.Context, auctionID string) (*AuctionDTO, error) {
	auction, err := s.repo.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return toAuctionDTO(auction), nil
}

// ListBySupplier 按发起方列出竞拍。
func (s *AuctionQueryService) ListBySupplier(ctx context.Context, supplierID string, status domain.AuctionStatus, limit, offset int) ([]*AuctionDTO, int64, error) {
	auctions, total, err := s.repo.ListBySupplier(ctx, supplierID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toAuctionDTOs(auctions), total, nil
}

// ListActive 列出进行中的竞拍。
func (s *AuctionQueryService) ListActive(ctx context.Context, limit, offset int) ([]*AuctionDTO, int64, error) {
	auctions, total, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toAuctionDTOs(auctions), total, nil
}
