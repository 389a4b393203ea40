package application

import (
	"context"

	"github.com/wyfcoding/localmarket/internal/groupbuy/domain"
)

// GroupBuyQueryService 团购读操作服务。
type GroupBuyQueryService struct {
	repo domain.GroupBuyRepository
}

// NewGroupBuyQueryService 构造函数。
func NewGroupBuyQueryService(repo domain.GroupBuyRepository) *GroupBuyQueryService {
	return &GroupBuyQueryService{repo: repo}
}

// GetGroupBuy 获取团购详情。
func (s *GroupBuyQueryService) GetGroupBuy(ctx context.Context, groupBuyID string) (*GroupBuyDTO, error) {
	groupBuy, err := s.repo.Get(ctx, groupBuyID)
	if err != nil {
		return nil, err
	}
	return toGroupBuyDTO(groupBuy), nil
}

// ListBySupplier 按发起方列出团购。
func (s *GroupBuyQueryService) ListBySupplier(ctx context.Context, supplierID string, status domain.GroupBuyStatus, limit, offset int) ([]*GroupBuyDTO, int64, error) {
	groupBuys, total, err := s.repo.ListBySupplier(ctx, supplierID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toGroupBuyDTOs(groupBuys), total, nil
}

// ListActive 列出招募中的团购。
func (s *GroupBuyQueryService) ListActive(ctx context.Context, limit, offset int) ([]*GroupBuyDTO, int64, error) {
	groupBuys, total, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toGroupBuyDTOs(groupBuys), total, nil
}
