package application

import (
	"context"

	"github.com/wyfcoding/localmarket/internal/order/domain"
)

// OrderQueryService 订单读操作服务。
type OrderQueryService struct {
	repo domain.OrderRepository
}

// NewOrderQueryService 构造函数。
func NewOrderQueryService(repo domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

// GetOrder 获取订单详情。
func (s *OrderQueryService) GetOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderDTO(order), nil
}

// ListByVendor 按买家列出订单。
func (s *OrderQueryService) ListByVendor(ctx context.Context, vendorID string, status domain.OrderStatus, limit, offset int) ([]*OrderDTO, int64, error) {
	orders, total, err := s.repo.ListByVendor(ctx, vendorID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toOrderDTOs(orders), total, nil
}

// ListBySupplier 按供应商列出订单。
func (s *OrderQueryService) ListBySupplier(ctx context.Context, supplierID string, status domain.OrderStatus, limit, offset int) ([]*OrderDTO, int64, error) {
	orders, total, err := s.repo.ListBySupplier(ctx, supplierID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return toOrderDTOs(orders), total, nil
}

func toOrderDTOs(orders []*domain.Order) []*OrderDTO {
	dtos := make([]*OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, toOrderDTO(o))
	}
	return dtos
}
