package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// GroupBuyRepository 团购仓储接口。
type GroupBuyRepository interface {
	Create(ctx context.Context, groupBuy *GroupBuy) error
	Get(ctx context.Context, groupBuyID string) (*GroupBuy, error)
	Update(ctx context.Context, groupBuy *GroupBuy) error
	ListBySupplier(ctx context.Context, supplierID string, status GroupBuyStatus, limit, offset int) ([]*GroupBuy, int64, error)
	ListActive(ctx context.Context, limit, offset int) ([]*GroupBuy, int64, error)
	// ListExpiredActive 返回已过截止时间但仍为 active 的团购 ID，供后台清扫。
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// TxManager 事务管理接口。
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher 领域事件发布接口。
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// SettledOrder 团购履约扇出订单的参数。
type SettledOrder struct {
	VendorID   string
	SupplierID string
	Quantity   decimal.Decimal
	FinalPrice decimal.Decimal
	SourceRef  string
}

// OrderCreator 由订单上下文实现，按 SourceRef 幂等地创建已定价订单。
type OrderCreator interface {
	CreateSettledOrder(ctx context.Context, spec SettledOrder) (string, error)
}
