package domain

import (
	"context"
	"time"
)

// OrderRepository 订单仓储接口。
type OrderRepository interface {
	// 保存新订单（含子记录），source_ref 冲突时返回 ErrConflict
	Create(ctx context.Context, order *Order) error
	// 按业务 ID 加载订单（含报价、拼单、历史），不存在时返回 ErrNotFound
	Get(ctx context.Context, orderID string) (*Order, error)
	// 按幂等来源查找订单，不存在时返回 ErrNotFound
	GetBySourceRef(ctx context.Context, sourceRef string) (*Order, error)
	// 带乐观锁更新聚合：CAS 主行并落子记录变更，版本不匹配时返回 ErrConflict
	Update(ctx context.Context, order *Order) error
	// 按买家列出订单
	ListByVendor(ctx context.Context, vendorID string, status OrderStatus, limit, offset int) ([]*Order, int64, error)
	// 按供应商列出订单
	ListBySupplier(ctx context.Context, supplierID string, status OrderStatus, limit, offset int) ([]*Order, int64, error)
	// 列出拼单截止时间已过、仍在开标阶段的订单 ID
	ListExpiredGroupOrders(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// TxManager 事务管理接口，保证字段变更与历史追加的原子性。
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher 领域事件发布接口。
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// ReputationRecorder 订单终态时需要通知的信誉账本接口。
// 信誉记录是独立聚合，调用发生在订单事务提交之后。
type ReputationRecorder interface {
	RecordCompletion(ctx context.Context, partyID string, delta int, reason string) error
	RecordCancellation(ctx context.Context, partyID string, delta int, reason string) error
}
