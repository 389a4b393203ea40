package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/localmarket/internal/order/domain"
)

type orderRepository struct{ db *gorm.DB }

// NewOrderRepository 创建订单仓储实例。
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) session(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	err := r.session(ctx).Create(order).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *orderRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := r.session(ctx).
		Preload("Bids").
		Preload("GroupBuy").
		Preload("GroupBuy.Participants").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC, id ASC") }).
		Where("order_id = ?", orderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetBySourceRef(ctx context.Context, sourceRef string) (*domain.Order, error) {
	var order domain.Order
	err := r.session(ctx).Where("source_ref = ?", sourceRef).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update 带乐观锁更新聚合：CAS 主行，报价/参与者做定向 upsert，历史只追加。
func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	tx := r.session(ctx)

	current := order.Version
	order.Version = current + 1
	res := tx.Model(&domain.Order{}).
		Where("order_id = ? AND version = ?", order.OrderID, current).
		Updates(map[string]any{
			"supplier_id":      order.SupplierID,
			"final_price":      order.FinalPrice,
			"status":           order.Status,
			"delivery_carrier": order.DeliveryCarrier,
			"tracking_number":  order.TrackingNumber,
			"version":          order.Version,
		})
	if res.Error != nil {
		order.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		order.Version = current
		return domain.ErrConflict
	}

	// 报价按 (order_ref, supplier_id) 定向覆盖，不重写整个聚合
	for i := range order.Bids {
		bid := &order.Bids[i]
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_ref"}, {Name: "supplier_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "message", "turnaround_minutes", "accepted", "submitted_at"}),
		}).Create(bid).Error; err != nil {
			return err
		}
	}

	if order.GroupBuy != nil {
		for i := range order.GroupBuy.Participants {
			p := &order.GroupBuy.Participants[i]
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "order_ref"}, {Name: "vendor_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "joined_at"}),
			}).Create(p).Error; err != nil {
				return err
			}
		}
	}

	// 历史只追加：仅写入尚未持久化的新条目
	for i := range order.StatusHistory {
		entry := &order.StatusHistory[i]
		if entry.ID != 0 {
			continue
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) ListByVendor(ctx context.Context, vendorID string, status domain.OrderStatus, limit, offset int) ([]*domain.Order, int64, error) {
	return r.list(ctx, "vendor_id = ?", vendorID, status, limit, offset)
}

func (r *orderRepository) ListBySupplier(ctx context.Context, supplierID string, status domain.OrderStatus, limit, offset int) ([]*domain.Order, int64, error) {
	return r.list(ctx, "supplier_id = ?", supplierID, status, limit, offset)
}

func (r *orderRepository) list(ctx context.Context, cond, arg string, status domain.OrderStatus, limit, offset int) ([]*domain.Order, int64, error) {
	query := r.session(ctx).Model(&domain.Order{}).Where(cond, arg)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []*domain.Order
	err := query.
		Preload("Bids").
		Preload("GroupBuy").
		Preload("GroupBuy.Participants").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) ListExpiredGroupOrders(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.session(ctx).Model(&domain.Order{}).
		Joins("JOIN order_group_buys ON order_group_buys.order_ref = orders.order_id").
		Where("orders.kind = ? AND orders.status IN ? AND order_group_buys.deadline < ?",
			domain.KindGroup, []domain.OrderStatus{domain.StatusPending, domain.StatusBidding}, now).
		Limit(limit).
		Pluck("orders.order_id", &ids).Error
	return ids, err
}
