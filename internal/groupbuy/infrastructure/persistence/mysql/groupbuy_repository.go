// Package mysql 提供团购聚合的 GORM 仓储实现。
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/localmarket/internal/groupbuy/domain"
)

type groupBuyRepository struct{ db *gorm.DB }

// NewGroupBuyRepository 创建团购仓储实例。
func NewGroupBuyRepository(db *gorm.DB) domain.GroupBuyRepository {
	return &groupBuyRepository{db: db}
}

func (r *groupBuyRepository) session(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *groupBuyRepository) Create(ctx context.Context, groupBuy *domain.GroupBuy) error {
	err := r.session(ctx).Create(groupBuy).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *groupBuyRepository) Get(ctx context.Context, groupBuyID string) (*domain.GroupBuy, error) {
	var groupBuy domain.GroupBuy
	err := r.session(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC, id ASC") }).
		Where("group_buy_id = ?", groupBuyID).
		First(&groupBuy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &groupBuy, nil
}

// Update 带乐观锁更新聚合：CAS 主行，参与者按 (group_buy_ref, vendor_id) 定向 upsert。
func (r *groupBuyRepository) Update(ctx context.Context, groupBuy *domain.GroupBuy) error {
	tx := r.session(ctx)

	current := groupBuy.Version
	groupBuy.Version = current + 1
	res := tx.Model(&domain.GroupBuy{}).
		Where("group_buy_id = ? AND version = ?", groupBuy.GroupBuyID, current).
		Updates(map[string]any{
			"status":  groupBuy.Status,
			"version": groupBuy.Version,
		})
	if res.Error != nil {
		groupBuy.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		groupBuy.Version = current
		return domain.ErrConflict
	}

	for i := range groupBuy.Participants {
		p := &groupBuy.Participants[i]
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_buy_ref"}, {Name: "vendor_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "status", "joined_at"}),
		}).Create(p).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *groupBuyRepository) ListBySupplier(ctx context.Context, supplierID string, status domain.GroupBuyStatus, limit, offset int) ([]*domain.GroupBuy, int64, error) {
	query := r.session(ctx).Model(&domain.GroupBuy{}).Where("supplier_id = ?", supplierID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return r.page(query, limit, offset)
}

func (r *groupBuyRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.GroupBuy, int64, error) {
	query := r.session(ctx).Model(&domain.GroupBuy{}).Where("status = ?", domain.StatusActive)
	return r.page(query, limit, offset)
}

func (r *groupBuyRepository) page(query *gorm.DB, limit, offset int) ([]*domain.GroupBuy, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var groupBuys []*domain.GroupBuy
	err := query.
		Preload("Participants").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&groupBuys).Error
	return groupBuys, total, err
}

func (r *groupBuyRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.session(ctx).Model(&domain.GroupBuy{}).
		Where("status = ? AND deadline < ?", domain.StatusActive, now).
		Limit(limit).
		Pluck("group_buy_id", &ids).Error
	return ids, err
}
