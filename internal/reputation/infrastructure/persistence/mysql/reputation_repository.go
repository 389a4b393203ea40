package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/localmarket/internal/reputation/domain"
)

type reputationRepository struct{ db *gorm.DB }

// NewReputationRepository 创建信誉仓储实例。
func NewReputationRepository(db *gorm.DB) domain.ReputationRepository {
	return &reputationRepository{db: db}
}

// session 优先使用上下文中的事务连接。
func (r *reputationRepository) session(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *reputationRepository) Get(ctx context.Context, partyID string) (*domain.ReputationRecord, error) {
	var record domain.ReputationRecord
	err := r.session(ctx).Where("party_id = ?", partyID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *reputationRepository) Create(ctx context.Context, record *domain.ReputationRecord) error {
	return r.session(ctx).Create(record).Error
}

// Update 带乐观锁更新：版本不匹配时返回 ErrConflict，不允许静默覆盖并发写。
func (r *reputationRepository) Update(ctx context.Context, record *domain.ReputationRecord) error {
	current := record.Version
	record.Version = current + 1
	res := r.session(ctx).Model(&domain.ReputationRecord{}).
		Where("party_id = ? AND version = ?", record.PartyID, current).
		Updates(map[string]any{
			"civil_score":              record.CivilScore,
			"history_cursor":           record.HistoryCursor,
			"history_len":              record.HistoryLen,
			"supplier_rating_avg":      record.SupplierRatingAvg,
			"supplier_rating_count":    record.SupplierRatingCount,
			"on_time_payments":         record.OnTimePayments,
			"total_payments":           record.TotalPayments,
			"completed_orders":         record.CompletedOrders,
			"total_orders":             record.TotalOrders,
			"counterpart_rating_avg":   record.CounterpartRatingAvg,
			"counterpart_rating_count": record.CounterpartRatingCount,
			"trust_score":              record.TrustScore,
			"version":                  record.Version,
		})
	if res.Error != nil {
		record.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		record.Version = current
		return domain.ErrConflict
	}
	return nil
}

// SaveScoreEntry 写入历史条目，同 slot 冲突时覆盖（环形缓冲淘汰）。
func (r *reputationRepository) SaveScoreEntry(ctx context.Context, entry *domain.ScoreEntry) error {
	return r.session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "party_id"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "delta", "reason", "recorded_at"}),
	}).Create(entry).Error
}

func (r *reputationRepository) ListScoreEntries(ctx context.Context, partyID string) ([]*domain.ScoreEntry, error) {
	var entries []*domain.ScoreEntry
	err := r.session(ctx).
		Where("party_id = ?", partyID).
		Order("recorded_at ASC").
		Find(&entries).Error
	return entries, err
}
