// Package mysql 提供网关幂等请求记录的 GORM 仓储实现。
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/localmarket/internal/gateway/domain"
)

type requestRepository struct{ db *gorm.DB }

// NewRequestRepository 创建幂等请求仓储实例。
func NewRequestRepository(db *gorm.DB) domain.RequestRepository {
	return &requestRepository{db: db}
}

// Save 首次写入返回 true。唯一键冲突时读回已有记录返回 false。
func (r *requestRepository) Save(ctx context.Context, record *domain.RequestRecord) (*domain.RequestRecord, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_key"}},
			DoNothing: true,
		}).
		Create(record)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return record, true, nil
	}
	existing, err := r.Get(ctx, record.RequestKey)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// SetResult 执行成功后回填结果引用。
func (r *requestRepository) SetResult(ctx context.Context, requestKey, resultRef string) error {
	return r.db.WithContext(ctx).Model(&domain.RequestRecord{}).
		Where("request_key = ?", requestKey).
		Update("result_ref", resultRef).Error
}

// Release 执行失败后释放请求键，允许同键重试。
func (r *requestRepository) Release(ctx context.Context, requestKey string) error {
	return r.db.WithContext(ctx).
		Where("request_key = ?", requestKey).
		Delete(&domain.RequestRecord{}).Error
}

func (r *requestRepository) Get(ctx context.Context, requestKey string) (*domain.RequestRecord, error) {
	var record domain.RequestRecord
	err := r.db.WithContext(ctx).Where("request_key = ?", requestKey).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
