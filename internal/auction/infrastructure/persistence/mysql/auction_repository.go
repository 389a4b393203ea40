// Package mysql 提供竞拍聚合的 GORM 仓储实现。
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"

	"github.com/wyfcoding/localmarket/internal/auction/domain"
)

type auctionRepository struct{ db *gorm.DB }

// NewAuctionRepository 创建竞拍仓储实例。
func NewAuctionRepository(db *gorm.DB) domain.AuctionRepository {
	return &auctionRepository{db: db}
}

func (r *auctionRepository) session(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *auctionRepository) Create(ctx context.Context, auction *domain.Auction) error {
	err := r.session(ctx).Create(auction).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *auctionRepository) Get(ctx context.Context, auctionID string) (*domain.Auction, error) {
	var auction domain.Auction
	err := r.session(ctx).
		Preload("Bids", func(db *gorm.DB) *gorm.DB { return db.Order("placed_at ASC, id ASC") }).
		Where("auction_id = ?", auctionID).
		First(&auction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

// Update 带乐观锁更新聚合：CAS 主行，出价记录清旧标记后追加新行。
func (r *auctionRepository) Update(ctx context.Context, auction *domain.Auction) error {
	tx := r.session(ctx)

	current := auction.Version
	auction.Version = current + 1
	res := tx.Model(&domain.Auction{}).
		Where("auction_id = ? AND version = ?", auction.AuctionID, current).
		Updates(map[string]any{
			"current_price": auction.CurrentPrice,
			"status":        auction.Status,
			"winner_id":     auction.WinnerID,
			"winning_price": auction.WinningPrice,
			"confirmed_at":  auction.ConfirmedAt,
			"version":       auction.Version,
		})
	if res.Error != nil {
		auction.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		auction.Version = current
		return domain.ErrConflict
	}

	// 胜出标记重算后统一落库，再追加新出价行
	if err := tx.Model(&domain.AuctionBid{}).
		Where("auction_ref = ? AND is_winning = ?", auction.AuctionID, true).
		Update("is_winning", false).Error; err != nil {
		return err
	}
	for i := range auction.Bids {
		bid := &auction.Bids[i]
		if bid.ID == 0 {
			if err := tx.Create(bid).Error; err != nil {
				return err
			}
			continue
		}
		if bid.IsWinning {
			if err := tx.Model(&domain.AuctionBid{}).
				Where("id = ?", bid.ID).
				Update("is_winning", true).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *auctionRepository) ListBySupplier(ctx context.Context, supplierID string, status domain.AuctionStatus, limit, offset int) ([]*domain.Auction, int64, error) {
	query := r.session(ctx).Model(&domain.Auction{}).Where("supplier_id = ?", supplierID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return r.page(query, limit, offset)
}

func (r *auctionRepository) ListActive(ctx context.Context, limit, offset int) ([]*domain.Auction, int64, error) {
	query := r.session(ctx).Model(&domain.Auction{}).Where("status = ?", domain.StatusActive)
	return r.page(query, limit, offset)
}

func (r *auctionRepository) page(query *gorm.DB, limit, offset int) ([]*domain.Auction, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var auctions []*domain.Auction
	err := query.
		Preload("Bids").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&auctions).Error
	return auctions, total, err
}

func (r *auctionRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.session(ctx).Model(&domain.Auction{}).
		Where("status = ? AND end_time < ?", domain.StatusActive, now).
		Limit(limit).
		Pluck("auction_id", &ids).Error
	return ids, err
}
