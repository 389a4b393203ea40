// Package application 实现信誉账本的应用服务。
package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/localmarket/internal/reputation/domain"
	"github.com/wyfcoding/localmarket/pkg/lock"
)

// ReputationService 信誉账本应用服务。
// 同一参与方的操作串行执行；不同参与方之间完全并行。
type ReputationService struct {
	repo      domain.ReputationRepository
	txm       domain.TxManager
	publisher domain.EventPublisher
	locks     *lock.Keyed
	now       func() time.Time
}

// NewReputationService 构造函数。
func NewReputationService(repo domain.ReputationRepository, txm domain.TxManager, publisher domain.EventPublisher) *ReputationService {
	return &ReputationService{
		repo:      repo,
		txm:       txm,
		publisher: publisher,
		locks:     lock.NewKeyed(),
		now:       time.Now,
	}
}

// SetClock 注入时钟，仅用于测试。
func (s *ReputationService) SetClock(now func() time.Time) { s.now = now }

// RecordCompletion 记录交易完成带来的信誉分变动。
func (s *ReputationService) RecordCompletion(ctx context.Context, partyID string, delta int, reason string) error {
	return s.adjust(ctx, partyID, delta, reason, true)
}

// RecordCancellation 记录交易取消带来的信誉分变动。
func (s *ReputationService) RecordCancellation(ctx context.Context, partyID string, delta int, reason string) error {
	return s.adjust(ctx, partyID, delta, reason, false)
}

func (s *ReputationService) adjust(ctx context.Context, partyID string, delta int, reason string, completed bool) error {
	unlock := s.locks.Lock(partyID)
	defer unlock()

	record, created, err := s.loadOrInit(ctx, partyID)
	if err != nil {
		return err
	}

	entry := record.Adjust(delta, reason, s.now())
	record.RecordOrderOutcome(completed)

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.saveOrUpdate(ctx, record, created); err != nil {
			return err
		}
		if err := s.repo.SaveScoreEntry(ctx, entry); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.ReputationAdjustedEventType, partyID, domain.ReputationAdjustedEvent{
			PartyID:   partyID,
			Delta:     delta,
			Score:     record.CivilScore,
			Reason:    reason,
			Timestamp: entry.RecordedAt,
		})
	})
	if err != nil {
		return err
	}

	logging.Info(ctx, "reputation adjusted",
		"party_id", partyID, "delta", delta, "score", record.CivilScore, "reason", reason)
	return nil
}

// RecordRating 记录供应商评分，均值增量更新。
func (s *ReputationService) RecordRating(ctx context.Context, supplierID string, rating int) error {
	unlock := s.locks.Lock(supplierID)
	defer unlock()

	record, created, err := s.loadOrInit(ctx, supplierID)
	if err != nil {
		return err
	}
	if err := record.AddSupplierRating(rating); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.saveOrUpdate(ctx, record, created); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.SupplierRatedEventType, supplierID, domain.SupplierRatedEvent{
			SupplierID: supplierID,
			Rating:     rating,
			Average:    record.SupplierRatingAvg.String(),
			Count:      record.SupplierRatingCount,
			Timestamp:  s.now(),
		})
	})
}

// RecordCounterpartRating 记录买家收到的对手方评分。
func (s *ReputationService) RecordCounterpartRating(ctx context.Context, vendorID string, rating int) error {
	unlock := s.locks.Lock(vendorID)
	defer unlock()

	record, created, err := s.loadOrInit(ctx, vendorID)
	if err != nil {
		return err
	}
	if err := record.AddCounterpartRating(rating); err != nil {
		return err
	}
	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		return s.saveOrUpdate(ctx, record, created)
	})
}

// RecordPayment 记录买家一次支付结果（是否按时）。
func (s *ReputationService) RecordPayment(ctx context.Context, vendorID string, onTime bool) error {
	unlock := s.locks.Lock(vendorID)
	defer unlock()

	record, created, err := s.loadOrInit(ctx, vendorID)
	if err != nil {
		return err
	}
	record.RecordPayment(onTime)
	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		return s.saveOrUpdate(ctx, record, created)
	})
}

// RecomputeTrustScore 重算并持久化买家信任分。
func (s *ReputationService) RecomputeTrustScore(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	unlock := s.locks.Lock(vendorID)
	defer unlock()

	record, created, err := s.loadOrInit(ctx, vendorID)
	if err != nil {
		return decimal.Zero, err
	}
	record.TrustScore = record.ComputeTrustScore()

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.saveOrUpdate(ctx, record, created); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.TrustScoreRecomputedEventType, vendorID, domain.TrustScoreRecomputedEvent{
			VendorID:   vendorID,
			TrustScore: record.TrustScore.String(),
			Timestamp:  s.now(),
		})
	})
	if err != nil {
		return decimal.Zero, err
	}
	return record.TrustScore, nil
}

// GetRecord 查询信誉记录，不存在时返回 domain.ErrNotFound。
func (s *ReputationService) GetRecord(ctx context.Context, partyID string) (*domain.ReputationRecord, error) {
	return s.repo.Get(ctx, partyID)
}

// ListHistory 按时间顺序列出分数变动历史。
func (s *ReputationService) ListHistory(ctx context.Context, partyID string) ([]*domain.ScoreEntry, error) {
	return s.repo.ListScoreEntries(ctx, partyID)
}

// loadOrInit 读取记录，不存在时惰性创建初始记录。
func (s *ReputationService) loadOrInit(ctx context.Context, partyID string) (*domain.ReputationRecord, bool, error) {
	record, err := s.repo.Get(ctx, partyID)
	if err == nil {
		return record, false, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewReputationRecord(partyID), true, nil
	}
	return nil, false, err
}

func (s *ReputationService) saveOrUpdate(ctx context.Context, record *domain.ReputationRecord, created bool) error {
	if created {
		return s.repo.Create(ctx, record)
	}
	return s.repo.Update(ctx, record)
}
