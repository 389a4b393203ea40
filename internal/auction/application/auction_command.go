package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/idgen"

	"github.com/wyfcoding/localmarket/internal/auction/domain"
	"github.com/wyfcoding/localmarket/pkg/lock"
)

// CreateAuctionCommand 创建竞拍命令
type CreateAuctionCommand struct {
	SupplierID    string
	ItemName      string
	Quantity      decimal.Decimal
	Unit          string
	StartingPrice decimal.Decimal
	ReservePrice  decimal.NullDecimal
	EndTime       time.Time
}

// PlaceBidCommand 出价命令
type PlaceBidCommand struct {
	AuctionID string
	VendorID  string
	Amount    decimal.Decimal
}

// AuctionCommandService 竞拍写操作服务。
// 同一竞拍的写操作按聚合 ID 串行执行，出价的清旧标记加追加序列依赖互斥。
type AuctionCommandService struct {
	repo      domain.AuctionRepository
	txm       domain.TxManager
	publisher domain.EventPublisher
	orders    domain.OrderCreator
	locks     *lock.Keyed
	now       func() time.Time
}

// NewAuctionCommandService 构造函数。
func NewAuctionCommandService(
	repo domain.AuctionRepository,
	txm domain.TxManager,
	publisher domain.EventPublisher,
	orders domain.OrderCreator,
) *AuctionCommandService {
	return &AuctionCommandService{
		repo:      repo,
		txm:       txm,
		publisher: publisher,
		orders:    orders,
		locks:     lock.NewKeyed(),
		now:       time.Now,
	}
}

// SetClock 注入时钟，测试用。
func (s *AuctionCommandService) SetClock(now func() time.Time) { s.now = now }

// CreateAuction 创建竞拍。
func (s *AuctionCommandService) CreateAuction(ctx context.Context, cmd CreateAuctionCommand) (string, error) {
	now := s.now()
	auctionID := fmt.Sprintf("AUC-%d", idgen.GenID())

	auction, err := domain.NewAuction(auctionID, cmd.SupplierID, cmd.ItemName, cmd.Quantity, cmd.StartingPrice, cmd.ReservePrice, cmd.Unit, cmd.EndTime, now)
	if err != nil {
		return "", err
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, auction); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.AuctionCreatedTopic, auctionID, domain.AuctionCreatedEvent{
			AuctionID:     auctionID,
			SupplierID:    cmd.SupplierID,
			ItemName:      cmd.ItemName,
			StartingPrice: cmd.StartingPrice,
			EndTime:       cmd.EndTime,
		})
	})
	if err != nil {
		return "", err
	}
	return auctionID, nil
}

// PlaceBid 出价。
func (s *AuctionCommandService) PlaceBid(ctx context.Context, cmd PlaceBidCommand) error {
	unlock := s.locks.Lock(cmd.AuctionID)
	defer unlock()

	now := s.now()
	auction, err := s.repo.Get(ctx, cmd.AuctionID)
	if err != nil {
		return err
	}
	if err := auction.PlaceBid(cmd.VendorID, cmd.Amount, now); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, auction); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.AuctionBidPlacedTopic, cmd.AuctionID, domain.AuctionBidPlacedEvent{
			AuctionID: cmd.AuctionID,
			VendorID:  cmd.VendorID,
			Amount:    cmd.Amount,
			PlacedAt:  now,
		})
	})
}

// CloseAuction 截止竞拍并在产生赢家时派生订单。
// 整体可安全重试：截止是幂等的，派生订单按竞拍 ID 做幂等键。
func (s *AuctionCommandService) CloseAuction(ctx context.Context, auctionID string) error {
	unlock := s.locks.Lock(auctionID)
	defer unlock()

	auction, err := s.repo.Get(ctx, auctionID)
	if err != nil {
		return err
	}

	before := auction.Status
	if err := auction.Close(s.now()); err != nil {
		return err
	}

	if auction.Status != before {
		err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.repo.Update(ctx, auction); err != nil {
				return err
			}
			return s.publisher.Publish(ctx, closeTopic(auction.Status), auctionID, domain.AuctionClosedEvent{
				AuctionID:    auctionID,
				SupplierID:   auction.SupplierID,
				Status:       string(auction.Status),
				WinnerID:     auction.WinnerID,
				WinningPrice: auction.WinningPrice,
			})
		})
		if err != nil {
			return err
		}
	}

	// 派生订单在竞拍事务提交后单独执行，失败由调用方重试本操作
	if auction.HasWinner() {
		_, err = s.orders.CreateSettledOrder(ctx, domain.SettledOrder{
			VendorID:   auction.WinnerID,
			SupplierID: auction.SupplierID,
			Quantity:   auction.Quantity,
			FinalPrice: auction.WinningPrice.Decimal,
			SourceRef:  fmt.Sprintf("auction:%s", auctionID),
		})
		if err != nil {
			return fmt.Errorf("spawn order for auction %s: %w", auctionID, err)
		}
	}
	return nil
}

// CancelAuction 取消竞拍。
func (s *AuctionCommandService) CancelAuction(ctx context.Context, auctionID, supplierID string) error {
	unlock := s.locks.Lock(auctionID)
	defer unlock()

	auction, err := s.repo.Get(ctx, auctionID)
	if err != nil {
		return err
	}
	if err := auction.Cancel(supplierID); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, auction); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.AuctionCancelledTopic, auctionID, domain.AuctionCancelledEvent{
			AuctionID:  auctionID,
			SupplierID: supplierID,
		})
	})
}

// CloseExpired 截止所有已过期仍活跃的竞拍，返回处理数量。
func (s *AuctionCommandService) CloseExpired(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.ListExpiredActive(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, id := range ids {
		if err := s.CloseAuction(ctx, id); err != nil {
			return closed, fmt.Errorf("close auction %s: %w", id, err)
		}
		closed++
	}
	return closed, nil
}

func closeTopic(status domain.AuctionStatus) string {
	if status == domain.StatusCompleted {
		return domain.AuctionCompletedTopic
	}
	return domain.AuctionClosedTopic
}
