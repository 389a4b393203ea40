package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/idgen"

	"github.com/wyfcoding/localmarket/internal/groupbuy/domain"
	"github.com/wyfcoding/localmarket/pkg/lock"
)

// CreateGroupBuyCommand 创建团购命令
type CreateGroupBuyCommand struct {
	SupplierID      string
	ItemName        string
	TargetQuantity  decimal.Decimal
	PricePerUnit    decimal.Decimal
	Unit            string
	MinParticipants int
	Deadline        time.Time
}

// JoinGroupBuyCommand 参与认购命令
type JoinGroupBuyCommand struct {
	GroupBuyID string
	VendorID   string
	Quantity   decimal.Decimal
}

// GroupBuyCommandService 团购写操作服务。
// 同一团购的写操作按聚合 ID 串行执行，进度重算依赖互斥。
type GroupBuyCommandService struct {
	repo      domain.GroupBuyRepository
	txm       domain.TxManager
	publisher domain.EventPublisher
	orders    domain.OrderCreator
	locks     *lock.Keyed
	now       func() time.Time
}

// NewGroupBuyCommandService 构造函数。
func NewGroupBuyCommandService(
	repo domain.GroupBuyRepository,
	txm domain.TxManager,
	publisher domain.EventPublisher,
	orders domain.OrderCreator,
) *GroupBuyCommandService {
	return &GroupBuyCommandService{
		repo:      repo,
		txm:       txm,
		publisher: publisher,
		orders:    orders,
		locks:     lock.NewKeyed(),
		now:       time.Now,
	}
}

// SetClock 注入时钟，测试用。
func (s *GroupBuyCommandService) SetClock(now func() time.Time) { s.now = now }

// CreateGroupBuy 创建团购。
func (s *GroupBuyCommandService) CreateGroupBuy(ctx context.Context, cmd CreateGroupBuyCommand) (string, error) {
	now := s.now()
	groupBuyID := fmt.Sprintf("GB-%d", idgen.GenID())

	groupBuy, err := domain.NewGroupBuy(groupBuyID, cmd.SupplierID, cmd.ItemName, cmd.TargetQuantity, cmd.PricePerUnit, cmd.Unit, cmd.MinParticipants, cmd.Deadline, now)
	if err != nil {
		return "", err
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, groupBuy); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.GroupBuyCreatedTopic, groupBuyID, domain.GroupBuyCreatedEvent{
			GroupBuyID:     groupBuyID,
			SupplierID:     cmd.SupplierID,
			ItemName:       cmd.ItemName,
			TargetQuantity: cmd.TargetQuantity,
			PricePerUnit:   cmd.PricePerUnit,
			Deadline:       cmd.Deadline,
		})
	})
	if err != nil {
		return "", err
	}
	return groupBuyID, nil
}

// Join 参与认购。达到目标量时团购在同一事务内截团。
func (s *GroupBuyCommandService) Join(ctx context.Context, cmd JoinGroupBuyCommand) error {
	unlock := s.locks.Lock(cmd.GroupBuyID)
	defer unlock()

	groupBuy, err := s.repo.Get(ctx, cmd.GroupBuyID)
	if err != nil {
		return err
	}
	if err := groupBuy.Join(cmd.VendorID, cmd.Quantity, s.now()); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, groupBuy); err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, domain.GroupBuyJoinedTopic, cmd.GroupBuyID, domain.GroupBuyParticipantEvent{
			GroupBuyID: cmd.GroupBuyID,
			VendorID:   cmd.VendorID,
			Quantity:   cmd.Quantity,
			Status:     string(domain.ParticipantCommitted),
		}); err != nil {
			return err
		}
		if groupBuy.Status == domain.StatusClosed {
			return s.publishStatus(ctx, groupBuy, domain.GroupBuyClosedTopic)
		}
		return nil
	})
}

// Leave 退出团购。到期未达标的团购在同一事务内取消。
func (s *GroupBuyCommandService) Leave(ctx context.Context, groupBuyID, vendorID string) error {
	unlock := s.locks.Lock(groupBuyID)
	defer unlock()

	groupBuy, err := s.repo.Get(ctx, groupBuyID)
	if err != nil {
		return err
	}
	if err := groupBuy.Leave(vendorID, s.now()); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, groupBuy); err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, domain.GroupBuyLeftTopic, groupBuyID, domain.GroupBuyParticipantEvent{
			GroupBuyID: groupBuyID,
			VendorID:   vendorID,
			Status:     string(domain.ParticipantCancelled),
		}); err != nil {
			return err
		}
		if groupBuy.Status == domain.StatusCancelled {
			return s.publishStatus(ctx, groupBuy, domain.GroupBuyCancelledTopic)
		}
		return nil
	})
}

// MarkPaid 参与者标记已支付。
func (s *GroupBuyCommandService) MarkPaid(ctx context.Context, groupBuyID, vendorID string) error {
	return s.updateParticipant(ctx, groupBuyID, vendorID, func(g *domain.GroupBuy) error {
		return g.MarkPaid(vendorID)
	})
}

// ConfirmPayment 发起方确认参与者支付。
func (s *GroupBuyCommandService) ConfirmPayment(ctx context.Context, groupBuyID, supplierID, vendorID string) error {
	return s.updateParticipant(ctx, groupBuyID, vendorID, func(g *domain.GroupBuy) error {
		return g.ConfirmPayment(supplierID, vendorID)
	})
}

func (s *GroupBuyCommandService) updateParticipant(ctx context.Context, groupBuyID, vendorID string, mutate func(*domain.GroupBuy) error) error {
	unlock := s.locks.Lock(groupBuyID)
	defer unlock()

	groupBuy, err := s.repo.Get(ctx, groupBuyID)
	if err != nil {
		return err
	}
	if err := mutate(groupBuy); err != nil {
		return err
	}

	var status domain.ParticipantStatus
	var quantity decimal.Decimal
	for i := range groupBuy.Participants {
		if groupBuy.Participants[i].VendorID == vendorID {
			status = groupBuy.Participants[i].Status
			quantity = groupBuy.Participants[i].Quantity
			break
		}
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, groupBuy); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.GroupBuyPaymentTopic, groupBuyID, domain.GroupBuyParticipantEvent{
			GroupBuyID: groupBuyID,
			VendorID:   vendorID,
			Quantity:   quantity,
			Status:     string(status),
		})
	})
}

// Complete 履约：为每个有效参与者扇出一张已定价订单。
// 每张订单按 团购 ID 加买家 ID 做幂等键，部分失败后重试只补建缺失订单。
func (s *GroupBuyCommandService) Complete(ctx context.Context, groupBuyID, supplierID string) error {
	unlock := s.locks.Lock(groupBuyID)
	defer unlock()

	groupBuy, err := s.repo.Get(ctx, groupBuyID)
	if err != nil {
		return err
	}
	if supplierID != groupBuy.SupplierID {
		return domain.ErrNotAuthorized
	}

	before := groupBuy.Status
	if err := groupBuy.Complete(); err != nil {
		return err
	}

	if groupBuy.Status != before {
		err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.repo.Update(ctx, groupBuy); err != nil {
				return err
			}
			return s.publishStatus(ctx, groupBuy, domain.GroupBuyFulfilledTopic)
		})
		if err != nil {
			return err
		}
	}

	// 扇出在团购事务提交后逐单执行，不回滚已建订单，失败由调用方重试本操作
	for _, p := range groupBuy.ActiveParticipants() {
		_, err := s.orders.CreateSettledOrder(ctx, domain.SettledOrder{
			VendorID:   p.VendorID,
			SupplierID: groupBuy.SupplierID,
			Quantity:   p.Quantity,
			FinalPrice: groupBuy.PricePerUnit.Mul(p.Quantity),
			SourceRef:  fmt.Sprintf("groupbuy:%s:%s", groupBuyID, p.VendorID),
		})
		if err != nil {
			return fmt.Errorf("spawn order for participant %s: %w", p.VendorID, err)
		}
	}
	return nil
}

// Cancel 发起方取消团购。
func (s *GroupBuyCommandService) Cancel(ctx context.Context, groupBuyID, supplierID string) error {
	unlock := s.locks.Lock(groupBuyID)
	defer unlock()

	groupBuy, err := s.repo.Get(ctx, groupBuyID)
	if err != nil {
		return err
	}
	if err := groupBuy.Cancel(supplierID); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, groupBuy); err != nil {
			return err
		}
		return s.publishStatus(ctx, groupBuy, domain.GroupBuyCancelledTopic)
	})
}

// ExpireDue 处理所有已过期仍活跃的团购，返回处理数量。
func (s *GroupBuyCommandService) ExpireDue(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.ListExpiredActive(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		if err := s.expireOne(ctx, id); err != nil {
			return expired, fmt.Errorf("expire group buy %s: %w", id, err)
		}
		expired++
	}
	return expired, nil
}

func (s *GroupBuyCommandService) expireOne(ctx context.Context, groupBuyID string) error {
	unlock := s.locks.Lock(groupBuyID)
	defer unlock()

	groupBuy, err := s.repo.Get(ctx, groupBuyID)
	if err != nil {
		return err
	}
	before := groupBuy.Status
	groupBuy.Expire(s.now())
	if groupBuy.Status == before {
		return nil
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, groupBuy); err != nil {
			return err
		}
		topic := domain.GroupBuyCancelledTopic
		if groupBuy.Status == domain.StatusClosed {
			topic = domain.GroupBuyClosedTopic
		}
		return s.publishStatus(ctx, groupBuy, topic)
	})
}

func (s *GroupBuyCommandService) publishStatus(ctx context.Context, groupBuy *domain.GroupBuy, topic string) error {
	quantity, count := groupBuy.Progress()
	return s.publisher.Publish(ctx, topic, groupBuy.GroupBuyID, domain.GroupBuyStatusEvent{
		GroupBuyID:       groupBuy.GroupBuyID,
		SupplierID:       groupBuy.SupplierID,
		Status:           string(groupBuy.Status),
		CurrentQuantity:  quantity,
		ParticipantCount: count,
	})
}
