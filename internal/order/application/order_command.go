package application

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"

	"github.com/wyfcoding/localmarket/internal/order/domain"
	"github.com/wyfcoding/localmarket/pkg/lock"
)

// CreateOrderCommand 创建订单命令
type CreateOrderCommand struct {
	VendorID       string
	Kind           domain.OrderKind
	Quantity       decimal.Decimal
	EstimatedPrice decimal.Decimal
	// 拼单参数，Kind=group 时必填
	MinParticipants int
	MaxParticipants int
	Deadline        time.Time
}

// CreateSettledOrderCommand 由撮合结果（竞拍中标、拼单扇出）创建已定价订单的命令。
// SourceRef 是幂等键：重复执行返回已存在的订单。
type CreateSettledOrderCommand struct {
	VendorID   string
	SupplierID string
	Quantity   decimal.Decimal
	FinalPrice decimal.Decimal
	SourceRef  string
}

// SubmitBidCommand 供应商报价命令
type SubmitBidCommand struct {
	OrderID           string
	SupplierID        string
	Price             decimal.Decimal
	Message           string
	TurnaroundMinutes int
}

// AcceptBidCommand 接受报价命令
type AcceptBidCommand struct {
	OrderID    string
	VendorID   string
	SupplierID string
}

// JoinGroupCommand 加入订单内嵌拼单命令
type JoinGroupCommand struct {
	OrderID  string
	VendorID string
	Quantity decimal.Decimal
}

// AdvanceStatusCommand 推进订单状态命令
type AdvanceStatusCommand struct {
	OrderID   string
	ActorID   string
	Role      domain.Role
	NewStatus domain.OrderStatus
	Note      string
}

// AddNoteCommand 追加备注命令
type AddNoteCommand struct {
	OrderID string
	ActorID string
	Note    string
}

// UpdateDeliveryTrackingCommand 更新物流信息命令
type UpdateDeliveryTrackingCommand struct {
	OrderID        string
	ActorID        string
	Carrier        string
	TrackingNumber string
}

// OrderCommandService 订单写操作服务。
// 同一订单的写操作按聚合 ID 串行执行；仓储层另有乐观锁兜底跨进程冲突。
type OrderCommandService struct {
	repo       domain.OrderRepository
	txm        domain.TxManager
	publisher  domain.EventPublisher
	reputation domain.ReputationRecorder
	locks      *lock.Keyed
	now        func() time.Time
}

// NewOrderCommandService 构造函数。
func NewOrderCommandService(
	repo domain.OrderRepository,
	txm domain.TxManager,
	publisher domain.EventPublisher,
	reputation domain.ReputationRecorder,
) *OrderCommandService {
	return &OrderCommandService{
		repo:       repo,
		txm:        txm,
		publisher:  publisher,
		reputation: reputation,
		locks:      lock.NewKeyed(),
		now:        time.Now,
	}
}

// SetClock 注入时钟，仅用于测试。
func (s *OrderCommandService) SetClock(now func() time.Time) { s.now = now }

// CreateOrder 创建订单（个人或拼单）。
func (s *OrderCommandService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (string, error) {
	now := s.now()
	orderID := fmt.Sprintf("ORD-%d", idgen.GenID())

	order, err := domain.NewOrder(orderID, cmd.VendorID, cmd.Kind, cmd.Quantity, cmd.EstimatedPrice, now)
	if err != nil {
		return "", err
	}
	if cmd.Kind == domain.KindGroup {
		if err := order.AttachGroupBuy(cmd.MinParticipants, cmd.MaxParticipants, cmd.Deadline); err != nil {
			return "", err
		}
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.OrderCreatedEventType, orderID, domain.OrderCreatedEvent{
			OrderID:   orderID,
			VendorID:  cmd.VendorID,
			Kind:      string(cmd.Kind),
			Quantity:  cmd.Quantity.String(),
			Timestamp: now,
		})
	})
	if err != nil {
		return "", err
	}

	logging.Info(ctx, "order created", "order_id", orderID, "vendor_id", cmd.VendorID, "kind", cmd.Kind)
	return orderID, nil
}

// CreateSettledOrder 幂等创建已定价订单。
// 以 SourceRef 去重：已存在时直接返回现有订单 ID，不产生第二份副作用。
func (s *OrderCommandService) CreateSettledOrder(ctx context.Context, cmd CreateSettledOrderCommand) (string, error) {
	if cmd.SourceRef == "" {
		return "", fmt.Errorf("%w: source ref required", domain.ErrValidation)
	}
	if existing, err := s.repo.GetBySourceRef(ctx, cmd.SourceRef); err == nil {
		return existing.OrderID, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	now := s.now()
	orderID := fmt.Sprintf("ORD-%d", idgen.GenID())
	order, err := domain.NewOrder(orderID, cmd.VendorID, domain.KindIndividual, cmd.Quantity, cmd.FinalPrice, now)
	if err != nil {
		return "", err
	}
	order.SourceRef = sql.NullString{String: cmd.SourceRef, Valid: true}
	if err := order.Settle(cmd.SupplierID, cmd.FinalPrice, now); err != nil {
		return "", err
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.OrderCreatedEventType, orderID, domain.OrderCreatedEvent{
			OrderID:   orderID,
			VendorID:  cmd.VendorID,
			Kind:      string(domain.KindIndividual),
			Quantity:  cmd.Quantity.String(),
			SourceRef: cmd.SourceRef,
			Timestamp: now,
		})
	})
	if errors.Is(err, domain.ErrConflict) {
		// 并发重试撞上唯一索引，读回已创建的订单
		existing, getErr := s.repo.GetBySourceRef(ctx, cmd.SourceRef)
		if getErr != nil {
			return "", getErr
		}
		return existing.OrderID, nil
	}
	if err != nil {
		return "", err
	}
	return orderID, nil
}

// SubmitBid 供应商提交报价。
func (s *OrderCommandService) SubmitBid(ctx context.Context, cmd SubmitBidCommand) error {
	unlock := s.locks.Lock(cmd.OrderID)
	defer unlock()

	order, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	now := s.now()
	if err := order.SubmitBid(cmd.SupplierID, cmd.Price, cmd.Message, cmd.TurnaroundMinutes, now); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, order); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.OrderBidSubmittedEventType, cmd.OrderID, domain.OrderBidSubmittedEvent{
			OrderID:    cmd.OrderID,
			SupplierID: cmd.SupplierID,
			Price:      cmd.Price.String(),
			Timestamp:  now,
		})
	})
}

// AcceptBid 买家接受报价，订单进入 accepted。
func (s *OrderCommandService) AcceptBid(ctx context.Context, cmd AcceptBidCommand) error {
	unlock := s.locks.Lock(cmd.OrderID)
	defer unlock()

	order, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	now := s.now()
	if err := order.AcceptBid(cmd.VendorID, cmd.SupplierID, now); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, order); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.OrderBidAcceptedEventType, cmd.OrderID, domain.OrderBidAcceptedEvent{
			OrderID:    cmd.OrderID,
			VendorID:   cmd.VendorID,
			SupplierID: cmd.SupplierID,
			FinalPrice: order.FinalPrice.Decimal.String(),
			Timestamp:  now,
		})
	})
}

// JoinGroup 买家加入订单内嵌拼单。
func (s *OrderCommandService) JoinGroup(ctx context.Context, cmd JoinGroupCommand) error {
	unlock := s.locks.Lock(cmd.OrderID)
	defer unlock()

	order, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	now := s.now()
	if err := order.JoinGroup(cmd.VendorID, cmd.Quantity, now); err != nil {
		return err
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, order); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.OrderGroupJoinedEventType, cmd.OrderID, domain.OrderGroupJoinedEvent{
			OrderID:   cmd.OrderID,
			VendorID:  cmd.VendorID,
			Quantity:  cmd.Quantity.String(),
			Timestamp: now,
		})
	})
}

// AdvanceStatus 推进订单状态；到达终态时在订单事务提交后通知信誉账本。
func (s *OrderCommandService) AdvanceStatus(ctx context.Context, cmd AdvanceStatusCommand) error {
	unlock := s.locks.Lock(cmd.OrderID)
	defer unlock()

	order, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	from := order.Status
	now := s.now()
	if err := order.AdvanceStatus(cmd.ActorID, cmd.Role, cmd.NewStatus, cmd.Note, now); err != nil {
		return err
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, order); err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, domain.OrderStatusChangedEventType, cmd.OrderID, domain.OrderStatusChangedEvent{
			OrderID:   cmd.OrderID,
			VendorID:  order.VendorID,
			From:      string(from),
			To:        string(cmd.NewStatus),
			Actor:     cmd.ActorID,
			Timestamp: now,
		}); err != nil {
			return err
		}
		switch cmd.NewStatus {
		case domain.StatusCompleted:
			return s.publisher.Publish(ctx, domain.OrderCompletedEventType, cmd.OrderID, domain.OrderTerminalEvent{
				OrderID: cmd.OrderID, VendorID: order.VendorID, Status: string(cmd.NewStatus), Timestamp: now,
			})
		case domain.StatusCancelled:
			return s.publisher.Publish(ctx, domain.OrderCancelledEventType, cmd.OrderID, domain.OrderTerminalEvent{
				OrderID: cmd.OrderID, VendorID: order.VendorID, Status: string(cmd.NewStatus), Timestamp: now,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 信誉记录是独立聚合，不与订单共事务；每个参与方一次独立更新。
	return s.applyReputation(ctx, order, cmd.Role, cmd.NewStatus)
}

func (s *OrderCommandService) applyReputation(ctx context.Context, order *domain.Order, role domain.Role, newStatus domain.OrderStatus) error {
	switch newStatus {
	case domain.StatusCompleted:
		reason := fmt.Sprintf("order %s completed", order.OrderID)
		if err := s.reputation.RecordCompletion(ctx, order.VendorID, domain.CompletionVendorDelta, reason); err != nil {
			return err
		}
		if order.Kind == domain.KindGroup {
			for _, vendorID := range order.ActiveParticipants() {
				if vendorID == order.VendorID {
					continue
				}
				if err := s.reputation.RecordCompletion(ctx, vendorID, domain.CompletionParticipantDelta, reason); err != nil {
					return err
				}
			}
		}
	case domain.StatusCancelled:
		if role == domain.RoleVendor {
			reason := fmt.Sprintf("order %s cancelled by vendor", order.OrderID)
			if err := s.reputation.RecordCancellation(ctx, order.VendorID, domain.CancellationVendorDelta, reason); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddNote 追加备注，不影响状态。
func (s *OrderCommandService) AddNote(ctx context.Context, cmd AddNoteCommand) error {
	unlock := s.locks.Lock(cmd.OrderID)
	defer unlock()

	order, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if cmd.ActorID != order.VendorID && cmd.ActorID != order.SupplierID {
		return fmt.Errorf("%w: actor is not a party to the order", domain.ErrNotAuthorized)
	}
	order.AddNote(cmd.ActorID, cmd.Note, s.now())

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, order)
	})
}

// UpdateDeliveryTracking 更新物流信息，不影响状态。
func (s *OrderCommandService) UpdateDeliveryTracking(ctx context.Context, cmd UpdateDeliveryTrackingCommand) error {
	unlock := s.locks.Lock(cmd.OrderID)
	defer unlock()

	order, err := s.repo.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if cmd.ActorID != order.SupplierID {
		return fmt.Errorf("%w: only the assigned supplier updates tracking", domain.ErrNotAuthorized)
	}
	order.SetDeliveryTracking(cmd.Carrier, cmd.TrackingNumber)

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, order)
	})
}

// ExpireDueGroupOrders 将拼单截止时间已过、仍在开标阶段的订单标记为过期。
// 由外部周期清扫调用；单个订单失败不影响其余订单。
func (s *OrderCommandService) ExpireDueGroupOrders(ctx context.Context, limit int) (int, error) {
	now := s.now()
	ids, err := s.repo.ListExpiredGroupOrders(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, orderID := range ids {
		if err := s.expireOne(ctx, orderID); err != nil {
			logging.Warn(ctx, "failed to expire order", "order_id", orderID, "error", err)
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *OrderCommandService) expireOne(ctx context.Context, orderID string) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	now := s.now()
	if err := order.Expire(now); err != nil {
		return err
	}
	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, order); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, domain.OrderExpiredEventType, orderID, domain.OrderTerminalEvent{
			OrderID: orderID, VendorID: order.VendorID, Status: string(domain.StatusExpired), Timestamp: now,
		})
	})
}
