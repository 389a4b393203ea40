package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	orderapp "github.com/wyfcoding/localmarket/internal/order/application"
	orderdomain "github.com/wyfcoding/localmarket/internal/order/domain"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	RequestKey      string
	Kind            string
	Quantity        decimal.Decimal
	EstimatedPrice  decimal.Decimal
	MinParticipants int
	MaxParticipants int
	Deadline        time.Time
}

// CreateOrder 买家创建订单。
func (g *MatchingGateway) CreateOrder(ctx context.Context, actor ActorContext, req CreateOrderRequest) (string, error) {
	if err := g.requireRole(actor, RoleVendor); err != nil {
		return "", err
	}
	return g.idempotent(ctx, actor, req.RequestKey, "order.create", func() (string, error) {
		return g.orders.Command.CreateOrder(ctx, orderapp.CreateOrderCommand{
			VendorID:        actor.PartyID,
			Kind:            orderdomain.OrderKind(req.Kind),
			Quantity:        req.Quantity,
			EstimatedPrice:  req.EstimatedPrice,
			MinParticipants: req.MinParticipants,
			MaxParticipants: req.MaxParticipants,
			Deadline:        req.Deadline,
		})
	})
}

// SubmitBid 供应商对订单报价。
func (g *MatchingGateway) SubmitBid(ctx context.Context, actor ActorContext, orderID string, price decimal.Decimal, message string, turnaroundMinutes int) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	return g.orders.Command.SubmitBid(ctx, orderapp.SubmitBidCommand{
		OrderID:           orderID,
		SupplierID:        actor.PartyID,
		Price:             price,
		Message:           message,
		TurnaroundMinutes: turnaroundMinutes,
	})
}

// AcceptBid 买家接受报价。
func (g *MatchingGateway) AcceptBid(ctx context.Context, actor ActorContext, orderID, supplierID string) error {
	if err := g.requireRole(actor, RoleVendor); err != nil {
		return err
	}
	return g.orders.Command.AcceptBid(ctx, orderapp.AcceptBidCommand{
		OrderID:    orderID,
		VendorID:   actor.PartyID,
		SupplierID: supplierID,
	})
}

// JoinOrderGroup 买家加入订单内嵌拼单。
func (g *MatchingGateway) JoinOrderGroup(ctx context.Context, actor ActorContext, orderID string, quantity decimal.Decimal) error {
	if err := g.requireRole(actor, RoleVendor); err != nil {
		return err
	}
	return g.orders.Command.JoinGroup(ctx, orderapp.JoinGroupCommand{
		OrderID:  orderID,
		VendorID: actor.PartyID,
		Quantity: quantity,
	})
}

// AdvanceOrderStatus 推进订单状态，转移权限按角色在领域层校验。
func (g *MatchingGateway) AdvanceOrderStatus(ctx context.Context, actor ActorContext, orderID, newStatus, note string) error {
	if actor.PartyID == "" {
		return errValidationf("party id required")
	}
	return g.orders.Command.AdvanceStatus(ctx, orderapp.AdvanceStatusCommand{
		OrderID:   orderID,
		ActorID:   actor.PartyID,
		Role:      orderdomain.Role(actor.Role),
		NewStatus: orderdomain.OrderStatus(newStatus),
		Note:      note,
	})
}

// AddOrderNote 追加订单备注。
func (g *MatchingGateway) AddOrderNote(ctx context.Context, actor ActorContext, orderID, note string) error {
	if actor.PartyID == "" {
		return errValidationf("party id required")
	}
	return g.orders.Command.AddNote(ctx, orderapp.AddNoteCommand{
		OrderID: orderID,
		ActorID: actor.PartyID,
		Note:    note,
	})
}

// UpdateDeliveryTracking 供应商更新物流信息。
func (g *MatchingGateway) UpdateDeliveryTracking(ctx context.Context, actor ActorContext, orderID, carrier, trackingNumber string) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	return g.orders.Command.UpdateDeliveryTracking(ctx, orderapp.UpdateDeliveryTrackingCommand{
		OrderID:        orderID,
		ActorID:        actor.PartyID,
		Carrier:        carrier,
		TrackingNumber: trackingNumber,
	})
}

// GetOrder 获取订单详情。
func (g *MatchingGateway) GetOrder(ctx context.Context, orderID string) (*orderapp.OrderDTO, error) {
	return g.orders.Query.GetOrder(ctx, orderID)
}

// ListOrders 按调用方角色列出订单。
func (g *MatchingGateway) ListOrders(ctx context.Context, actor ActorContext, status string, limit, offset int) ([]*orderapp.OrderDTO, int64, error) {
	if actor.Role == RoleSupplier {
		return g.orders.Query.ListBySupplier(ctx, actor.PartyID, orderdomain.OrderStatus(status), limit, offset)
	}
	return g.orders.Query.ListByVendor(ctx, actor.PartyID, orderdomain.OrderStatus(status), limit, offset)
}
