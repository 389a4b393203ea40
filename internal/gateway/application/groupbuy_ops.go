package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	groupbuyapp "github.com/wyfcoding/localmarket/internal/groupbuy/application"
	groupbuydomain "github.com/wyfcoding/localmarket/internal/groupbuy/domain"
)

// CreateGroupBuyRequest 创建团购请求
type CreateGroupBuyRequest struct {
	RequestKey      string
	ItemName        string
	TargetQuantity  decimal.Decimal
	PricePerUnit    decimal.Decimal
	Unit            string
	MinParticipants int
	Deadline        time.Time
}

// CreateGroupBuy 供应商发起团购。
func (g *MatchingGateway) CreateGroupBuy(ctx context.Context, actor ActorContext, req CreateGroupBuyRequest) (string, error) {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return "", err
	}
	return g.idempotent(ctx, actor, req.RequestKey, "groupbuy.create", func() (string, error) {
		return g.groupBuys.Command.CreateGroupBuy(ctx, groupbuyapp.CreateGroupBuyCommand{
			SupplierID:      actor.PartyID,
			ItemName:        req.ItemName,
			TargetQuantity:  req.TargetQuantity,
			PricePerUnit:    req.PricePerUnit,
			Unit:            req.Unit,
			MinParticipants: req.MinParticipants,
			Deadline:        req.Deadline,
		})
	})
}

// JoinGroupBuy 买家参与认购。
func (g *MatchingGateway) JoinGroupBuy(ctx context.Context, actor ActorContext, groupBuyID string, quantity decimal.Decimal) error {
	if err := g.requireRole(actor, RoleVendor); err != nil {
		return err
	}
	return g.groupBuys.Command.Join(ctx, groupbuyapp.JoinGroupBuyCommand{
		GroupBuyID: groupBuyID,
		VendorID:   actor.PartyID,
		Quantity:   quantity,
	})
}

// LeaveGroupBuy 买家退出团购。
func (g *MatchingGateway) LeaveGroupBuy(ctx context.Context, actor ActorContext, groupBuyID string) error {
	if err := g.requireRole(actor, RoleVendor); err != nil {
		return err
	}
	return g.groupBuys.Command.Leave(ctx, groupBuyID, actor.PartyID)
}

// MarkGroupBuyPaid 买家标记已支付。
func (g *MatchingGateway) MarkGroupBuyPaid(ctx context.Context, actor ActorContext, groupBuyID string) error {
	if err := g.requireRole(actor, RoleVendor); err != nil {
		return err
	}
	return g.groupBuys.Command.MarkPaid(ctx, groupBuyID, actor.PartyID)
}

// ConfirmGroupBuyPayment 供应商确认参与者支付。
func (g *MatchingGateway) ConfirmGroupBuyPayment(ctx context.Context, actor ActorContext, groupBuyID, vendorID string) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	return g.groupBuys.Command.ConfirmPayment(ctx, groupBuyID, actor.PartyID, vendorID)
}

// CompleteGroupBuy 供应商履约，扇出订单。
func (g *MatchingGateway) CompleteGroupBuy(ctx context.Context, actor ActorContext, groupBuyID string) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	return g.groupBuys.Command.Complete(ctx, groupBuyID, actor.PartyID)
}

// CancelGroupBuy 供应商取消团购。
func (g *MatchingGateway) CancelGroupBuy(ctx context.Context, actor ActorContext, groupBuyID string) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	return g.groupBuys.Command.Cancel(ctx, groupBuyID, actor.PartyID)
}

// GetGroupBuy 获取团购详情。
func (g *MatchingGateway) GetGroupBuy(ctx context.Context, groupBuyID string) (*groupbuyapp.GroupBuyDTO, error) {
	return g.groupBuys.Query.GetGroupBuy(ctx, groupBuyID)
}

// ListGroupBuys 列出团购。供应商看自己的，买家看招募中的。
func (g *MatchingGateway) ListGroupBuys(ctx context.Context, actor ActorContext, status string, limit, offset int) ([]*groupbuyapp.GroupBuyDTO, int64, error) {
	if actor.Role == RoleSupplier {
		return g.groupBuys.Query.ListBySupplier(ctx, actor.PartyID, groupbuydomain.GroupBuyStatus(status), limit, offset)
	}
	return g.groupBuys.Query.ListActive(ctx, limit, offset)
}
