package application

import (
	"context"

	"github.com/shopspring/decimal"

	orderdomain "github.com/wyfcoding/localmarket/internal/order/domain"
	reputationdomain "github.com/wyfcoding/localmarket/internal/reputation/domain"
)

// RateSupplier 买家对已完成订单的供应商评分。
func (g *MatchingGateway) RateSupplier(ctx context.Context, actor ActorContext, orderID string, rating int) error {
	if err := g.requireRole(actor, RoleVendor); err != nil {
		return err
	}
	order, err := g.orders.Query.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.VendorID != actor.PartyID {
		return orderdomain.ErrNotAuthorized
	}
	if order.Status != string(orderdomain.StatusCompleted) {
		return errValidationf("order %s is not completed", orderID)
	}
	return g.reputation.RecordRating(ctx, order.SupplierID, rating)
}

// RateVendor 供应商对已完成订单的买家评分，计入买家信任分的对手方评分项。
func (g *MatchingGateway) RateVendor(ctx context.Context, actor ActorContext, orderID string, rating int) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	order, err := g.orders.Query.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.SupplierID != actor.PartyID {
		return orderdomain.ErrNotAuthorized
	}
	if order.Status != string(orderdomain.StatusCompleted) {
		return errValidationf("order %s is not completed", orderID)
	}
	return g.reputation.RecordCounterpartRating(ctx, order.VendorID, rating)
}

// RecordPayment 供应商记录买家付款是否准时。
func (g *MatchingGateway) RecordPayment(ctx context.Context, actor ActorContext, orderID string, onTime bool) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	order, err := g.orders.Query.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.SupplierID != actor.PartyID {
		return orderdomain.ErrNotAuthorized
	}
	return g.reputation.RecordPayment(ctx, order.VendorID, onTime)
}

// GetReputation 获取一方的信誉记录。
func (g *MatchingGateway) GetReputation(ctx context.Context, partyID string) (*reputationdomain.ReputationRecord, error) {
	return g.reputation.GetRecord(ctx, partyID)
}

// ListReputationHistory 获取市民分历史。
func (g *MatchingGateway) ListReputationHistory(ctx context.Context, partyID string) ([]*reputationdomain.ScoreEntry, error) {
	return g.reputation.ListHistory(ctx, partyID)
}

// RecomputeTrustScore 重算并返回买家信任分。
func (g *MatchingGateway) RecomputeTrustScore(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	return g.reputation.RecomputeTrustScore(ctx, vendorID)
}
