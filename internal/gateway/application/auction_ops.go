package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	auctionapp "github.com/wyfcoding/localmarket/internal/auction/application"
	auctiondomain "github.com/wyfcoding/localmarket/internal/auction/domain"
)

// CreateAuctionRequest 创建竞拍请求
type CreateAuctionRequest struct {
	RequestKey    string
	ItemName      string
	Quantity      decimal.Decimal
	Unit          string
	StartingPrice decimal.Decimal
	ReservePrice  decimal.NullDecimal
	EndTime       time.Time
}

// CreateAuction 供应商创建竞拍。
func (g *MatchingGateway) CreateAuction(ctx context.Context, actor ActorContext, req CreateAuctionRequest) (string, error) {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return "", err
	}
	return g.idempotent(ctx, actor, req.RequestKey, "auction.create", func() (string, error) {
		return g.auctions.Command.CreateAuction(ctx, auctionapp.CreateAuctionCommand{
			SupplierID:    actor.PartyID,
			ItemName:      req.ItemName,
			Quantity:      req.Quantity,
			Unit:          req.Unit,
			StartingPrice: req.StartingPrice,
			ReservePrice:  req.ReservePrice,
			EndTime:       req.EndTime,
		})
	})
}

// PlaceAuctionBid 买家出价。
func (g *MatchingGateway) PlaceAuctionBid(ctx context.Context, actor ActorContext, auctionID string, amount decimal.Decimal) error {
	if err := g.requireRole(actor, RoleVendor); err != nil {
		return err
	}
	return g.auctions.Command.PlaceBid(ctx, auctionapp.PlaceBidCommand{
		AuctionID: auctionID,
		VendorID:  actor.PartyID,
		Amount:    amount,
	})
}

// CloseAuction 供应商提前截止自己的竞拍。
func (g *MatchingGateway) CloseAuction(ctx context.Context, actor ActorContext, auctionID string) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	auction, err := g.auctions.Query.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if auction.SupplierID != actor.PartyID {
		return auctiondomain.ErrNotAuthorized
	}
	return g.auctions.Command.CloseAuction(ctx, auctionID)
}

// CancelAuction 供应商取消竞拍。
func (g *MatchingGateway) CancelAuction(ctx context.Context, actor ActorContext, auctionID string) error {
	if err := g.requireRole(actor, RoleSupplier); err != nil {
		return err
	}
	return g.auctions.Command.CancelAuction(ctx, auctionID, actor.PartyID)
}

// GetAuction 获取竞拍详情。
func (g *MatchingGateway) GetAuction(ctx context.Context, auctionID string) (*auctionapp.AuctionDTO, error) {
	return g.auctions.Query.GetAuction(ctx, auctionID)
}

// ListAuctions 列出竞拍。供应商看自己的，买家看进行中的。
func (g *MatchingGateway) ListAuctions(ctx context.Context, actor ActorContext, status string, limit, offset int) ([]*auctionapp.AuctionDTO, int64, error) {
	if actor.Role == RoleSupplier {
		return g.auctions.Query.ListBySupplier(ctx, actor.PartyID, auctiondomain.AuctionStatus(status), limit, offset)
	}
	return g.auctions.Query.ListActive(ctx, limit, offset)
}
