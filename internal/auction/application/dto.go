package application

import (
	"time"

	"github.com/wyfcoding/localmarket/internal/auction/domain"
)

// AuctionDTO 竞拍查询视图
type AuctionDTO struct {
	AuctionID     string          `json:"auction_id"`
	SupplierID    string          `json:"supplier_id"`
	ItemName      string          `json:"item_name"`
	Quantity      string          `json:"quantity"`
	Unit          string          `json:"unit"`
	StartingPrice string          `json:"starting_price"`
	CurrentPrice  string          `json:"current_price"`
	ReservePrice  string          `json:"reserve_price,omitempty"`
	EndTime       time.Time       `json:"end_time"`
	Status        string          `json:"status"`
	WinnerID      string          `json:"winner_id,omitempty"`
	WinningPrice  string          `json:"winning_price,omitempty"`
	Bids          []AuctionBidDTO `json:"bids"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AuctionBidDTO 出价视图
type AuctionBidDTO struct {
	VendorID  string    `json:"vendor_id"`
	Amount    string    `json:"amount"`
	IsWinning bool      `json:"is_winning"`
	PlacedAt  time.Time `json:"placed_at"`
}

func toAuctionDTO(a *domain.Auction) *AuctionDTO {
	dto := &AuctionDTO{
		AuctionID:     a.AuctionID,
		SupplierID:    a.SupplierID,
		ItemName:      a.ItemName,
		Quantity:      a.Quantity.String(),
		Unit:          a.Unit,
		StartingPrice: a.StartingPrice.String(),
		CurrentPrice:  a.CurrentPrice.String(),
		EndTime:       a.EndTime,
		Status:        string(a.Status),
		WinnerID:      a.WinnerID,
		Bids:          make([]AuctionBidDTO, 0, len(a.Bids)),
		CreatedAt:     a.CreatedAt,
	}
	if a.ReservePrice.Valid {
		dto.ReservePrice = a.ReservePrice.Decimal.String()
	}
	if a.WinningPrice.Valid {
		dto.WinningPrice = a.WinningPrice.Decimal.String()
	}
	for i := range a.Bids {
		b := &a.Bids[i]
		dto.Bids = append(dto.Bids, AuctionBidDTO{
			VendorID:  b.VendorID,
			Amount:    b.Amount.String(),
			IsWinning: b.IsWinning,
			PlacedAt:  b.PlacedAt,
		})
	}
	return dto
}

func toAuctionDTOs(auctions []*domain.Auction) []*AuctionDTO {
	dtos := make([]*AuctionDTO, 0, len(auctions))
	for _, a := range auctions {
		dtos = append(dtos, toAuctionDTO(a))
	}
	return dtos
}
