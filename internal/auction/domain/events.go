package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 竞拍领域事件主题。
const (
	AuctionCreatedTopic   = "auction.created"
	AuctionBidPlacedTopic = "auction.bid.placed"
	AuctionClosedTopic    = "auction.closed"
	AuctionCompletedTopic = "auction.completed"
	AuctionCancelledTopic = "auction.cancelled"
)

// AuctionCreatedEvent 竞拍创建事件。
type AuctionCreatedEvent struct {
	AuctionID     string          `json:"auction_id"`
	SupplierID    string          `json:"supplier_id"`
	ItemName      string          `json:"item_name"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	EndTime       time.Time       `json:"end_time"`
}

// AuctionBidPlacedEvent 出价事件。
type AuctionBidPlacedEvent struct {
	AuctionID string          `json:"auction_id"`
	VendorID  string          `json:"vendor_id"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// AuctionClosedEvent 截止事件，completed 与流拍共用。
type AuctionClosedEvent struct {
	AuctionID    string              `json:"auction_id"`
	SupplierID   string              `json:"supplier_id"`
	Status       string              `json:"status"`
	WinnerID     string              `json:"winner_id,omitempty"`
	WinningPrice decimal.NullDecimal `json:"winning_price,omitempty"`
	SpawnedOrder string              `json:"spawned_order,omitempty"`
}

// AuctionCancelledEvent 取消事件。
type AuctionCancelledEvent struct {
	AuctionID  string `json:"auction_id"`
	SupplierID string `json:"supplier_id"`
}
