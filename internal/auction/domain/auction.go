// Package domain 定义竞拍聚合及其业务规则。
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus 竞拍状态
type AuctionStatus string

const (
	StatusActive    AuctionStatus = "active"    // 进行中
	StatusClosed    AuctionStatus = "closed"    // 已截止，无合格赢家
	StatusCompleted AuctionStatus = "completed" // 已截止且产生赢家
	StatusCancelled AuctionStatus = "cancelled" // 已取消
)

// IsTerminal 判断是否为终态。closed 保留给流拍，不再接受出价。
func (s AuctionStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCompleted || s == StatusCancelled
}

// Auction 竞拍聚合根。
// currentPrice 始终等于当前胜出出价的金额，无出价时等于起拍价。
type Auction struct {
	ID            uint                `gorm:"primaryKey;autoIncrement"`
	AuctionID     string              `gorm:"type:varchar(64);uniqueIndex;not null"`
	SupplierID    string              `gorm:"type:varchar(64);index;not null"`
	ItemName      string              `gorm:"type:varchar(255);not null"`
	Quantity      decimal.Decimal     `gorm:"type:decimal(20,4);not null"`
	Unit          string              `gorm:"type:varchar(32);not null"`
	StartingPrice decimal.Decimal     `gorm:"type:decimal(20,8);not null"`
	CurrentPrice  decimal.Decimal     `gorm:"type:decimal(20,8);not null"`
	ReservePrice  decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	EndTime       time.Time           `gorm:"not null;index"`
	Status        AuctionStatus       `gorm:"type:varchar(16);index;not null"`
	WinnerID      string              `gorm:"type:varchar(64)"`
	WinningPrice  decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	ConfirmedAt   *time.Time
	Version       int64 `gorm:"not null;default:0"`

	Bids []AuctionBid `gorm:"foreignKey:AuctionRef;references:AuctionID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuctionBid 出价记录，只追加不删除。胜出标记在每次接受新出价时重算。
type AuctionBid struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"`
	AuctionRef string          `gorm:"type:varchar(64);index;not null"`
	VendorID   string          `gorm:"type:varchar(64);not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	IsWinning  bool            `gorm:"not null;default:false"`
	PlacedAt   time.Time       `gorm:"not null"`
}

// TableName 指定表名。
func (Auction) TableName() string { return "auctions" }

// TableName 指定表名。
func (AuctionBid) TableName() string { return "auction_bids" }

// NewAuction 创建竞拍。
func NewAuction(auctionID, supplierID, itemName string, quantity, startingPrice decimal.Decimal, reservePrice decimal.NullDecimal, unit string, endTime, now time.Time) (*Auction, error) {
	if auctionID == "" || supplierID == "" {
		return nil, fmt.Errorf("%w: auction id and supplier required", ErrValidation)
	}
	if itemName == "" {
		return nil, fmt.Errorf("%w: item name required", ErrValidation)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if startingPrice.IsNegative() {
		return nil, fmt.Errorf("%w: starting price must not be negative", ErrValidation)
	}
	if !endTime.After(now) {
		return nil, fmt.Errorf("%w: end time must be in the future", ErrValidation)
	}
	return &Auction{
		AuctionID:     auctionID,
		SupplierID:    supplierID,
		ItemName:      itemName,
		Quantity:      quantity,
		Unit:          unit,
		StartingPrice: startingPrice,
		CurrentPrice:  startingPrice,
		ReservePrice:  reservePrice,
		EndTime:       endTime,
		Status:        StatusActive,
	}, nil
}

// PlaceBid 接受一笔出价。
// 首笔出价不受起拍价约束，可以低于起拍价，保留价在截止判定时兜底；
// 后续出价必须高于当前胜出价。清除旧的胜出标记后追加新出价并更新当前价，
// 调用方须保证同一竞拍串行执行。
func (a *Auction) PlaceBid(vendorID string, amount decimal.Decimal, now time.Time) error {
	if vendorID == "" {
		return fmt.Errorf("%w: vendor required", ErrValidation)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if a.Status != StatusActive || now.After(a.EndTime) {
		return ErrAuctionEnded
	}
	if len(a.Bids) > 0 && amount.LessThanOrEqual(a.CurrentPrice) {
		return fmt.Errorf("%w: amount %s must exceed current price %s", ErrBidTooLow, amount, a.CurrentPrice)
	}

	for i := range a.Bids {
		a.Bids[i].IsWinning = false
	}
	a.Bids = append(a.Bids, AuctionBid{
		AuctionRef: a.AuctionID,
		VendorID:   vendorID,
		Amount:     amount,
		IsWinning:  true,
		PlacedAt:   now,
	})
	a.CurrentPrice = amount
	return nil
}

// Close 截止竞拍并判定赢家。对已截止的竞拍重复调用是无操作。
// 保留价缺省按 0 处理，胜出出价达到保留价则状态转为 completed。
func (a *Auction) Close(now time.Time) error {
	if a.Status == StatusClosed || a.Status == StatusCompleted {
		return nil
	}
	if a.Status == StatusCancelled {
		return fmt.Errorf("%w: auction cancelled", ErrAuctionEnded)
	}

	a.Status = StatusClosed
	winning := a.winningBid()
	if winning == nil {
		return nil
	}

	reserve := decimal.Zero
	if a.ReservePrice.Valid {
		reserve = a.ReservePrice.Decimal
	}
	if winning.Amount.GreaterThanOrEqual(reserve) {
		a.Status = StatusCompleted
		a.WinnerID = winning.VendorID
		a.WinningPrice = decimal.NewNullDecimal(winning.Amount)
		a.ConfirmedAt = &now
	}
	return nil
}

// Cancel 取消竞拍，仅发起方可执行。
// 进行中或流拍（closed 无赢家）的竞拍均可取消，已成交或已取消的不可。
func (a *Auction) Cancel(supplierID string) error {
	if supplierID != a.SupplierID {
		return ErrNotAuthorized
	}
	if a.Status != StatusActive && a.Status != StatusClosed {
		return fmt.Errorf("%w: cannot cancel in status %s", ErrInvalidState, a.Status)
	}
	a.Status = StatusCancelled
	return nil
}

// HasWinner 判断竞拍是否产生赢家。
func (a *Auction) HasWinner() bool {
	return a.Status == StatusCompleted && a.WinnerID != ""
}

func (a *Auction) winningBid() *AuctionBid {
	for i := range a.Bids {
		if a.Bids[i].IsWinning {
			return &a.Bids[i]
		}
	}
	return nil
}
