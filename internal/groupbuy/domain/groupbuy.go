// Package domain 定义拼单团购聚合及其业务规则。
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GroupBuyStatus 团购状态
type GroupBuyStatus string

const (
	StatusActive    GroupBuyStatus = "active"    // 招募中
	StatusClosed    GroupBuyStatus = "closed"    // 达标截团，待履约
	StatusFulfilled GroupBuyStatus = "fulfilled" // 已扇出订单
	StatusCancelled GroupBuyStatus = "cancelled" // 到期未达标或发起方取消
)

// ParticipantStatus 参与者状态
type ParticipantStatus string

const (
	ParticipantCommitted ParticipantStatus = "committed" // 已认购
	ParticipantPaid      ParticipantStatus = "paid"      // 已支付
	ParticipantConfirmed ParticipantStatus = "confirmed" // 支付已确认
	ParticipantCancelled ParticipantStatus = "cancelled" // 已退出，保留审计
)

// GroupBuy 团购聚合根。
// 进度字段一律从参与者列表重算，不维护易漂移的计数器。
type GroupBuy struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"`
	GroupBuyID      string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	SupplierID      string          `gorm:"type:varchar(64);index;not null"`
	ItemName        string          `gorm:"type:varchar(255);not null"`
	TargetQuantity  decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	PricePerUnit    decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Unit            string          `gorm:"type:varchar(32);not null"`
	MinParticipants int             `gorm:"not null;default:1"`
	Deadline        time.Time       `gorm:"not null;index"`
	Status          GroupBuyStatus  `gorm:"type:varchar(16);index;not null"`
	Version         int64           `gorm:"not null;default:0"`

	Participants []GroupBuyParticipant `gorm:"foreignKey:GroupBuyRef;references:GroupBuyID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GroupBuyParticipant 参与者记录，退出时只标记不物理删除。
type GroupBuyParticipant struct {
	ID          uint              `gorm:"primaryKey;autoIncrement"`
	GroupBuyRef string            `gorm:"type:varchar(64);not null;uniqueIndex:uk_groupbuy_vendor,priority:1"`
	VendorID    string            `gorm:"type:varchar(64);not null;uniqueIndex:uk_groupbuy_vendor,priority:2"`
	Quantity    decimal.Decimal   `gorm:"type:decimal(20,4);not null"`
	Status      ParticipantStatus `gorm:"type:varchar(16);not null"`
	JoinedAt    time.Time         `gorm:"not null"`
}

// TableName 指定表名。
func (GroupBuy) TableName() string { return "group_buys" }

// TableName 指定表名。
func (GroupBuyParticipant) TableName() string { return "group_buy_participants" }

// NewGroupBuy 创建团购。
func NewGroupBuy(groupBuyID, supplierID, itemName string, targetQuantity, pricePerUnit decimal.Decimal, unit string, minParticipants int, deadline, now time.Time) (*GroupBuy, error) {
	if groupBuyID == "" || supplierID == "" {
		return nil, fmt.Errorf("%w: group buy id and supplier required", ErrValidation)
	}
	if itemName == "" {
		return nil, fmt.Errorf("%w: item name required", ErrValidation)
	}
	if !targetQuantity.IsPositive() {
		return nil, fmt.Errorf("%w: target quantity must be positive", ErrValidation)
	}
	if !pricePerUnit.IsPositive() {
		return nil, fmt.Errorf("%w: price per unit must be positive", ErrValidation)
	}
	if minParticipants < 1 {
		return nil, fmt.Errorf("%w: min participants must be at least 1", ErrValidation)
	}
	if !deadline.After(now) {
		return nil, fmt.Errorf("%w: deadline must be in the future", ErrValidation)
	}
	return &GroupBuy{
		GroupBuyID:      groupBuyID,
		SupplierID:      supplierID,
		ItemName:        itemName,
		TargetQuantity:  targetQuantity,
		PricePerUnit:    pricePerUnit,
		Unit:            unit,
		MinParticipants: minParticipants,
		Deadline:        deadline,
		Status:          StatusActive,
	}, nil
}

// Join 参与认购。重复加入的同一买家合并数量而非报错。
// 团购不设参与者数量上限，只受目标量和截止时间约束。
func (g *GroupBuy) Join(vendorID string, quantity decimal.Decimal, now time.Time) error {
	if vendorID == "" {
		return fmt.Errorf("%w: vendor required", ErrValidation)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if g.Status != StatusActive {
		return fmt.Errorf("%w: group buy status is %s", ErrGroupBuyClosed, g.Status)
	}
	if now.After(g.Deadline) {
		return ErrDeadlinePassed
	}

	if p := g.participant(vendorID); p != nil {
		if p.Status == ParticipantCancelled {
			// 退出后重新加入按新认购处理，不继承旧数量
			p.Status = ParticipantCommitted
			p.Quantity = quantity
		} else {
			p.Quantity = p.Quantity.Add(quantity)
		}
		p.JoinedAt = now
	} else {
		g.Participants = append(g.Participants, GroupBuyParticipant{
			GroupBuyRef: g.GroupBuyID,
			VendorID:    vendorID,
			Quantity:    quantity,
			Status:      ParticipantCommitted,
			JoinedAt:    now,
		})
	}

	g.refresh(now)
	return nil
}

// Leave 退出团购。已支付或已确认的参与者不可退出。
func (g *GroupBuy) Leave(vendorID string, now time.Time) error {
	p := g.participant(vendorID)
	if p == nil || p.Status == ParticipantCancelled {
		return ErrNotFound
	}
	if p.Status == ParticipantPaid || p.Status == ParticipantConfirmed {
		return ErrPaymentAlreadyConfirmed
	}
	p.Status = ParticipantCancelled
	g.refresh(now)
	return nil
}

// MarkPaid 参与者标记已支付。
func (g *GroupBuy) MarkPaid(vendorID string) error {
	p := g.participant(vendorID)
	if p == nil || p.Status == ParticipantCancelled {
		return ErrNotFound
	}
	if p.Status != ParticipantCommitted {
		return fmt.Errorf("%w: participant status is %s", ErrInvalidState, p.Status)
	}
	p.Status = ParticipantPaid
	return nil
}

// ConfirmPayment 发起方确认参与者支付。
func (g *GroupBuy) ConfirmPayment(supplierID, vendorID string) error {
	if supplierID != g.SupplierID {
		return ErrNotAuthorized
	}
	p := g.participant(vendorID)
	if p == nil || p.Status == ParticipantCancelled {
		return ErrNotFound
	}
	if p.Status != ParticipantPaid {
		return fmt.Errorf("%w: participant status is %s", ErrInvalidState, p.Status)
	}
	p.Status = ParticipantConfirmed
	return nil
}

// Complete 将达标截团的团购标记为已履约。对已履约的团购重复调用是无操作，
// 便于扇出订单部分失败后安全重试。
func (g *GroupBuy) Complete() error {
	if g.Status == StatusFulfilled {
		return nil
	}
	if g.Status != StatusClosed {
		return fmt.Errorf("%w: group buy status is %s", ErrInvalidState, g.Status)
	}
	quantity, _ := g.Progress()
	if quantity.LessThan(g.TargetQuantity) {
		return fmt.Errorf("%w: quantity %s below target %s", ErrTargetNotMet, quantity, g.TargetQuantity)
	}
	g.Status = StatusFulfilled
	return nil
}

// Cancel 发起方取消团购。
func (g *GroupBuy) Cancel(supplierID string) error {
	if supplierID != g.SupplierID {
		return ErrNotAuthorized
	}
	if g.Status != StatusActive {
		return fmt.Errorf("%w: cannot cancel in status %s", ErrInvalidState, g.Status)
	}
	g.Status = StatusCancelled
	return nil
}

// Expire 到期处理：过期未达标转 cancelled，已达标转 closed。未到期是无操作。
func (g *GroupBuy) Expire(now time.Time) {
	if g.Status != StatusActive {
		return
	}
	g.refresh(now)
	if g.Status == StatusActive && now.After(g.Deadline) {
		g.Status = StatusCancelled
	}
}

// Progress 从参与者列表重算进度：非取消参与者的数量总和与人数。
func (g *GroupBuy) Progress() (decimal.Decimal, int) {
	quantity := decimal.Zero
	count := 0
	for i := range g.Participants {
		if g.Participants[i].Status == ParticipantCancelled {
			continue
		}
		quantity = quantity.Add(g.Participants[i].Quantity)
		count++
	}
	return quantity, count
}

// ActiveParticipants 返回所有非取消参与者。
func (g *GroupBuy) ActiveParticipants() []*GroupBuyParticipant {
	var active []*GroupBuyParticipant
	for i := range g.Participants {
		if g.Participants[i].Status != ParticipantCancelled {
			active = append(active, &g.Participants[i])
		}
	}
	return active
}

// refresh 每次参与者变动后重算进度并推进状态。
func (g *GroupBuy) refresh(now time.Time) {
	if g.Status != StatusActive {
		return
	}
	quantity, _ := g.Progress()
	if quantity.GreaterThanOrEqual(g.TargetQuantity) {
		g.Status = StatusClosed
		return
	}
	if now.After(g.Deadline) {
		g.Status = StatusCancelled
	}
}

func (g *GroupBuy) participant(vendorID string) *GroupBuyParticipant {
	for i := range g.Participants {
		if g.Participants[i].VendorID == vendorID {
			return &g.Participants[i]
		}
	}
	return nil
}
