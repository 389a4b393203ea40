package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// 团购领域事件主题。
const (
	GroupBuyCreatedTopic   = "groupbuy.created"
	GroupBuyJoinedTopic    = "groupbuy.joined"
	GroupBuyLeftTopic      = "groupbuy.left"
	GroupBuyClosedTopic    = "groupbuy.closed"
	GroupBuyFulfilledTopic = "groupbuy.fulfilled"
	GroupBuyCancelledTopic = "groupbuy.cancelled"
	GroupBuyPaymentTopic   = "groupbuy.payment.updated"
)

// GroupBuyCreatedEvent 团购创建事件。
type GroupBuyCreatedEvent struct {
	GroupBuyID     string          `json:"groupbuy_id"`
	SupplierID     string          `json:"supplier_id"`
	ItemName       string          `json:"item_name"`
	TargetQuantity decimal.Decimal `json:"target_quantity"`
	PricePerUnit   decimal.Decimal `json:"price_per_unit"`
	Deadline       time.Time       `json:"deadline"`
}

// GroupBuyParticipantEvent 参与者变动事件，加入/退出/支付共用。
type GroupBuyParticipantEvent struct {
	GroupBuyID string          `json:"groupbuy_id"`
	VendorID   string          `json:"vendor_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Status     string          `json:"status"`
}

// GroupBuyStatusEvent 团购状态变更事件。
type GroupBuyStatusEvent struct {
	GroupBuyID       string          `json:"groupbuy_id"`
	SupplierID       string          `json:"supplier_id"`
	Status           string          `json:"status"`
	CurrentQuantity  decimal.Decimal `json:"current_quantity"`
	ParticipantCount int             `json:"participant_count"`
}
