// Package domain 包含采购订单聚合的领域模型。
// 订单是一致性边界：每次操作要么完整生效（含历史追加），要么完全不生效。
package domain

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusBidding   OrderStatus = "bidding"
	StatusAccepted  OrderStatus = "accepted"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusInTransit OrderStatus = "in_transit"
	StatusDelivered OrderStatus = "delivered"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
	StatusExpired   OrderStatus = "expired"
)

// IsTerminal 是否终态。
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

// OrderKind 订单类型
type OrderKind string

const (
	KindIndividual OrderKind = "individual"
	KindGroup      OrderKind = "group"
)

// 订单终态对应的信誉分变动。
const (
	CompletionVendorDelta      = 10
	CompletionParticipantDelta = 5
	CancellationVendorDelta    = -15
)

// Order 采购订单聚合根。
// VendorID 与 Kind 自创建起不可变；其余字段只通过领域方法变更。
type Order struct {
	gorm.Model
	// 订单业务 ID
	OrderID string `gorm:"column:order_id;type:varchar(32);uniqueIndex;not null" json:"order_id"`
	// 发起买家 ID（不可变）
	VendorID string `gorm:"column:vendor_id;type:varchar(64);index;not null" json:"vendor_id"`
	// 中标供应商 ID，接受报价前为空
	SupplierID string `gorm:"column:supplier_id;type:varchar(64);index" json:"supplier_id"`
	// 订单类型：individual 或 group
	Kind OrderKind `gorm:"column:kind;type:varchar(16);not null" json:"kind"`
	// 数量
	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null" json:"quantity"`
	// 预估价
	EstimatedPrice decimal.Decimal `gorm:"column:estimated_price;type:decimal(20,4);not null" json:"estimated_price"`
	// 成交价，接受报价前为空
	FinalPrice decimal.NullDecimal `gorm:"column:final_price;type:decimal(20,4)" json:"final_price"`
	// 订单状态
	Status OrderStatus `gorm:"column:status;type:varchar(16);index;not null" json:"status"`
	// 物流承运方
	DeliveryCarrier string `gorm:"column:delivery_carrier;type:varchar(64)" json:"delivery_carrier"`
	// 物流单号
	TrackingNumber string `gorm:"column:tracking_number;type:varchar(64)" json:"tracking_number"`
	// 幂等来源（auction:<id> / groupbuy:<id>:<vendor>），避免扇出重复创建。
	// 普通订单为 NULL，不占用唯一索引。
	SourceRef sql.NullString `gorm:"column:source_ref;type:varchar(128);uniqueIndex" json:"-"`
	// 乐观锁版本号
	Version int64 `gorm:"column:version;not null;default:0" json:"-"`

	// 报价集合：每个供应商至多一条有效报价
	Bids []OrderBid `gorm:"foreignKey:OrderRef;references:OrderID" json:"bids"`
	// 拼单子记录，仅 kind=group 时存在
	GroupBuy *OrderGroupBuy `gorm:"foreignKey:OrderRef;references:OrderID" json:"group_buy,omitempty"`
	// 状态历史：只追加，审计与状态一致性校验的唯一依据
	StatusHistory []OrderStatusChange `gorm:"foreignKey:OrderRef;references:OrderID" json:"status_history"`
}

// TableName 指定表名。
func (Order) TableName() string { return "orders" }

// OrderBid 供应商对订单的报价，(order_ref, supplier_id) 唯一，重复提交走更新。
type OrderBid struct {
	gorm.Model
	OrderRef string `gorm:"column:order_ref;type:varchar(32);uniqueIndex:uk_order_supplier;not null" json:"-"`
	// 报价供应商 ID
	SupplierID string `gorm:"column:supplier_id;type:varchar(64);uniqueIndex:uk_order_supplier;not null" json:"supplier_id"`
	// 报价
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,4);not null" json:"price"`
	// 留言
	Message string `gorm:"column:message;type:varchar(512)" json:"message"`
	// 预计交付时长（分钟）
	TurnaroundMinutes int `gorm:"column:turnaround_minutes;not null" json:"turnaround_minutes"`
	// 是否被接受
	Accepted bool `gorm:"column:accepted;not null;default:false" json:"accepted"`
	// 提交时间（重复报价时刷新）
	SubmittedAt time.Time `gorm:"column:submitted_at;not null" json:"submitted_at"`
}

// TableName 指定表名。
func (OrderBid) TableName() string { return "order_bids" }

// OrderGroupBuy 订单内嵌的拼单参数。
type OrderGroupBuy struct {
	gorm.Model
	OrderRef string `gorm:"column:order_ref;type:varchar(32);uniqueIndex;not null" json:"-"`
	// 最少参与人数
	MinParticipants int `gorm:"column:min_participants;not null" json:"min_participants"`
	// 参与人数硬上限
	MaxParticipants int `gorm:"column:max_participants;not null" json:"max_participants"`
	// 报名截止时间
	Deadline time.Time `gorm:"column:deadline;not null" json:"deadline"`
	// 参与者列表
	Participants []OrderGroupParticipant `gorm:"foreignKey:OrderRef;references:OrderRef" json:"participants"`
}

// TableName 指定表名。
func (OrderGroupBuy) TableName() string { return "order_group_buys" }

// OrderGroupParticipant 拼单参与者，(order_ref, vendor_id) 唯一。
// 与供应商侧拼单活动不同，这里同一买家重复加入会被拒绝而不是合并数量。
type OrderGroupParticipant struct {
	gorm.Model
	OrderRef string `gorm:"column:order_ref;type:varchar(32);uniqueIndex:uk_order_vendor;not null" json:"-"`
	// 参与买家 ID
	VendorID string `gorm:"column:vendor_id;type:varchar(64);uniqueIndex:uk_order_vendor;not null" json:"vendor_id"`
	// 认购数量
	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(20,4);not null" json:"quantity"`
	// 加入时间
	JoinedAt time.Time `gorm:"column:joined_at;not null" json:"joined_at"`
}

// TableName 指定表名。
func (OrderGroupParticipant) TableName() string { return "order_group_participants" }

// OrderStatusChange 状态历史条目，只追加，从不修改或删除。
type OrderStatusChange struct {
	gorm.Model
	OrderRef string `gorm:"column:order_ref;type:varchar(32);index;not null" json:"-"`
	// 变更后状态
	Status OrderStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	// 备注
	Note string `gorm:"column:note;type:varchar(512)" json:"note"`
	// 操作者 ID
	Actor string `gorm:"column:actor;type:varchar(64)" json:"actor"`
	// 变更时间
	ChangedAt time.Time `gorm:"column:changed_at;not null" json:"changed_at"`
}

// TableName 指定表名。
func (OrderStatusChange) TableName() string { return "order_status_changes" }

// NewOrder 创建订单，初始状态 pending。
func NewOrder(orderID, vendorID string, kind OrderKind, quantity, estimatedPrice decimal.Decimal, now time.Time) (*Order, error) {
	if vendorID == "" || !quantity.IsPositive() || estimatedPrice.IsNegative() {
		return nil, fmt.Errorf("%w: vendor/quantity/price", ErrValidation)
	}
	if kind != KindIndividual && kind != KindGroup {
		return nil, fmt.Errorf("%w: unknown order kind %q", ErrValidation, kind)
	}
	o := &Order{
		OrderID:        orderID,
		VendorID:       vendorID,
		Kind:           kind,
		Quantity:       quantity,
		EstimatedPrice: estimatedPrice,
		Status:         StatusPending,
	}
	o.appendHistory(StatusPending, "order created", vendorID, now)
	return o, nil
}

// AttachGroupBuy 挂载拼单参数，仅创建时调用。
func (o *Order) AttachGroupBuy(minParticipants, maxParticipants int, deadline time.Time) error {
	if o.Kind != KindGroup {
		return fmt.Errorf("%w: group parameters on %s order", ErrValidation, o.Kind)
	}
	if minParticipants <= 0 || maxParticipants < minParticipants {
		return fmt.Errorf("%w: participant bounds", ErrValidation)
	}
	o.GroupBuy = &OrderGroupBuy{
		OrderRef:        o.OrderID,
		MinParticipants: minParticipants,
		MaxParticipants: maxParticipants,
		Deadline:        deadline,
	}
	return nil
}

// Settle 指定供应商与成交价并进入 accepted 态，用于竞拍中标与拼单扇出创建的订单。
func (o *Order) Settle(supplierID string, finalPrice decimal.Decimal, now time.Time) error {
	if supplierID == "" || finalPrice.IsNegative() {
		return fmt.Errorf("%w: supplier/final price", ErrValidation)
	}
	o.SupplierID = supplierID
	o.FinalPrice = decimal.NewNullDecimal(finalPrice)
	o.Status = StatusAccepted
	o.appendHistory(StatusAccepted, "settled from matching", supplierID, now)
	return nil
}

// SubmitBid 供应商提交或更新报价。
// 首个报价将订单从 pending 推进到 bidding（显式的开标转移）。
func (o *Order) SubmitBid(supplierID string, price decimal.Decimal, message string, turnaroundMinutes int, now time.Time) error {
	if supplierID == "" || !price.IsPositive() || turnaroundMinutes <= 0 {
		return fmt.Errorf("%w: bid price and turnaround must be positive", ErrValidation)
	}
	if o.Status != StatusPending && o.Status != StatusBidding {
		return fmt.Errorf("%w: order is %s", ErrBiddingClosed, o.Status)
	}
	if o.Kind == KindGroup && o.GroupBuy != nil && now.After(o.GroupBuy.Deadline) {
		return fmt.Errorf("%w: group deadline %s", ErrDeadlinePassed, o.GroupBuy.Deadline.Format(time.RFC3339))
	}

	// 同一供应商重复报价走覆盖，不追加
	for i := range o.Bids {
		if o.Bids[i].SupplierID == supplierID {
			o.Bids[i].Price = price
			o.Bids[i].Message = message
			o.Bids[i].TurnaroundMinutes = turnaroundMinutes
			o.Bids[i].SubmittedAt = now
			o.openBidding(supplierID, now)
			return nil
		}
	}
	o.Bids = append(o.Bids, OrderBid{
		OrderRef:          o.OrderID,
		SupplierID:        supplierID,
		Price:             price,
		Message:           message,
		TurnaroundMinutes: turnaroundMinutes,
		SubmittedAt:       now,
	})
	o.openBidding(supplierID, now)
	return nil
}

func (o *Order) openBidding(actor string, now time.Time) {
	if o.Status == StatusPending {
		o.Status = StatusBidding
		o.appendHistory(StatusBidding, "first bid opens bidding", actor, now)
	}
}

// AcceptBid 买家接受指定供应商的报价。落选报价保留，供审计。
func (o *Order) AcceptBid(actorID, supplierID string, now time.Time) error {
	if actorID != o.VendorID {
		return fmt.Errorf("%w: only the owning vendor can accept bids", ErrNotAuthorized)
	}
	if o.Status != StatusPending && o.Status != StatusBidding {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusAccepted)
	}
	var bid *OrderBid
	for i := range o.Bids {
		if o.Bids[i].SupplierID == supplierID {
			bid = &o.Bids[i]
			break
		}
	}
	if bid == nil {
		return fmt.Errorf("%w: no bid from supplier %s", ErrNotFound, supplierID)
	}
	bid.Accepted = true
	o.SupplierID = supplierID
	o.FinalPrice = decimal.NewNullDecimal(bid.Price)
	o.Status = StatusAccepted
	o.appendHistory(StatusAccepted, fmt.Sprintf("bid from %s accepted", supplierID), actorID, now)
	return nil
}

// JoinGroup 买家加入订单内嵌拼单。
// 同一买家重复加入被拒绝（与供应商侧拼单活动的合并语义刻意不同）。
func (o *Order) JoinGroup(vendorID string, quantity decimal.Decimal, now time.Time) error {
	if o.Kind != KindGroup || o.GroupBuy == nil {
		return fmt.Errorf("%w: not a group order", ErrValidation)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if o.Status != StatusPending && o.Status != StatusBidding {
		return fmt.Errorf("%w: order is %s", ErrBiddingClosed, o.Status)
	}
	if now.After(o.GroupBuy.Deadline) {
		return fmt.Errorf("%w: group deadline %s", ErrDeadlinePassed, o.GroupBuy.Deadline.Format(time.RFC3339))
	}
	if len(o.GroupBuy.Participants) >= o.GroupBuy.MaxParticipants {
		return fmt.Errorf("%w: %d participants", ErrGroupFull, o.GroupBuy.MaxParticipants)
	}
	for i := range o.GroupBuy.Participants {
		if o.GroupBuy.Participants[i].VendorID == vendorID {
			return fmt.Errorf("%w: vendor %s", ErrDuplicateParticipant, vendorID)
		}
	}
	// 认购总量允许超过订单数量，不做钳制，只受人数与截止时间约束
	o.GroupBuy.Participants = append(o.GroupBuy.Participants, OrderGroupParticipant{
		OrderRef: o.OrderID,
		VendorID: vendorID,
		Quantity: quantity,
		JoinedAt: now,
	})
	return nil
}

// AdvanceStatus 按角色转移表推进订单状态。
func (o *Order) AdvanceStatus(actorID string, role Role, newStatus OrderStatus, note string, now time.Time) error {
	switch role {
	case RoleVendor:
		if actorID != o.VendorID {
			return fmt.Errorf("%w: actor is not the order vendor", ErrNotAuthorized)
		}
	case RoleSupplier:
		if o.SupplierID == "" || actorID != o.SupplierID {
			return fmt.Errorf("%w: actor is not the assigned supplier", ErrNotAuthorized)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if !CanTransition(role, o.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s (role %s)", ErrInvalidTransition, o.Status, newStatus, role)
	}
	o.Status = newStatus
	o.appendHistory(newStatus, note, actorID, now)
	return nil
}

// Expire 将仍在开标阶段的订单标记为过期，由外部周期清扫触发。
func (o *Order) Expire(now time.Time) error {
	if o.Status != StatusPending && o.Status != StatusBidding {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusExpired)
	}
	o.Status = StatusExpired
	o.appendHistory(StatusExpired, "deadline passed", "system", now)
	return nil
}

// AddNote 追加备注历史，不影响状态。
func (o *Order) AddNote(actorID, note string, now time.Time) {
	o.appendHistory(o.Status, note, actorID, now)
}

// SetDeliveryTracking 更新物流信息，不影响状态。
func (o *Order) SetDeliveryTracking(carrier, trackingNumber string) {
	o.DeliveryCarrier = carrier
	o.TrackingNumber = trackingNumber
}

// ActiveParticipants 返回当前参与者的买家 ID 列表（kind=group 时）。
func (o *Order) ActiveParticipants() []string {
	if o.GroupBuy == nil {
		return nil
	}
	ids := make([]string, 0, len(o.GroupBuy.Participants))
	for i := range o.GroupBuy.Participants {
		ids = append(ids, o.GroupBuy.Participants[i].VendorID)
	}
	return ids
}

func (o *Order) appendHistory(status OrderStatus, note, actor string, now time.Time) {
	o.StatusHistory = append(o.StatusHistory, OrderStatusChange{
		OrderRef:  o.OrderID,
		Status:    status,
		Note:      note,
		Actor:     actor,
		ChangedAt: now,
	})
}
