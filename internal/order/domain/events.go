package domain

import "time"

// 订单领域事件主题。
const (
	OrderCreatedEventType       = "order.created"
	OrderBidSubmittedEventType  = "order.bid.submitted"
	OrderBidAcceptedEventType   = "order.bid.accepted"
	OrderGroupJoinedEventType   = "order.group.joined"
	OrderStatusChangedEventType = "order.status.changed"
	OrderCompletedEventType     = "order.completed"
	OrderCancelledEventType     = "order.cancelled"
	OrderExpiredEventType       = "order.expired"
)

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderID   string    `json:"order_id"`
	VendorID  string    `json:"vendor_id"`
	Kind      string    `json:"kind"`
	Quantity  string    `json:"quantity"`
	SourceRef string    `json:"source_ref,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderBidSubmittedEvent 报价提交事件
type OrderBidSubmittedEvent struct {
	OrderID    string    `json:"order_id"`
	SupplierID string    `json:"supplier_id"`
	Price      string    `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
}

// OrderBidAcceptedEvent 报价接受事件
type OrderBidAcceptedEvent struct {
	OrderID    string    `json:"order_id"`
	VendorID   string    `json:"vendor_id"`
	SupplierID string    `json:"supplier_id"`
	FinalPrice string    `json:"final_price"`
	Timestamp  time.Time `json:"timestamp"`
}

// OrderGroupJoinedEvent 拼单加入事件
type OrderGroupJoinedEvent struct {
	OrderID   string    `json:"order_id"`
	VendorID  string    `json:"vendor_id"`
	Quantity  string    `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent 状态变更事件
type OrderStatusChangedEvent struct {
	OrderID   string    `json:"order_id"`
	VendorID  string    `json:"vendor_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderTerminalEvent 订单终态事件（completed/cancelled/expired 共用）
type OrderTerminalEvent struct {
	OrderID   string    `json:"order_id"`
	VendorID  string    `json:"vendor_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
