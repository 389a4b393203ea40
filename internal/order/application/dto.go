package application

import (
	"time"

	"github.com/wyfcoding/localmarket/internal/order/domain"
)

// OrderDTO 订单查询视图
type OrderDTO struct {
	OrderID         string            `json:"order_id"`
	VendorID        string            `json:"vendor_id"`
	SupplierID      string            `json:"supplier_id,omitempty"`
	Kind            string            `json:"kind"`
	Quantity        string            `json:"quantity"`
	EstimatedPrice  string            `json:"estimated_price"`
	FinalPrice      string            `json:"final_price,omitempty"`
	Status          string            `json:"status"`
	DeliveryCarrier string            `json:"delivery_carrier,omitempty"`
	TrackingNumber  string            `json:"tracking_number,omitempty"`
	Bids            []BidDTO          `json:"bids"`
	GroupBuy        *GroupBuyDTO      `json:"group_buy,omitempty"`
	StatusHistory   []StatusChangeDTO `json:"status_history"`
	CreatedAt       time.Time         `json:"created_at"`
}

// BidDTO 报价视图
type BidDTO struct {
	SupplierID        string    `json:"supplier_id"`
	Price             string    `json:"price"`
	Message           string    `json:"message,omitempty"`
	TurnaroundMinutes int       `json:"turnaround_minutes"`
	Accepted          bool      `json:"accepted"`
	SubmittedAt       time.Time `json:"submitted_at"`
}

// GroupBuyDTO 订单内嵌拼单视图
type GroupBuyDTO struct {
	MinParticipants int              `json:"min_participants"`
	MaxParticipants int              `json:"max_participants"`
	Deadline        time.Time        `json:"deadline"`
	Participants    []ParticipantDTO `json:"participants"`
}

// ParticipantDTO 拼单参与者视图
type ParticipantDTO struct {
	VendorID string    `json:"vendor_id"`
	Quantity string    `json:"quantity"`
	JoinedAt time.Time `json:"joined_at"`
}

// StatusChangeDTO 状态历史视图
type StatusChangeDTO struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

func toOrderDTO(o *domain.Order) *OrderDTO {
	dto := &OrderDTO{
		OrderID:         o.OrderID,
		VendorID:        o.VendorID,
		SupplierID:      o.SupplierID,
		Kind:            string(o.Kind),
		Quantity:        o.Quantity.String(),
		EstimatedPrice:  o.EstimatedPrice.String(),
		Status:          string(o.Status),
		DeliveryCarrier: o.DeliveryCarrier,
		TrackingNumber:  o.TrackingNumber,
		Bids:            make([]BidDTO, 0, len(o.Bids)),
		StatusHistory:   make([]StatusChangeDTO, 0, len(o.StatusHistory)),
		CreatedAt:       o.CreatedAt,
	}
	if o.FinalPrice.Valid {
		dto.FinalPrice = o.FinalPrice.Decimal.String()
	}
	for i := range o.Bids {
		b := &o.Bids[i]
		dto.Bids = append(dto.Bids, BidDTO{
			SupplierID:        b.SupplierID,
			Price:             b.Price.String(),
			Message:           b.Message,
			TurnaroundMinutes: b.TurnaroundMinutes,
			Accepted:          b.Accepted,
			SubmittedAt:       b.SubmittedAt,
		})
	}
	if o.GroupBuy != nil {
		gb := &GroupBuyDTO{
			MinParticipants: o.GroupBuy.MinParticipants,
			MaxParticipants: o.GroupBuy.MaxParticipants,
			Deadline:        o.GroupBuy.Deadline,
			Participants:    make([]ParticipantDTO, 0, len(o.GroupBuy.Participants)),
		}
		for i := range o.GroupBuy.Participants {
			p := &o.GroupBuy.Participants[i]
			gb.Participants = append(gb.Participants, ParticipantDTO{
				VendorID: p.VendorID,
				Quantity: p.Quantity.String(),
				JoinedAt: p.JoinedAt,
			})
		}
		dto.GroupBuy = gb
	}
	for i := range o.StatusHistory {
		h := &o.StatusHistory[i]
		dto.StatusHistory = append(dto.StatusHistory, StatusChangeDTO{
			Status:    string(h.Status),
			Note:      h.Note,
			Actor:     h.Actor,
			ChangedAt: h.ChangedAt,
		})
	}
	return dto
}
