package application

import (
	"time"

	"github.com/wyfcoding/localmarket/internal/groupbuy/domain"
)

// GroupBuyDTO 团购查询视图
type GroupBuyDTO struct {
	GroupBuyID       string                `json:"groupbuy_id"`
	SupplierID       string                `json:"supplier_id"`
	ItemName         string                `json:"item_name"`
	TargetQuantity   string                `json:"target_quantity"`
	PricePerUnit     string                `json:"price_per_unit"`
	Unit             string                `json:"unit"`
	MinParticipants  int                   `json:"min_participants"`
	Deadline         time.Time             `json:"deadline"`
	Status           string                `json:"status"`
	CurrentQuantity  string                `json:"current_quantity"`
	ParticipantCount int                   `json:"participant_count"`
	Participants     []GroupParticipantDTO `json:"participants"`
	CreatedAt        time.Time             `json:"created_at"`
}

// GroupParticipantDTO 参与者视图
type GroupParticipantDTO struct {
	VendorID string    `json:"vendor_id"`
	Quantity string    `json:"quantity"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

func toGroupBuyDTO(g *domain.GroupBuy) *GroupBuyDTO {
	quantity, count := g.Progress()
	dto := &GroupBuyDTO{
		GroupBuyID:       g.GroupBuyID,
		SupplierID:       g.SupplierID,
		ItemName:         g.ItemName,
		TargetQuantity:   g.TargetQuantity.String(),
		PricePerUnit:     g.PricePerUnit.String(),
		Unit:             g.Unit,
		MinParticipants:  g.MinParticipants,
		Deadline:         g.Deadline,
		Status:           string(g.Status),
		CurrentQuantity:  quantity.String(),
		ParticipantCount: count,
		Participants:     make([]GroupParticipantDTO, 0, len(g.Participants)),
		CreatedAt:        g.CreatedAt,
	}
	for i := range g.Participants {
		p := &g.Participants[i]
		dto.Participants = append(dto.Participants, GroupParticipantDTO{
			VendorID: p.VendorID,
			Quantity: p.Quantity.String(),
			Status:   string(p.Status),
			JoinedAt: p.JoinedAt,
		})
	}
	return dto
}

func toGroupBuyDTOs(groupBuys []*domain.GroupBuy) []*GroupBuyDTO {
	dtos := make([]*GroupBuyDTO, 0, len(groupBuys))
	for _, g := range groupBuys {
		dtos = append(dtos, toGroupBuyDTO(g))
	}
	return dtos
}
