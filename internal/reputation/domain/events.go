package domain

import "time"

// 信誉领域事件主题。
const (
	ReputationAdjustedEventType   = "reputation.adjusted"
	SupplierRatedEventType        = "reputation.supplier.rated"
	TrustScoreRecomputedEventType = "reputation.trust.recomputed"
)

// ReputationAdjustedEvent 信誉分变动事件
type ReputationAdjustedEvent struct {
	PartyID   string    `json:"party_id"`
	Delta     int       `json:"delta"`
	Score     int       `json:"score"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// SupplierRatedEvent 供应商被评分事件
type SupplierRatedEvent struct {
	SupplierID string    `json:"supplier_id"`
	Rating     int       `json:"rating"`
	Average    string    `json:"average"`
	Count      int64     `json:"count"`
	Timestamp  time.Time `json:"timestamp"`
}

// TrustScoreRecomputedEvent 信任分重算事件
type TrustScoreRecomputedEvent struct {
	VendorID   string    `json:"vendor_id"`
	TrustScore string    `json:"trust_score"`
	Timestamp  time.Time `json:"timestamp"`
}
