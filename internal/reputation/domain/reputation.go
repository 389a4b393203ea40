// Package domain 包含信誉账本的领域模型。
package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 信誉分数边界。
const (
	MinCivilScore     = 0
	MaxCivilScore     = 1000
	InitialCivilScore = 500

	// HistoryCapacity 信誉历史环形缓冲容量，超出后覆盖最旧条目。
	HistoryCapacity = 50

	MinRating = 1
	MaxRating = 5
)

// ReputationRecord 参与方信誉记录。
// 首次产生分数变动事件时惰性创建，civil score 始终被钳制在 [0,1000]。
type ReputationRecord struct {
	gorm.Model
	// 参与方 ID（买家或供应商）
	PartyID string `gorm:"column:party_id;type:varchar(64);uniqueIndex;not null" json:"party_id"`
	// 信誉分
	CivilScore int `gorm:"column:civil_score;not null;default:500" json:"civil_score"`
	// 历史环形缓冲写游标（下一个写入位置）
	HistoryCursor int `gorm:"column:history_cursor;not null;default:0" json:"-"`
	// 已写入的历史条目数（上限 HistoryCapacity）
	HistoryLen int `gorm:"column:history_len;not null;default:0" json:"-"`
	// 供应商评分均值（增量更新，不全量重算）
	SupplierRatingAvg decimal.Decimal `gorm:"column:supplier_rating_avg;type:decimal(10,4);not null;default:0" json:"supplier_rating_avg"`
	// 供应商评分次数
	SupplierRatingCount int64 `gorm:"column:supplier_rating_count;not null;default:0" json:"supplier_rating_count"`
	// 按时支付次数
	OnTimePayments int64 `gorm:"column:on_time_payments;not null;default:0" json:"-"`
	// 支付总次数
	TotalPayments int64 `gorm:"column:total_payments;not null;default:0" json:"-"`
	// 完成订单数
	CompletedOrders int64 `gorm:"column:completed_orders;not null;default:0" json:"-"`
	// 终态订单总数
	TotalOrders int64 `gorm:"column:total_orders;not null;default:0" json:"-"`
	// 买家收到的对手方评分均值
	CounterpartRatingAvg decimal.Decimal `gorm:"column:counterpart_rating_avg;type:decimal(10,4);not null;default:0" json:"-"`
	// 对手方评分次数
	CounterpartRatingCount int64 `gorm:"column:counterpart_rating_count;not null;default:0" json:"-"`
	// 买家综合信任分 [0,100]，由 RecomputeTrustScore 刷新
	TrustScore decimal.Decimal `gorm:"column:trust_score;type:decimal(5,2);not null;default:0" json:"trust_score"`
	// 乐观锁版本号
	Version int64 `gorm:"column:version;not null;default:0" json:"-"`
}

// TableName 指定表名。
func (ReputationRecord) TableName() string { return "reputation_records" }

// ScoreEntry 信誉分变动历史条目。
// 以 (party_id, slot) 唯一，slot 为环形缓冲位置，覆盖写即淘汰最旧条目。
type ScoreEntry struct {
	gorm.Model
	PartyID    string    `gorm:"column:party_id;type:varchar(64);uniqueIndex:uk_party_slot;not null" json:"-"`
	Slot       int       `gorm:"column:slot;uniqueIndex:uk_party_slot;not null" json:"-"`
	Score      int       `gorm:"column:score;not null" json:"score"`
	Delta      int       `gorm:"column:delta;not null" json:"delta"`
	Reason     string    `gorm:"column:reason;type:varchar(255)" json:"reason"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null" json:"recorded_at"`
}

// TableName 指定表名。
func (ScoreEntry) TableName() string { return "reputation_score_entries" }

// NewReputationRecord 创建初始信誉记录。
func NewReputationRecord(partyID string) *ReputationRecord {
	return &ReputationRecord{
		PartyID:    partyID,
		CivilScore: InitialCivilScore,
	}
}

// Adjust 应用一次分数变动，钳制到 [0,1000]，并返回写入环形缓冲的历史条目。
func (r *ReputationRecord) Adjust(delta int, reason string, now time.Time) *ScoreEntry {
	score := r.CivilScore + delta
	if score > MaxCivilScore {
		score = MaxCivilScore
	}
	if score < MinCivilScore {
		score = MinCivilScore
	}
	r.CivilScore = score

	entry := &ScoreEntry{
		PartyID:    r.PartyID,
		Slot:       r.HistoryCursor,
		Score:      score,
		Delta:      delta,
		Reason:     reason,
		RecordedAt: now,
	}
	r.HistoryCursor = (r.HistoryCursor + 1) % HistoryCapacity
	if r.HistoryLen < HistoryCapacity {
		r.HistoryLen++
	}
	return entry
}

// AddSupplierRating 增量更新供应商评分均值：avg' = (avg*n + rating) / (n+1)。
func (r *ReputationRecord) AddSupplierRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrValidation
	}
	n := decimal.NewFromInt(r.SupplierRatingCount)
	total := r.SupplierRatingAvg.Mul(n).Add(decimal.NewFromInt(int64(rating)))
	r.SupplierRatingCount++
	r.SupplierRatingAvg = total.Div(decimal.NewFromInt(r.SupplierRatingCount))
	return nil
}

// AddCounterpartRating 增量更新买家收到的对手方评分均值。
func (r *ReputationRecord) AddCounterpartRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrValidation
	}
	n := decimal.NewFromInt(r.CounterpartRatingCount)
	total := r.CounterpartRatingAvg.Mul(n).Add(decimal.NewFromInt(int64(rating)))
	r.CounterpartRatingCount++
	r.CounterpartRatingAvg = total.Div(decimal.NewFromInt(r.CounterpartRatingCount))
	return nil
}

// RecordPayment 记录一次支付结果。
func (r *ReputationRecord) RecordPayment(onTime bool) {
	r.TotalPayments++
	if onTime {
		r.OnTimePayments++
	}
}

// RecordOrderOutcome 记录一次订单终态结果。
func (r *ReputationRecord) RecordOrderOutcome(completed bool) {
	r.TotalOrders++
	if completed {
		r.CompletedOrders++
	}
}

// 信任分权重：40% 按时支付率 + 35% 订单完成率 + 25% 对手方评分（归一化到 1）。
var (
	trustPaymentWeight    = decimal.NewFromInt(40)
	trustCompletionWeight = decimal.NewFromInt(35)
	trustRatingWeight     = decimal.NewFromInt(25)
	neutralRatio          = decimal.NewFromFloat(0.5)
)

// ComputeTrustScore 计算买家信任分。
// 任一子指标分母为零时取中性值 0.5，保证新买家有确定的中性分数。
func (r *ReputationRecord) ComputeTrustScore() decimal.Decimal {
	onTime := neutralRatio
	if r.TotalPayments > 0 {
		onTime = decimal.NewFromInt(r.OnTimePayments).Div(decimal.NewFromInt(r.TotalPayments))
	}
	completion := neutralRatio
	if r.TotalOrders > 0 {
		completion = decimal.NewFromInt(r.CompletedOrders).Div(decimal.NewFromInt(r.TotalOrders))
	}
	rating := neutralRatio
	if r.CounterpartRatingCount > 0 {
		rating = r.CounterpartRatingAvg.Div(decimal.NewFromInt(MaxRating))
	}

	score := trustPaymentWeight.Mul(onTime).
		Add(trustCompletionWeight.Mul(completion)).
		Add(trustRatingWeight.Mul(rating))
	return score.Round(2)
}
