package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustClampsScore(t *testing.T) {
	now := time.Now()

	r := NewReputationRecord("vendor-1")
	r.Adjust(2000, "big bonus", now)
	assert.Equal(t, MaxCivilScore, r.CivilScore)

	r.Adjust(-5000, "big penalty", now)
	assert.Equal(t, MinCivilScore, r.CivilScore)

	r.Adjust(10, "recovery", now)
	assert.Equal(t, 10, r.CivilScore)
}

func TestAdjustHistoryRingBuffer(t *testing.T) {
	now := time.Now()
	r := NewReputationRecord("vendor-1")

	for i := 0; i < HistoryCapacity+7; i++ {
		entry := r.Adjust(1, "step", now)
		assert.Equal(t, i%HistoryCapacity, entry.Slot)
	}

	assert.Equal(t, HistoryCapacity, r.HistoryLen)
	// 写游标绕回后覆盖最旧槽位
	assert.Equal(t, 7, r.HistoryCursor)
}

func TestAddSupplierRatingIncrementalMean(t *testing.T) {
	r := NewReputationRecord("supplier-1")

	require.NoError(t, r.AddSupplierRating(4))
	require.NoError(t, r.AddSupplierRating(2))
	require.NoError(t, r.AddSupplierRating(5))

	assert.Equal(t, int64(3), r.SupplierRatingCount)
	expected := decimal.NewFromInt(11).Div(decimal.NewFromInt(3))
	assert.True(t, r.SupplierRatingAvg.Equal(expected), "avg = %s", r.SupplierRatingAvg)
}

func TestAddSupplierRatingRejectsOutOfRange(t *testing.T) {
	r := NewReputationRecord("supplier-1")

	assert.ErrorIs(t, r.AddSupplierRating(0), ErrValidation)
	assert.ErrorIs(t, r.AddSupplierRating(6), ErrValidation)
	assert.Equal(t, int64(0), r.SupplierRatingCount)
}

func TestComputeTrustScoreNeutralDefaults(t *testing.T) {
	r := NewReputationRecord("vendor-1")

	// 全部分母为零：40*0.5 + 35*0.5 + 25*0.5 = 50
	assert.True(t, r.ComputeTrustScore().Equal(decimal.NewFromInt(50)))
}

func TestComputeTrustScoreWeightedComposite(t *testing.T) {
	r := NewReputationRecord("vendor-1")
	r.RecordPayment(true)
	r.RecordPayment(true)
	r.RecordPayment(false)
	r.RecordOrderOutcome(true)
	r.RecordOrderOutcome(false)
	require.NoError(t, r.AddCounterpartRating(4))

	// 40*(2/3) + 35*(1/2) + 25*(4/5) = 26.67 + 17.5 + 20 = 64.17
	assert.True(t, r.ComputeTrustScore().Equal(decimal.NewFromFloat(64.17)),
		"score = %s", r.ComputeTrustScore())
}

func TestComputeTrustScorePartialDenominators(t *testing.T) {
	r := NewReputationRecord("vendor-1")
	r.RecordPayment(true)

	// 40*1 + 35*0.5 + 25*0.5 = 70
	assert.True(t, r.ComputeTrustScore().Equal(decimal.NewFromInt(70)))
}
