package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	gbNow      = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	gbDeadline = gbNow.Add(48 * time.Hour)
)

func newTestGroupBuy(t *testing.T, target int64) *GroupBuy {
	t.Helper()
	g, err := NewGroupBuy("GB-1", "supplier-1", "potatoes", decimal.NewFromInt(target),
		decimal.NewFromInt(2), "kg", 1, gbDeadline, gbNow)
	require.NoError(t, err)
	return g
}

// 进度必须与参与者列表一致，作为每次变动后的通用校验。
func assertProgressConsistent(t *testing.T, g *GroupBuy) {
	t.Helper()
	expected := decimal.Zero
	count := 0
	for i := range g.Participants {
		if g.Participants[i].Status == ParticipantCancelled {
			continue
		}
		expected = expected.Add(g.Participants[i].Quantity)
		count++
	}
	quantity, participants := g.Progress()
	assert.True(t, quantity.Equal(expected), "progress quantity %s, recomputed %s", quantity, expected)
	assert.Equal(t, count, participants)
}

func TestJoinMergesRepeatCommitment(t *testing.T) {
	g := newTestGroupBuy(t, 100)

	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(20), gbNow))
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(15), gbNow))

	require.Len(t, g.Participants, 1)
	assert.True(t, g.Participants[0].Quantity.Equal(decimal.NewFromInt(35)))
	assertProgressConsistent(t, g)
}

func TestRejoinAfterLeaveStartsFresh(t *testing.T) {
	g := newTestGroupBuy(t, 100)

	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(40), gbNow))
	require.NoError(t, g.Leave("vendor-a", gbNow))
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(10), gbNow))

	require.Len(t, g.Participants, 1)
	assert.Equal(t, ParticipantCommitted, g.Participants[0].Status)
	assert.True(t, g.Participants[0].Quantity.Equal(decimal.NewFromInt(10)))
	assertProgressConsistent(t, g)
}

func TestLeaveAfterPaymentRejected(t *testing.T) {
	g := newTestGroupBuy(t, 100)
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(20), gbNow))
	require.NoError(t, g.MarkPaid("vendor-a"))

	assert.ErrorIs(t, g.Leave("vendor-a", gbNow), ErrPaymentAlreadyConfirmed)

	require.NoError(t, g.ConfirmPayment("supplier-1", "vendor-a"))
	assert.ErrorIs(t, g.Leave("vendor-a", gbNow), ErrPaymentAlreadyConfirmed)
}

func TestLeaveUnknownParticipant(t *testing.T) {
	g := newTestGroupBuy(t, 100)

	assert.ErrorIs(t, g.Leave("vendor-x", gbNow), ErrNotFound)

	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(20), gbNow))
	require.NoError(t, g.Leave("vendor-a", gbNow))
	// 重复退出视为不存在
	assert.ErrorIs(t, g.Leave("vendor-a", gbNow), ErrNotFound)
}

func TestPaymentFlow(t *testing.T) {
	g := newTestGroupBuy(t, 100)
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(20), gbNow))

	// 未支付不能确认
	assert.ErrorIs(t, g.ConfirmPayment("supplier-1", "vendor-a"), ErrInvalidState)
	// 只有发起方可以确认
	require.NoError(t, g.MarkPaid("vendor-a"))
	assert.ErrorIs(t, g.ConfirmPayment("supplier-2", "vendor-a"), ErrNotAuthorized)

	require.NoError(t, g.ConfirmPayment("supplier-1", "vendor-a"))
	assert.Equal(t, ParticipantConfirmed, g.Participants[0].Status)
	// 重复标记支付被拒
	assert.ErrorIs(t, g.MarkPaid("vendor-a"), ErrInvalidState)
}

func TestAutoCloseAtTarget(t *testing.T) {
	g := newTestGroupBuy(t, 100)

	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(60), gbNow))
	assert.Equal(t, StatusActive, g.Status)

	require.NoError(t, g.Join("vendor-b", decimal.NewFromInt(40), gbNow))
	assert.Equal(t, StatusClosed, g.Status)

	// 截团后不再接受认购
	assert.ErrorIs(t, g.Join("vendor-c", decimal.NewFromInt(5), gbNow), ErrGroupBuyClosed)
}

func TestLeaveReopensBelowTarget(t *testing.T) {
	g := newTestGroupBuy(t, 100)
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(60), gbNow))
	require.NoError(t, g.Join("vendor-b", decimal.NewFromInt(40), gbNow))
	require.Equal(t, StatusClosed, g.Status)

	// 截团后退出不回退状态：refresh 只在 active 时推进
	require.NoError(t, g.Leave("vendor-b", gbNow))
	assert.Equal(t, StatusClosed, g.Status)
	assertProgressConsistent(t, g)
}

func TestCompleteRequiresClosedAndTarget(t *testing.T) {
	g := newTestGroupBuy(t, 100)
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(50), gbNow))

	// 未截团不可履约
	assert.ErrorIs(t, g.Complete(), ErrInvalidState)

	require.NoError(t, g.Join("vendor-b", decimal.NewFromInt(50), gbNow))
	require.Equal(t, StatusClosed, g.Status)
	require.NoError(t, g.Complete())
	assert.Equal(t, StatusFulfilled, g.Status)

	// 重复履约是无操作
	require.NoError(t, g.Complete())
	assert.Equal(t, StatusFulfilled, g.Status)
}

func TestCompleteBelowTargetAfterLeave(t *testing.T) {
	g := newTestGroupBuy(t, 100)
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(60), gbNow))
	require.NoError(t, g.Join("vendor-b", decimal.NewFromInt(40), gbNow))
	require.NoError(t, g.Leave("vendor-b", gbNow))

	assert.ErrorIs(t, g.Complete(), ErrTargetNotMet)
}

func TestExpireCancelsUnmetGroupBuy(t *testing.T) {
	g := newTestGroupBuy(t, 100)
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(30), gbNow))

	g.Expire(gbDeadline.Add(time.Minute))
	assert.Equal(t, StatusCancelled, g.Status)

	// 再次调用无操作
	g.Expire(gbDeadline.Add(time.Hour))
	assert.Equal(t, StatusCancelled, g.Status)
}

func TestExpireClosesMetGroupBuy(t *testing.T) {
	g := newTestGroupBuy(t, 100)
	g.Participants = append(g.Participants, GroupBuyParticipant{
		GroupBuyRef: g.GroupBuyID, VendorID: "vendor-a",
		Quantity: decimal.NewFromInt(100), Status: ParticipantCommitted, JoinedAt: gbNow,
	})

	g.Expire(gbDeadline.Add(time.Minute))
	assert.Equal(t, StatusClosed, g.Status)
}

func TestJoinAfterDeadline(t *testing.T) {
	g := newTestGroupBuy(t, 100)

	err := g.Join("vendor-a", decimal.NewFromInt(10), gbDeadline.Add(time.Second))
	assert.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestCancelOnlyBySupplierWhileActive(t *testing.T) {
	g := newTestGroupBuy(t, 100)

	assert.ErrorIs(t, g.Cancel("supplier-2"), ErrNotAuthorized)
	require.NoError(t, g.Cancel("supplier-1"))
	assert.ErrorIs(t, g.Cancel("supplier-1"), ErrInvalidState)
}

func TestActiveParticipantsExcludesCancelled(t *testing.T) {
	g := newTestGroupBuy(t, 100)
	require.NoError(t, g.Join("vendor-a", decimal.NewFromInt(10), gbNow))
	require.NoError(t, g.Join("vendor-b", decimal.NewFromInt(10), gbNow))
	require.NoError(t, g.Leave("vendor-a", gbNow))

	active := g.ActiveParticipants()
	require.Len(t, active, 1)
	assert.Equal(t, "vendor-b", active[0].VendorID)
}
