package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow      = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	testDeadline = testNow.Add(24 * time.Hour)
)

func newTestOrder(t *testing.T, kind OrderKind) *Order {
	t.Helper()
	order, err := NewOrder("ORD-1", "vendor-1", kind, decimal.NewFromInt(10), decimal.NewFromInt(100), testNow)
	require.NoError(t, err)
	if kind == KindGroup {
		require.NoError(t, order.AttachGroupBuy(2, 3, testDeadline))
	}
	return order
}

func TestNewOrderValidation(t *testing.T) {
	_, err := NewOrder("ORD-1", "", KindIndividual, decimal.NewFromInt(1), decimal.NewFromInt(1), testNow)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewOrder("ORD-1", "vendor-1", KindIndividual, decimal.Zero, decimal.NewFromInt(1), testNow)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewOrder("ORD-1", "vendor-1", "mystery", decimal.NewFromInt(1), decimal.NewFromInt(1), testNow)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitBidOpensBidding(t *testing.T) {
	order := newTestOrder(t, KindIndividual)
	require.Equal(t, StatusPending, order.Status)

	err := order.SubmitBid("supplier-1", decimal.NewFromInt(90), "fresh stock", 60, testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusBidding, order.Status)
	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, StatusBidding, order.StatusHistory[1].Status)
}

func TestSubmitBidUpsertsPerSupplier(t *testing.T) {
	order := newTestOrder(t, KindIndividual)

	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
	require.NoError(t, order.SubmitBid("supplier-2", decimal.NewFromInt(85), "", 90, testNow))
	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(80), "lower", 45, testNow.Add(time.Minute)))

	require.Len(t, order.Bids, 2)
	assert.True(t, order.Bids[0].Price.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, "lower", order.Bids[0].Message)
	assert.Equal(t, testNow.Add(time.Minute), order.Bids[0].SubmittedAt)
}

func TestSubmitBidRejectedAfterAcceptance(t *testing.T) {
	order := newTestOrder(t, KindIndividual)
	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
	require.NoError(t, order.AcceptBid("vendor-1", "supplier-1", testNow))

	err := order.SubmitBid("supplier-2", decimal.NewFromInt(85), "", 60, testNow)
	assert.ErrorIs(t, err, ErrBiddingClosed)
}

func TestSubmitBidGroupDeadline(t *testing.T) {
	order := newTestOrder(t, KindGroup)

	err := order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testDeadline.Add(time.Second))
	assert.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestAcceptBid(t *testing.T) {
	order := newTestOrder(t, KindIndividual)
	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
	require.NoError(t, order.SubmitBid("supplier-2", decimal.NewFromInt(85), "", 90, testNow))

	require.NoError(t, order.AcceptBid("vendor-1", "supplier-2", testNow))

	assert.Equal(t, StatusAccepted, order.Status)
	assert.Equal(t, "supplier-2", order.SupplierID)
	require.True(t, order.FinalPrice.Valid)
	assert.True(t, order.FinalPrice.Decimal.Equal(decimal.NewFromInt(85)))
	// 落选报价保留且未标记接受
	assert.False(t, order.Bids[0].Accepted)
	assert.True(t, order.Bids[1].Accepted)
}

func TestAcceptBidAuthorization(t *testing.T) {
	order := newTestOrder(t, KindIndividual)
	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))

	assert.ErrorIs(t, order.AcceptBid("vendor-2", "supplier-1", testNow), ErrNotAuthorized)
	assert.ErrorIs(t, order.AcceptBid("vendor-1", "supplier-9", testNow), ErrNotFound)
}

func TestJoinGroupRejectsDuplicate(t *testing.T) {
	order := newTestOrder(t, KindGroup)

	require.NoError(t, order.JoinGroup("vendor-a", decimal.NewFromInt(60), testNow))
	err := order.JoinGroup("vendor-a", decimal.NewFromInt(10), testNow)
	assert.ErrorIs(t, err, ErrDuplicateParticipant)
}

func TestJoinGroupParticipantCap(t *testing.T) {
	order := newTestOrder(t, KindGroup)

	require.NoError(t, order.JoinGroup("vendor-a", decimal.NewFromInt(1), testNow))
	require.NoError(t, order.JoinGroup("vendor-b", decimal.NewFromInt(1), testNow))
	require.NoError(t, order.JoinGroup("vendor-c", decimal.NewFromInt(1), testNow))

	err := order.JoinGroup("vendor-d", decimal.NewFromInt(1), testNow)
	assert.ErrorIs(t, err, ErrGroupFull)
}

func TestJoinGroupQuantityMayExceedTarget(t *testing.T) {
	// 认购总量可以超过订单数量：只有人数和截止时间受约束
	order := newTestOrder(t, KindGroup)

	require.NoError(t, order.JoinGroup("vendor-a", decimal.NewFromInt(60), testNow))
	require.NoError(t, order.JoinGroup("vendor-b", decimal.NewFromInt(50), testNow))

	total := decimal.Zero
	for _, p := range order.GroupBuy.Participants {
		total = total.Add(p.Quantity)
	}
	assert.True(t, total.GreaterThan(order.Quantity))
}

func TestAdvanceStatusFollowsTransitionTable(t *testing.T) {
	order := newTestOrder(t, KindIndividual)
	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
	require.NoError(t, order.AcceptBid("vendor-1", "supplier-1", testNow))

	steps := []struct {
		actor  string
		role   Role
		status OrderStatus
	}{
		{"vendor-1", RoleVendor, StatusConfirmed},
		{"supplier-1", RoleSupplier, StatusPreparing},
		{"supplier-1", RoleSupplier, StatusReady},
		{"supplier-1", RoleSupplier, StatusInTransit},
		{"supplier-1", RoleSupplier, StatusDelivered},
		{"vendor-1", RoleVendor, StatusCompleted},
	}
	for _, step := range steps {
		require.NoError(t, order.AdvanceStatus(step.actor, step.role, step.status, "", testNow),
			"step to %s", step.status)
	}
	assert.Equal(t, StatusCompleted, order.Status)
}

func TestAdvanceStatusRejectsInvalidEdge(t *testing.T) {
	order := newTestOrder(t, KindIndividual)
	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
	require.NoError(t, order.AcceptBid("vendor-1", "supplier-1", testNow))

	// 买家不能直接跳到 delivered
	err := order.AdvanceStatus("vendor-1", RoleVendor, StatusDelivered, "", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	// 状态保持不变
	assert.Equal(t, StatusAccepted, order.Status)

	// 供应商不能替买家确认
	err = order.AdvanceStatus("supplier-1", RoleSupplier, StatusConfirmed, "", testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAdvanceStatusOwnershipChecks(t *testing.T) {
	order := newTestOrder(t, KindIndividual)
	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
	require.NoError(t, order.AcceptBid("vendor-1", "supplier-1", testNow))

	assert.ErrorIs(t, order.AdvanceStatus("vendor-2", RoleVendor, StatusConfirmed, "", testNow), ErrNotAuthorized)
	assert.ErrorIs(t, order.AdvanceStatus("supplier-2", RoleSupplier, StatusPreparing, "", testNow), ErrNotAuthorized)
}

func TestVendorCancelPaths(t *testing.T) {
	for _, from := range []OrderStatus{StatusAccepted, StatusConfirmed, StatusPreparing} {
		order := newTestOrder(t, KindIndividual)
		require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
		require.NoError(t, order.AcceptBid("vendor-1", "supplier-1", testNow))
		if from == StatusConfirmed {
			require.NoError(t, order.AdvanceStatus("vendor-1", RoleVendor, StatusConfirmed, "", testNow))
		}
		if from == StatusPreparing {
			require.NoError(t, order.AdvanceStatus("supplier-1", RoleSupplier, StatusPreparing, "", testNow))
		}

		require.NoError(t, order.AdvanceStatus("vendor-1", RoleVendor, StatusCancelled, "changed mind", testNow),
			"cancel from %s", from)
		assert.Equal(t, StatusCancelled, order.Status)
	}
}

func TestExpireOnlyFromOpenStates(t *testing.T) {
	order := newTestOrder(t, KindGroup)
	require.NoError(t, order.Expire(testNow))
	assert.Equal(t, StatusExpired, order.Status)

	settled := newTestOrder(t, KindIndividual)
	require.NoError(t, settled.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
	require.NoError(t, settled.AcceptBid("vendor-1", "supplier-1", testNow))
	assert.ErrorIs(t, settled.Expire(testNow), ErrInvalidTransition)
}

func TestStatusHistoryAppendOnly(t *testing.T) {
	order := newTestOrder(t, KindIndividual)
	require.NoError(t, order.SubmitBid("supplier-1", decimal.NewFromInt(90), "", 60, testNow))
	require.NoError(t, order.AcceptBid("vendor-1", "supplier-1", testNow))
	order.AddNote("vendor-1", "call before delivery", testNow)

	require.Len(t, order.StatusHistory, 4)
	assert.Equal(t, StatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, StatusBidding, order.StatusHistory[1].Status)
	assert.Equal(t, StatusAccepted, order.StatusHistory[2].Status)
	// 备注沿用当前状态，不推进状态机
	assert.Equal(t, StatusAccepted, order.StatusHistory[3].Status)
	assert.Equal(t, "call before delivery", order.StatusHistory[3].Note)
}

func TestSupplierTransitionsForRole(t *testing.T) {
	assert.ElementsMatch(t, []OrderStatus{StatusPreparing}, TransitionsFor(RoleSupplier, StatusAccepted))
	assert.ElementsMatch(t, []OrderStatus{StatusConfirmed, StatusCancelled}, TransitionsFor(RoleVendor, StatusAccepted))
	assert.Empty(t, TransitionsFor(RoleSupplier, StatusDelivered))
}
