package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	auctionNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	auctionEnd = auctionNow.Add(2 * time.Hour)
)

func newTestAuction(t *testing.T, starting int64, reserve decimal.NullDecimal) *Auction {
	t.Helper()
	a, err := NewAuction("AUC-1", "supplier-1", "cabbage", decimal.NewFromInt(20),
		decimal.NewFromInt(starting), reserve, "kg", auctionEnd, auctionNow)
	require.NoError(t, err)
	return a
}

func TestNewAuctionValidation(t *testing.T) {
	_, err := NewAuction("AUC-1", "supplier-1", "cabbage", decimal.NewFromInt(20),
		decimal.NewFromInt(30), decimal.NullDecimal{}, "kg", auctionNow.Add(-time.Hour), auctionNow)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewAuction("AUC-1", "supplier-1", "", decimal.NewFromInt(20),
		decimal.NewFromInt(30), decimal.NullDecimal{}, "kg", auctionEnd, auctionNow)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlaceBidRaisesCurrentPrice(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NullDecimal{})

	require.NoError(t, a.PlaceBid("vendor-1", decimal.NewFromInt(31), auctionNow))
	require.NoError(t, a.PlaceBid("vendor-2", decimal.NewFromInt(35), auctionNow))

	assert.True(t, a.CurrentPrice.Equal(decimal.NewFromInt(35)))
	require.Len(t, a.Bids, 2)
}

func TestPlaceBidSingleWinningInvariant(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NullDecimal{})

	amounts := []int64{31, 33, 40, 45}
	for i, amount := range amounts {
		vendor := []string{"vendor-1", "vendor-2", "vendor-1", "vendor-3"}[i]
		require.NoError(t, a.PlaceBid(vendor, decimal.NewFromInt(amount), auctionNow))

		winning := 0
		for _, bid := range a.Bids {
			if bid.IsWinning {
				winning++
				// 当前价始终等于胜出出价金额
				assert.True(t, bid.Amount.Equal(a.CurrentPrice))
			}
		}
		assert.Equal(t, 1, winning)
	}
}

func TestFirstBidMayUndercutStartingPrice(t *testing.T) {
	// 起拍 30、保留价 25：首笔出价 28 低于起拍价也被接受，
	// 截止时 28 达到保留价即成交
	a := newTestAuction(t, 30, decimal.NewNullDecimal(decimal.NewFromInt(25)))

	require.NoError(t, a.PlaceBid("vendor-1", decimal.NewFromInt(28), auctionNow))
	assert.True(t, a.CurrentPrice.Equal(decimal.NewFromInt(28)))

	require.NoError(t, a.Close(auctionEnd))
	assert.Equal(t, StatusCompleted, a.Status)
	assert.Equal(t, "vendor-1", a.WinnerID)
	require.True(t, a.WinningPrice.Valid)
	assert.True(t, a.WinningPrice.Decimal.Equal(decimal.NewFromInt(28)))
}

func TestPlaceBidTooLow(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NullDecimal{})
	require.NoError(t, a.PlaceBid("vendor-1", decimal.NewFromInt(25), auctionNow))

	// 后续出价必须高于当前胜出价
	assert.ErrorIs(t, a.PlaceBid("vendor-2", decimal.NewFromInt(25), auctionNow), ErrBidTooLow)
	assert.ErrorIs(t, a.PlaceBid("vendor-2", decimal.NewFromInt(20), auctionNow), ErrBidTooLow)
	assert.Len(t, a.Bids, 1)

	assert.ErrorIs(t, a.PlaceBid("vendor-2", decimal.Zero, auctionNow), ErrValidation)
}

func TestPlaceBidAfterEnd(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NullDecimal{})

	err := a.PlaceBid("vendor-1", decimal.NewFromInt(40), auctionEnd.Add(time.Second))
	assert.ErrorIs(t, err, ErrAuctionEnded)
}

func TestCloseCompletesWhenReserveMet(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NewNullDecimal(decimal.NewFromInt(25)))
	require.NoError(t, a.PlaceBid("vendor-1", decimal.NewFromInt(35), auctionNow))

	require.NoError(t, a.Close(auctionEnd))

	assert.Equal(t, StatusCompleted, a.Status)
	assert.Equal(t, "vendor-1", a.WinnerID)
	require.True(t, a.WinningPrice.Valid)
	assert.True(t, a.WinningPrice.Decimal.Equal(decimal.NewFromInt(35)))
	require.NotNil(t, a.ConfirmedAt)
}

func TestCloseWithoutBidsStaysClosed(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NullDecimal{})

	require.NoError(t, a.Close(auctionEnd))

	assert.Equal(t, StatusClosed, a.Status)
	assert.Empty(t, a.WinnerID)
	assert.False(t, a.HasWinner())
}

func TestCloseBelowReserveNoWinner(t *testing.T) {
	// 起拍 18、保留价 25，最高出价 20 未达保留价，流拍
	a, err := NewAuction("AUC-2", "supplier-1", "cabbage", decimal.NewFromInt(20),
		decimal.NewFromInt(18), decimal.NewNullDecimal(decimal.NewFromInt(25)), "kg", auctionEnd, auctionNow)
	require.NoError(t, err)
	require.NoError(t, a.PlaceBid("vendor-1", decimal.NewFromInt(20), auctionNow))

	require.NoError(t, a.Close(auctionEnd))

	assert.Equal(t, StatusClosed, a.Status)
	assert.False(t, a.HasWinner())
	assert.False(t, a.WinningPrice.Valid)
}

func TestCloseIdempotent(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NewNullDecimal(decimal.NewFromInt(25)))
	require.NoError(t, a.PlaceBid("vendor-1", decimal.NewFromInt(28), auctionNow))

	require.NoError(t, a.Close(auctionEnd))
	winner, price := a.WinnerID, a.WinningPrice

	require.NoError(t, a.Close(auctionEnd.Add(time.Hour)))
	assert.Equal(t, winner, a.WinnerID)
	assert.Equal(t, price, a.WinningPrice)
	assert.Equal(t, StatusCompleted, a.Status)
}

func TestCancelOnlyBySupplier(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NullDecimal{})

	assert.ErrorIs(t, a.Cancel("supplier-2"), ErrNotAuthorized)
	require.NoError(t, a.Cancel("supplier-1"))
	assert.Equal(t, StatusCancelled, a.Status)

	assert.ErrorIs(t, a.Cancel("supplier-1"), ErrInvalidState)
	assert.ErrorIs(t, a.Close(auctionEnd), ErrAuctionEnded)
}

func TestCancelClosedAuctionWithoutWinner(t *testing.T) {
	// 流拍后的竞拍仍可由发起方取消收尾
	a := newTestAuction(t, 30, decimal.NullDecimal{})
	require.NoError(t, a.Close(auctionEnd))
	require.Equal(t, StatusClosed, a.Status)

	require.NoError(t, a.Cancel("supplier-1"))
	assert.Equal(t, StatusCancelled, a.Status)
}

func TestCancelCompletedAuctionRejected(t *testing.T) {
	a := newTestAuction(t, 30, decimal.NullDecimal{})
	require.NoError(t, a.PlaceBid("vendor-1", decimal.NewFromInt(35), auctionNow))
	require.NoError(t, a.Close(auctionEnd))
	require.Equal(t, StatusCompleted, a.Status)

	assert.ErrorIs(t, a.Cancel("supplier-1"), ErrInvalidState)
}
