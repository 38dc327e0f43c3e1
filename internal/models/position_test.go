package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "outcome-trader/internal/errors"
)

func openTestPosition(t *testing.T, side Side) *Position {
	t.Helper()
	params := validOrderParams()
	params.Side = side
	order, err := NewOrder(params)
	require.NoError(t, err)
	at := time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC)
	require.NoError(t, order.MarkFilled(MustPrice(0.30), at))
	return NewPosition(order, MustPrice(0.30), at)
}

func TestPositionPnL(t *testing.T) {
	t.Run("long gains when price rises", func(t *testing.T) {
		pos := openTestPosition(t, SideBuy)
		pos.UpdatePrice(MustPrice(0.40))
		assert.True(t, pos.UnrealizedPnL.Equal(decimal.RequireFromString("10")),
			"got %s", pos.UnrealizedPnL)
	})

	t.Run("short gains when price falls", func(t *testing.T) {
		pos := openTestPosition(t, SideSell)
		pos.UpdatePrice(MustPrice(0.20))
		assert.True(t, pos.UnrealizedPnL.Equal(decimal.RequireFromString("10")),
			"got %s", pos.UnrealizedPnL)
	})

	t.Run("update is a no-op after close", func(t *testing.T) {
		pos := openTestPosition(t, SideBuy)
		_, err := pos.Close(MustPrice(0.40), "target", time.Now().UTC())
		require.NoError(t, err)

		pos.UpdatePrice(MustPrice(0.10))
		assert.True(t, pos.CurrentPrice.Equal(MustPrice(0.40)))
		assert.True(t, pos.UnrealizedPnL.IsZero())
	})
}

func TestPositionCloseOnce(t *testing.T) {
	pos := openTestPosition(t, SideBuy)
	at := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)

	pnl, err := pos.Close(MustPrice(0.45), "target", at)
	require.NoError(t, err)
	assert.True(t, pnl.Equal(decimal.RequireFromString("15")), "got %s", pnl)
	assert.True(t, pos.Closed())
	assert.Equal(t, "target", pos.ExitReason)

	// Second close must fail and leave everything untouched.
	_, err = pos.Close(MustPrice(0.10), "again", at.Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrPositionAlreadyClosed)
	assert.True(t, pos.ExitPrice.Equal(MustPrice(0.45)))
	assert.True(t, pos.ClosedAt.Equal(at))
	assert.True(t, pos.RealizedPnL.Equal(decimal.RequireFromString("15")))
}

func TestPositionCostBasisAndValue(t *testing.T) {
	long := openTestPosition(t, SideBuy)
	assert.True(t, long.CostBasis().Equal(decimal.RequireFromString("30")))

	short := openTestPosition(t, SideSell)
	assert.True(t, short.CostBasis().Equal(decimal.RequireFromString("70")))

	long.UpdatePrice(MustPrice(0.35))
	assert.True(t, long.Value().Equal(decimal.RequireFromString("35")), "got %s", long.Value())
}

func TestPositionHoldTime(t *testing.T) {
	pos := openTestPosition(t, SideBuy)
	now := pos.OpenedAt.Add(45 * time.Minute)
	assert.Equal(t, 45*time.Minute, pos.HoldTime(now))

	_, err := pos.Close(MustPrice(0.40), "target", pos.OpenedAt.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, pos.HoldTime(now))
}
