package exchange

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pump_bot/internal/models"
)

func TestPaper_OpenIncreaseClose(t *testing.T) {
	ctx := context.Background()
	p := NewPaper(3)

	require.Error(t, p.OpenOrIncrease(ctx, "solusdt", models.SideBuy, 500))

	p.Mark("solusdt", decimal.NewFromInt(100))
	require.NoError(t, p.OpenOrIncrease(ctx, "solusdt", models.SideBuy, 500))

	pos, ok, err := p.Position(ctx, "solusdt")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "5", pos.Qty.String())
	assert.True(t, pos.Notional().Equal(decimal.NewFromInt(500)))

	p.Mark("solusdt", decimal.NewFromInt(125))
	require.NoError(t, p.OpenOrIncrease(ctx, "solusdt", models.SideBuy, 500))

	pos, _, _ = p.Position(ctx, "solusdt")
	assert.Equal(t, "9", pos.Qty.String())
	notional, _ := pos.Notional().Float64()
	assert.InDelta(t, 1000, notional, 1e-6)
	pnl, _ := pos.UnrealizedPnl.Float64()
	assert.InDelta(t, 125, pnl, 1e-6)

	n, err := p.OpenPositionsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, p.Close(ctx, "solusdt"))
	_, ok, _ = p.Position(ctx, "solusdt")
	assert.False(t, ok)
	assert.ErrorIs(t, p.Close(ctx, "solusdt"), ErrNoPosition)
}

func TestPaper_PositionsSorted(t *testing.T) {
	ctx := context.Background()
	p := NewPaper(2)
	for _, s := range []string{"xrpusdt", "btcusdt"} {
		p.Mark(s, decimal.NewFromInt(10))
		require.NoError(t, p.OpenOrIncrease(ctx, s, models.SideBuy, 100))
	}

	list, err := p.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "btcusdt", list[0].Symbol)
}
