package notify

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pump_bot/internal/models"
)

func pos(qty, avg, pnl string) *models.Position {
	return &models.Position{
		Symbol:        "solusdt",
		Side:          models.SideBuy,
		Qty:           decimal.RequireFromString(qty),
		AvgPrice:      decimal.RequireFromString(avg),
		UnrealizedPnl: decimal.RequireFromString(pnl),
	}
}

func TestFormatOpen(t *testing.T) {
	text := FormatOpen("solusdt", pos("3.3", "150", "0"), models.StateStarted, 500)
	assert.Contains(t, text, "🟡 НАЧАЛО ПАМПА | SOLUSDT")
	assert.Contains(t, text, "• Количество: 3.3")
	assert.Contains(t, text, "• Цена входа: 150")
	assert.Contains(t, text, "• Сумма: $495.00")

	text = FormatOpen("solusdt", pos("6.6", "151", "0"), models.StateConfirmed, 500)
	assert.Contains(t, text, "🟢 ПАМП ПОДТВЕРЖДЕН")
	assert.Contains(t, text, "Общая сумма: $996.60")

	text = FormatOpen("solusdt", pos("1", "1", "0"), models.StateStabilized, 1000)
	assert.Contains(t, text, "🔵 ПАМП СТАБИЛИЗИРОВАЛСЯ")
}

func TestFormatOpen_NoSnapshot(t *testing.T) {
	text := FormatOpen("solusdt", nil, models.StateConfirmed, 500)
	assert.Equal(t, "🟢 Открываем позицию (CONFIRMED): solusdt, Сумма: ~500.00$", text)
}

func TestFormatClose(t *testing.T) {
	text := FormatClose("solusdt", pos("3.3", "150", "12.5"))
	assert.Contains(t, text, "🔄 ЗАКРЫТИЕ ПОЗИЦИИ | SOLUSDT")
	assert.Contains(t, text, "• Сумма позиции: $495.00")
	assert.Contains(t, text, "🟢 ПРИБЫЛЬ: $12.50")

	text = FormatClose("solusdt", pos("3.3", "150", "-4"))
	assert.Contains(t, text, "🔴 УБЫТОК: $-4.00")

	assert.Equal(t, "🔄 Закрываем позицию: SOLUSDT", FormatClose("solusdt", nil))
}

func TestTradeMessage_PicksSnapshot(t *testing.T) {
	before := pos("3.3", "150", "1")
	after := pos("6.6", "150", "0")

	closeMsg := TradeMessage(models.Action{Kind: models.ActionClose, Symbol: "solusdt", State: models.StateDumped}, before, nil)
	assert.Equal(t, KindTrade, closeMsg.Kind)
	assert.Contains(t, closeMsg.Text, "$495.00")

	openMsg := TradeMessage(models.Action{Kind: models.ActionOpenOrIncrease, Symbol: "solusdt", State: models.StateConfirmed, NotionalUSD: 500}, before, after)
	assert.Contains(t, openMsg.Text, "$990.00")
}

func TestErrorMessage(t *testing.T) {
	m := ErrorMessage(models.Action{Kind: models.ActionClose, Symbol: "ethusdt", State: models.StateRetested}, errors.New("boom"))
	assert.Equal(t, KindError, m.Kind)
	assert.Contains(t, m.Text, "ETHUSDT")
	assert.Contains(t, m.Text, "boom")
}

func TestFormatPositions(t *testing.T) {
	assert.Equal(t, "📭 Открытых позиций нет", FormatPositions(nil))
	text := FormatPositions([]models.Position{*pos("1", "100", "2")})
	assert.Contains(t, text, "SOLUSDT [Buy] qty=1 @ 100 = $100.00 pnl=2.00")
}
