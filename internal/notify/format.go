package notify

import (
	"fmt"
	"strings"

	"pump_bot/internal/models"
)

// TradeMessage собирает текст для действия. Для закрытия берём снимок до
// ордера (после закрытия позиции уже нет), для открытия снимок после.
func TradeMessage(a models.Action, before, after *models.Position) Message {
	var text string
	switch a.Kind {
	case models.ActionClose:
		text = FormatClose(a.Symbol, before)
	default:
		text = FormatOpen(a.Symbol, after, a.State, a.NotionalUSD)
	}
	return Message{Kind: KindTrade, Symbol: a.Symbol, Text: text}
}

func ErrorMessage(a models.Action, err error) Message {
	return Message{
		Kind:   KindError,
		Symbol: a.Symbol,
		Text: fmt.Sprintf("❗️ ОШИБКА ИСПОЛНЕНИЯ | %s\n\n• Действие: %s\n• Состояние: %s\n• Ошибка: %v",
			strings.ToUpper(a.Symbol), a.Kind, a.State, err),
	}
}

func FormatClose(symbol string, pos *models.Position) string {
	sym := strings.ToUpper(symbol)
	if pos == nil {
		return "🔄 Закрываем позицию: " + sym
	}

	result := "🔴 УБЫТОК"
	if pos.UnrealizedPnl.IsPositive() {
		result = "🟢 ПРИБЫЛЬ"
	}
	return fmt.Sprintf("🔄 ЗАКРЫТИЕ ПОЗИЦИИ | %s\n\n"+
		"📊 Детали:\n"+
		"• Сторона: %s\n"+
		"• Количество: %s\n"+
		"• Средняя цена: %s\n"+
		"• Сумма позиции: $%s\n\n"+
		"%s: $%s",
		sym, pos.Side, pos.Qty, pos.AvgPrice, pos.Notional().StringFixed(2),
		result, pos.UnrealizedPnl.StringFixed(2))
}

func FormatOpen(symbol string, pos *models.Position, state models.PumpState, approxUSD float64) string {
	sym := strings.ToUpper(symbol)
	if pos == nil {
		return fmt.Sprintf("%s Открываем позицию (%s): %s, Сумма: ~%.2f$", stateEmoji(state), state, symbol, approxUSD)
	}

	var title, subtitle, priceLabel, sumLabel string
	switch state {
	case models.StateStarted:
		title, subtitle, priceLabel, sumLabel = "НАЧАЛО ПАМПА", "Открыта позиция", "Цена входа", "Сумма"
	case models.StateConfirmed:
		title, subtitle, priceLabel, sumLabel = "ПАМП ПОДТВЕРЖДЕН", "Увеличена позиция", "Средняя цена", "Общая сумма"
	default:
		title, subtitle, priceLabel, sumLabel = "ПАМП СТАБИЛИЗИРОВАЛСЯ", "Максимальная позиция", "Средняя цена", "Общая сумма"
	}
	return fmt.Sprintf("%s %s | %s\n\n"+
		"📊 %s:\n"+
		"• Количество: %s\n"+
		"• %s: %s\n"+
		"• %s: $%s",
		stateEmoji(state), title, sym,
		subtitle,
		pos.Qty,
		priceLabel, pos.AvgPrice,
		sumLabel, pos.Notional().StringFixed(2))
}

func FormatPositions(list []models.Position) string {
	if len(list) == 0 {
		return "📭 Открытых позиций нет"
	}
	var b strings.Builder
	b.WriteString("📊 Открытые позиции:\n")
	for _, p := range list {
		fmt.Fprintf(&b, "- %s [%s] qty=%s @ %s = $%s pnl=%s\n",
			strings.ToUpper(p.Symbol), p.Side, p.Qty, p.AvgPrice,
			p.Notional().StringFixed(2), p.UnrealizedPnl.StringFixed(2))
	}
	return b.String()
}

func stateEmoji(state models.PumpState) string {
	switch state {
	case models.StateStarted:
		return "🟡"
	case models.StateConfirmed:
		return "🟢"
	default:
		return "🔵"
	}
}
