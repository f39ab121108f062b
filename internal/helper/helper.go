package helper

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pump_bot/internal/models"
)

var hundred = decimal.NewFromInt(100)

// NormSymbol: "BTCUSDT" -> "btcusdt", ключ лейнов и монитора.
func NormSymbol(raw string) string { return strings.ToLower(strings.TrimSpace(raw)) }

// ExchangeSymbol: "btcusdt" -> "BTCUSDT" для REST биржи.
func ExchangeSymbol(sym string) string { return strings.ToUpper(strings.TrimSpace(sym)) }

// FloorToDecimals отбрасывает лишние знаки (округление вниз).
func FloorToDecimals(v decimal.Decimal, decimals int32) decimal.Decimal {
	return v.RoundFloor(decimals)
}

// DecimalsOf считает знаки после запятой по шагу фильтра, "0.001" -> 3.
func DecimalsOf(step string) (int32, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(step))
	if err != nil {
		return 0, fmt.Errorf("parse step %q: %w", step, err)
	}
	if exp := d.Exponent(); exp < 0 {
		return -exp, nil
	}
	return 0, nil
}

// ReverseSide: сторона закрывающего ордера.
func ReverseSide(side string) string {
	if strings.EqualFold(side, models.SideSell) {
		return models.SideBuy
	}
	return models.SideSell
}

// LimitPriceByPercent: для Sell цена выше текущей на pct%, для Buy ниже.
// pct может быть отрицательным.
func LimitPriceByPercent(price decimal.Decimal, side string, pct decimal.Decimal) decimal.Decimal {
	if !strings.EqualFold(side, models.SideSell) {
		pct = pct.Neg()
	}
	return price.Mul(hundred.Add(pct)).Div(hundred)
}

// QtyByQuote: количество базовой валюты на сумму quote по цене price,
// округлённое вниз по фильтру инструмента.
func QtyByQuote(quote, price decimal.Decimal, inst models.Instrument) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("price must be > 0, got %s", price)
	}
	qty := FloorToDecimals(quote.Div(price), inst.QtyDecimals)
	if qty.LessThan(inst.MinQty) || !qty.IsPositive() {
		return qty, fmt.Errorf("qty %s below min %s for %s: %w", qty, inst.MinQty, inst.Symbol, ErrQtyTooSmall)
	}
	return qty, nil
}
