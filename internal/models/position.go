package models

import "github.com/shopspring/decimal"

const (
	SideBuy  = "Buy"
	SideSell = "Sell"
)

// Position: снимок позиции с биржи. Истина на каждый тик, своего учёта не ведём.
type Position struct {
	Symbol        string
	Side          string // Buy/Sell
	Qty           decimal.Decimal
	AvgPrice      decimal.Decimal
	UnrealizedPnl decimal.Decimal
}

// Notional = avgPrice × qty, в USDT.
func (p Position) Notional() decimal.Decimal { return p.AvgPrice.Mul(p.Qty) }

func (p Position) IsOpen() bool { return p.Qty.IsPositive() }
