package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle описывает закрытую минутную свечу.
type Candle struct {
	Symbol      string // lowercase, например "btcusdt"
	Open        decimal.Decimal
	Close       decimal.Decimal
	OpenTimeMs  int64
	CloseTimeMs int64
	Volume      decimal.Decimal
	IsClosed    bool
}

func (c Candle) CloseTime() time.Time { return time.UnixMilli(c.CloseTimeMs) }

func (c Candle) IsGreen() bool { return c.Close.GreaterThan(c.Open) }
