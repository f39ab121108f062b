package models

import "github.com/shopspring/decimal"

// Instrument: фильтры инструмента linear-фьючерса.
type Instrument struct {
	Symbol        string
	PriceDecimals int32
	QtyDecimals   int32
	MinQty        decimal.Decimal
}
