package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"pump_bot/internal/helper"
	"pump_bot/internal/models"
)

// Instrument возвращает фильтры инструмента, кэшируя их на время жизни клиента.
func (c *Client) Instrument(ctx context.Context, symbol string) (models.Instrument, error) {
	sym := helper.ExchangeSymbol(symbol)

	c.mu.RLock()
	inst, ok := c.instruments[sym]
	c.mu.RUnlock()
	if ok {
		return inst, nil
	}

	res, err := get[instrumentsResult](ctx, c, "/v5/market/instruments-info", url.Values{
		"category": {category},
		"symbol":   {sym},
	}, false)
	if err != nil {
		return models.Instrument{}, err
	}
	if len(res.List) == 0 {
		return models.Instrument{}, fmt.Errorf("instrument %s not found", sym)
	}
	row := res.List[0]

	minQty, err := decimal.NewFromString(row.LotSizeFilter.MinOrderQty)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("minOrderQty %q: %w", row.LotSizeFilter.MinOrderQty, err)
	}
	qtyDecimals, err := helper.DecimalsOf(row.LotSizeFilter.MinOrderQty)
	if err != nil {
		return models.Instrument{}, err
	}
	priceDecimals := int64(4)
	if row.PriceScale != "" {
		if v, err := strconv.ParseInt(row.PriceScale, 10, 32); err == nil {
			priceDecimals = v
		}
	}

	inst = models.Instrument{
		Symbol:        sym,
		PriceDecimals: int32(priceDecimals),
		QtyDecimals:   qtyDecimals,
		MinQty:        minQty,
	}

	c.mu.Lock()
	c.instruments[sym] = inst
	c.mu.Unlock()
	return inst, nil
}

// AskPrice: по лучшей цене продажи считаем объём маркет-ордера.
func (c *Client) AskPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym := helper.ExchangeSymbol(symbol)
	res, err := get[tickersResult](ctx, c, "/v5/market/tickers", url.Values{
		"category": {category},
		"symbol":   {sym},
	}, false)
	if err != nil {
		return decimal.Zero, err
	}
	if len(res.List) == 0 {
		return decimal.Zero, fmt.Errorf("ticker %s not found", sym)
	}
	px, err := decimal.NewFromString(res.List[0].Ask1Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ask1Price %q: %w", res.List[0].Ask1Price, err)
	}
	return px, nil
}
