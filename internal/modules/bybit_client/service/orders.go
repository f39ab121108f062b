package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"pump_bot/internal/exchange"
	"pump_bot/internal/helper"
)

type orderRequest struct {
	Category       string `json:"category"`
	Symbol         string `json:"symbol"`
	Side           string `json:"side"`
	OrderType      string `json:"orderType"`
	Qty            string `json:"qty"`
	Price          string `json:"price,omitempty"`
	OrderLinkID    string `json:"orderLinkId"`
	ReduceOnly     bool   `json:"reduceOnly,omitempty"`
	CloseOnTrigger bool   `json:"closeOnTrigger,omitempty"`
}

func (c *Client) linkID(sym string) string {
	return fmt.Sprintf("%s_%s_%d", linkPrefix, sym, c.now().UnixNano())
}

// PlaceMarketByBase ставит маркет-ордер с объёмом в базовой валюте.
func (c *Client) PlaceMarketByBase(ctx context.Context, symbol, side string, qty decimal.Decimal) (string, error) {
	inst, err := c.Instrument(ctx, symbol)
	if err != nil {
		return "", err
	}
	res, err := post[orderResult](ctx, c, "/v5/order/create", orderRequest{
		Category:    category,
		Symbol:      inst.Symbol,
		Side:        side,
		OrderType:   "Market",
		Qty:         helper.FloorToDecimals(qty, inst.QtyDecimals).String(),
		OrderLinkID: c.linkID(inst.Symbol),
	})
	if err != nil {
		return "", err
	}
	return res.OrderID, nil
}

// PlaceMarketByQuote ставит маркет-ордер на сумму в USDT по текущему ask.
func (c *Client) PlaceMarketByQuote(ctx context.Context, symbol, side string, quote decimal.Decimal) (string, error) {
	inst, err := c.Instrument(ctx, symbol)
	if err != nil {
		return "", err
	}
	ask, err := c.AskPrice(ctx, symbol)
	if err != nil {
		return "", err
	}
	qty, err := helper.QtyByQuote(quote, ask, inst)
	if err != nil {
		return "", err
	}
	return c.PlaceMarketByBase(ctx, symbol, side, qty)
}

// PlaceLimitByPercent ставит лимитку на pct% от текущего ask.
func (c *Client) PlaceLimitByPercent(ctx context.Context, symbol, side string, qty, pct decimal.Decimal) (string, error) {
	inst, err := c.Instrument(ctx, symbol)
	if err != nil {
		return "", err
	}
	ask, err := c.AskPrice(ctx, symbol)
	if err != nil {
		return "", err
	}
	price := helper.LimitPriceByPercent(ask, side, pct)
	res, err := post[orderResult](ctx, c, "/v5/order/create", orderRequest{
		Category:    category,
		Symbol:      inst.Symbol,
		Side:        side,
		OrderType:   "Limit",
		Qty:         helper.FloorToDecimals(qty, inst.QtyDecimals).String(),
		Price:       helper.FloorToDecimals(price, inst.PriceDecimals).String(),
		OrderLinkID: c.linkID(inst.Symbol),
	})
	if err != nil {
		return "", err
	}
	return res.OrderID, nil
}

// ClosePosition закрывает позицию целиком: обратная сторона, qty=0, reduceOnly.
func (c *Client) ClosePosition(ctx context.Context, symbol string) error {
	pos, ok, err := c.Position(ctx, symbol)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", symbol, exchange.ErrNoPosition)
	}
	sym := helper.ExchangeSymbol(symbol)
	_, err = post[orderResult](ctx, c, "/v5/order/create", orderRequest{
		Category:       category,
		Symbol:         sym,
		Side:           helper.ReverseSide(pos.Side),
		OrderType:      "Market",
		Qty:            "0",
		OrderLinkID:    c.linkID(sym),
		ReduceOnly:     true,
		CloseOnTrigger: true,
	})
	return err
}
