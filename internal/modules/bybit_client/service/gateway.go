package service

import (
	"context"

	"github.com/shopspring/decimal"

	"pump_bot/internal/exchange"
)

var _ exchange.Gateway = (*Client)(nil)

func (c *Client) OpenOrIncrease(ctx context.Context, symbol, side string, notionalUSD float64) error {
	_, err := c.PlaceMarketByQuote(ctx, symbol, side, decimal.NewFromFloat(notionalUSD))
	return err
}

func (c *Client) Close(ctx context.Context, symbol string) error {
	return c.ClosePosition(ctx, symbol)
}
