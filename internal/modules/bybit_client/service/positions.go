package service

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"pump_bot/internal/helper"
	"pump_bot/internal/models"
)

func (c *Client) Position(ctx context.Context, symbol string) (models.Position, bool, error) {
	res, err := get[positionsResult](ctx, c, "/v5/position/list", url.Values{
		"category": {category},
		"symbol":   {helper.ExchangeSymbol(symbol)},
	}, true)
	if err != nil {
		return models.Position{}, false, err
	}
	for _, row := range res.List {
		if pos, ok := toPosition(row); ok {
			return pos, true, nil
		}
	}
	return models.Position{}, false, nil
}

func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	res, err := get[positionsResult](ctx, c, "/v5/position/list", url.Values{
		"category":   {category},
		"settleCoin": {settleCoin},
	}, true)
	if err != nil {
		return nil, err
	}
	out := make([]models.Position, 0, len(res.List))
	for _, row := range res.List {
		if pos, ok := toPosition(row); ok {
			out = append(out, pos)
		}
	}
	return out, nil
}

func (c *Client) OpenPositionsCount(ctx context.Context) (int, error) {
	list, err := c.Positions(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

// toPosition: нулевой size у Bybit означает "позиции нет".
func toPosition(row positionRow) (models.Position, bool) {
	qty, err := decimal.NewFromString(row.Size)
	if err != nil || !qty.IsPositive() {
		return models.Position{}, false
	}
	avg, _ := decimal.NewFromString(row.AvgPrice)
	pnl, _ := decimal.NewFromString(row.UnrealisedPnl)
	return models.Position{
		Symbol:        helper.NormSymbol(row.Symbol),
		Side:          row.Side,
		Qty:           qty,
		AvgPrice:      avg,
		UnrealizedPnl: pnl,
	}, true
}
