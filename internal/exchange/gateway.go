package exchange

import (
	"context"

	"pump_bot/internal/models"
)

// Gateway исполняет решения на бирже. Все вызовы синхронные и могут
// вернуть ошибку; повтор делает следующая свеча.
type Gateway interface {
	// Position: ok=false, если позиции по символу нет.
	Position(ctx context.Context, symbol string) (models.Position, bool, error)
	Positions(ctx context.Context) ([]models.Position, error)
	OpenPositionsCount(ctx context.Context) (int, error)
	OpenOrIncrease(ctx context.Context, symbol, side string, notionalUSD float64) error
	Close(ctx context.Context, symbol string) error
}
