package exchange

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"pump_bot/internal/helper"
	"pump_bot/internal/models"
)

// Paper: бумажный шлюз для replay и тестов. Исполняет по последней
// цене закрытия, которую передаёт раннер через Mark.
type Paper struct {
	qtyDecimals int32

	mu        sync.Mutex
	marks     map[string]decimal.Decimal
	positions map[string]models.Position
}

func NewPaper(qtyDecimals int32) *Paper {
	return &Paper{
		qtyDecimals: qtyDecimals,
		marks:       make(map[string]decimal.Decimal),
		positions:   make(map[string]models.Position),
	}
}

func (p *Paper) Mark(symbol string, price decimal.Decimal) {
	p.mu.Lock()
	p.marks[symbol] = price
	p.mu.Unlock()
}

func (p *Paper) Position(_ context.Context, symbol string) (models.Position, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[symbol]
	if !ok {
		return models.Position{}, false, nil
	}
	return p.withPnl(pos), true, nil
}

func (p *Paper) Positions(_ context.Context) ([]models.Position, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]models.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, p.withPnl(pos))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (p *Paper) OpenPositionsCount(_ context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.positions), nil
}

func (p *Paper) OpenOrIncrease(_ context.Context, symbol, side string, notionalUSD float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.marks[symbol]
	if !ok || !price.IsPositive() {
		return fmt.Errorf("paper: no price for %s", symbol)
	}
	qty := helper.FloorToDecimals(decimal.NewFromFloat(notionalUSD).Div(price), p.qtyDecimals)
	if !qty.IsPositive() {
		return fmt.Errorf("paper: %s qty %s: %w", symbol, qty, helper.ErrQtyTooSmall)
	}

	pos, exists := p.positions[symbol]
	if !exists {
		p.positions[symbol] = models.Position{Symbol: symbol, Side: side, Qty: qty, AvgPrice: price}
		return nil
	}
	total := pos.Qty.Add(qty)
	pos.AvgPrice = pos.Notional().Add(qty.Mul(price)).Div(total)
	pos.Qty = total
	p.positions[symbol] = pos
	return nil
}

func (p *Paper) Close(_ context.Context, symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.positions[symbol]; !ok {
		return fmt.Errorf("paper: %s: %w", symbol, ErrNoPosition)
	}
	delete(p.positions, symbol)
	return nil
}

func (p *Paper) withPnl(pos models.Position) models.Position {
	if mark, ok := p.marks[pos.Symbol]; ok {
		diff := mark.Sub(pos.AvgPrice)
		if pos.Side == models.SideSell {
			diff = diff.Neg()
		}
		pos.UnrealizedPnl = diff.Mul(pos.Qty)
	}
	return pos
}
