package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Params: пороги автомата. Проценты в факторах сравниваются с pctStartToMax.
type Params struct {
	StartedThreshold decimal.Decimal // рост свечи (close-open)/open для старта, 0.01 = 1%
	StartGraceTicks  int             // свечей на подтверждение после старта
	ConfirmThreshold int             // зелёных подряд для CONFIRMED
	BaseTicks        int             // таймаут остальных фаз
	CoolingOffFactor decimal.Decimal
	StabilizedFactor decimal.Decimal
	DumpedFactor     decimal.Decimal
}

func DefaultParams() Params {
	return Params{
		StartedThreshold: decimal.RequireFromString("0.01"),
		StartGraceTicks:  2,
		ConfirmThreshold: 3,
		BaseTicks:        120,
		CoolingOffFactor: decimal.RequireFromString("0.1"),
		StabilizedFactor: decimal.RequireFromString("0.25"),
		DumpedFactor:     decimal.RequireFromString("0.55"),
	}
}

func (p Params) Validate() error {
	if !p.StartedThreshold.IsPositive() {
		return fmt.Errorf("pump started threshold must be > 0, got %s", p.StartedThreshold)
	}
	if p.StartGraceTicks <= 0 || p.ConfirmThreshold <= 0 || p.BaseTicks <= 0 {
		return fmt.Errorf("ticks must be > 0: grace=%d confirm=%d base=%d",
			p.StartGraceTicks, p.ConfirmThreshold, p.BaseTicks)
	}
	for name, f := range map[string]decimal.Decimal{
		"cooling_off": p.CoolingOffFactor,
		"stabilized":  p.StabilizedFactor,
		"dumped":      p.DumpedFactor,
	} {
		if !f.IsPositive() {
			return fmt.Errorf("%s factor must be > 0, got %s", name, f)
		}
	}
	return nil
}
