package decision

import (
	"math"

	"pump_bot/internal/models"
)

// hysteresis: добор только пока позиция меньше 90% цели уровня.
const hysteresis = 0.9

type SettingsProvider interface {
	Get() models.TradingSettings
}

// Engine превращает состояние пампа в действие по позиции.
type Engine struct {
	settings SettingsProvider
}

func NewEngine(settings SettingsProvider) *Engine {
	return &Engine{settings: settings}
}

func (e *Engine) Decide(symbol string, state models.PumpState, currentNotional float64, openPositions int) models.Action {
	return Decide(e.settings.Get(), symbol, state, currentNotional, openPositions)
}

// Decide: чистая функция политики, первое совпадение побеждает.
// currentNotional = 0, если позиции нет.
func Decide(s models.TradingSettings, symbol string, state models.PumpState, currentNotional float64, openPositions int) models.Action {
	none := models.Action{Kind: models.ActionNone, Symbol: symbol, State: state}

	if isExit(state) && currentNotional > 0 {
		return models.Action{Kind: models.ActionClose, Symbol: symbol, State: state}
	}

	// в уже открытую позицию доливаем даже при исчерпанном лимите позиций
	if openPositions >= s.MaxPositions && currentNotional <= 0 {
		return none
	}

	target, step, ok := tier(s.BasePosition, state)
	if !ok || !finite(target) || !finite(step) || step <= 0 {
		return none
	}
	if currentNotional >= hysteresis*target {
		return none
	}
	return models.Action{
		Kind:        models.ActionOpenOrIncrease,
		Symbol:      symbol,
		State:       state,
		NotionalUSD: step,
	}
}

func isExit(state models.PumpState) bool {
	switch state {
	case models.StateCoolingOff, models.StateDumped, models.StateRetested:
		return true
	}
	return false
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// tier: целевой объём уровня и размер добора.
func tier(base float64, state models.PumpState) (target, step float64, ok bool) {
	switch state {
	case models.StateStarted:
		return base / 2, base / 2, true
	case models.StateConfirmed:
		return base, base / 2, true
	case models.StateStabilized:
		return base, base, true
	}
	return 0, 0, false
}
