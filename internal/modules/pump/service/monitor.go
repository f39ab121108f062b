package service

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"pump_bot/internal/models"
)

// ErrDegeneratePrice: свеча с нулевой/отрицательной ценой, состояние не трогаем.
var ErrDegeneratePrice = errors.New("degenerate price")

var hundred = decimal.NewFromInt(100)

type Result struct {
	State models.PumpState
	// Flushed != nil, если эпизод закончился на этой свече.
	Flushed *models.Episode
}

// Monitor ведёт автомат пампа одного символа. Не потокобезопасен:
// владеет им ровно одна горутина (лейн символа).
type Monitor struct {
	symbol string
	p      Params

	state       models.PumpState
	startPrice  decimal.NullDecimal
	maxPrice    decimal.NullDecimal
	greenStreak int
	remaining   int
	episodeID   string

	pctStartToMax decimal.Decimal
	pctCurrToMax  decimal.Decimal

	history []models.Snapshot
}

func NewMonitor(symbol string, p Params) *Monitor {
	return &Monitor{
		symbol: symbol,
		p:      p,
		state:  models.StateBase,
	}
}

func (m *Monitor) Symbol() string                  { return m.symbol }
func (m *Monitor) State() models.PumpState         { return m.state }
func (m *Monitor) StartPrice() decimal.NullDecimal { return m.startPrice }
func (m *Monitor) MaxPrice() decimal.NullDecimal   { return m.maxPrice }
func (m *Monitor) GreenStreak() int                { return m.greenStreak }
func (m *Monitor) Remaining() int                  { return m.remaining }
func (m *Monitor) EpisodeID() string               { return m.episodeID }

// History отдаёт копию накопленных снимков активного эпизода.
func (m *Monitor) History() []models.Snapshot {
	out := make([]models.Snapshot, len(m.history))
	copy(out, m.history)
	return out
}

// Process прогоняет закрытую свечу через автомат.
// Свечи должны приходить по возрастанию closeTime, порядок проверяет вызывающий.
func (m *Monitor) Process(c models.Candle) (Result, error) {
	if !c.Open.IsPositive() || !c.Close.IsPositive() {
		return Result{State: m.state}, fmt.Errorf("%s o=%s c=%s: %w", m.symbol, c.Open, c.Close, ErrDegeneratePrice)
	}

	if m.state == models.StateBase {
		growth := c.Close.Sub(c.Open).Div(c.Open)
		if !growth.GreaterThan(m.p.StartedThreshold) {
			return Result{State: m.state}, nil
		}
		m.start(c)
		// стартовая свеча идёт дальше как первая зелёная
	}

	if !m.startPrice.Decimal.IsPositive() || !m.maxPrice.Decimal.IsPositive() {
		return Result{State: m.state}, fmt.Errorf("%s start=%s max=%s: %w",
			m.symbol, m.startPrice.Decimal, m.maxPrice.Decimal, ErrDegeneratePrice)
	}

	if c.Close.GreaterThan(m.maxPrice.Decimal) {
		m.maxPrice = decimal.NewNullDecimal(c.Close)
	}
	start, peak := m.startPrice.Decimal, m.maxPrice.Decimal
	m.pctStartToMax = peak.Sub(start).Div(start).Mul(hundred)
	m.pctCurrToMax = c.Close.Sub(peak).Div(peak).Mul(hundred)
	drawdown := m.pctCurrToMax.Abs()

	finished := false
	switch m.state {
	case models.StateStarted:
		if !c.IsGreen() {
			// одна красная до подтверждения: памп отменён
			return Result{State: models.StateBase, Flushed: m.reset()}, nil
		}
		m.greenStreak++
		if m.greenStreak >= m.p.ConfirmThreshold {
			m.moveTo(models.StateConfirmed)
		}

	case models.StateConfirmed:
		if m.pctStartToMax.Mul(m.p.CoolingOffFactor).LessThanOrEqual(drawdown) {
			m.moveTo(models.StateCoolingOff)
		}

	case models.StateCoolingOff:
		if m.pctStartToMax.Mul(m.p.StabilizedFactor).LessThanOrEqual(drawdown) {
			m.moveTo(models.StateStabilized)
		}

	case models.StateStabilized:
		if c.Close.GreaterThanOrEqual(peak) {
			m.moveTo(models.StateRetested)
		} else if m.pctStartToMax.Mul(m.p.DumpedFactor).LessThanOrEqual(drawdown) {
			m.moveTo(models.StateDumped)
		}

	case models.StateDumped:
		m.state = models.StateBase
		finished = true

	case models.StateRetested:
		// держимся до истечения таймаута
	}

	if m.remaining == 0 {
		return Result{State: models.StateBase, Flushed: m.reset()}, nil
	}
	m.remaining--
	m.record(c)

	if finished {
		return Result{State: models.StateBase, Flushed: m.reset()}, nil
	}
	return Result{State: m.state}, nil
}

func (m *Monitor) start(c models.Candle) {
	m.state = models.StateStarted
	m.startPrice = decimal.NewNullDecimal(c.Open)
	m.maxPrice = decimal.NewNullDecimal(c.Close)
	m.greenStreak = 0
	m.remaining = m.p.StartGraceTicks
	m.episodeID = fmt.Sprintf("%s_%d", m.symbol, c.OpenTimeMs)
	m.history = nil
}

func (m *Monitor) moveTo(s models.PumpState) {
	m.state = s
	m.remaining = m.p.BaseTicks
}

func (m *Monitor) record(c models.Candle) {
	m.history = append(m.history, models.Snapshot{
		EpisodeID:      m.episodeID,
		Symbol:         m.symbol,
		Open:           c.Open,
		Close:          c.Close,
		CloseTimeMs:    c.CloseTimeMs,
		StartPrice:     m.startPrice.Decimal,
		MaxPrice:       m.maxPrice.Decimal,
		PctStartToMax:  m.pctStartToMax,
		PctCurrToMax:   m.pctCurrToMax,
		RemainingTicks: m.remaining,
		State:          m.state,
	})
}

// reset возвращает автомат в BASE и отдаёт накопленную историю.
func (m *Monitor) reset() *models.Episode {
	var ep *models.Episode
	if len(m.history) > 0 {
		ep = &models.Episode{ID: m.episodeID, Symbol: m.symbol, Snapshots: m.history}
	}

	m.state = models.StateBase
	m.startPrice = decimal.NullDecimal{}
	m.maxPrice = decimal.NullDecimal{}
	m.greenStreak = 0
	m.remaining = 0
	m.pctStartToMax = decimal.Zero
	m.pctCurrToMax = decimal.Zero
	m.history = nil
	return ep
}
