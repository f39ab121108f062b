package runner

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pump_bot/internal/decision"
	"pump_bot/internal/exchange"
	"pump_bot/internal/models"
	pumpsvc "pump_bot/internal/modules/pump/service"
	"pump_bot/internal/notify"
	"pump_bot/pkg/logger"
)

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Enqueue(msg notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

type episodes struct {
	mu  sync.Mutex
	eps []models.Episode
}

func (e *episodes) Submit(ep models.Episode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eps = append(e.eps, ep)
	return true
}

type states struct {
	mu sync.Mutex
	m  map[string]models.PumpState
}

func (s *states) SetSymbolState(symbol string, st models.PumpState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]models.PumpState{}
	}
	s.m[symbol] = st
}

type staticSettings struct{ s models.TradingSettings }

func (s staticSettings) Get() models.TradingSettings { return s.s }

// brokenGateway: бумажный гейтвей, у которого не проходят ордера на открытие.
type brokenGateway struct {
	*exchange.Paper
}

func (b brokenGateway) OpenOrIncrease(context.Context, string, string, float64) error {
	return errors.New("bybit: 10001 params error")
}

type harness struct {
	r      *Runner
	notes  *recorder
	sink   *episodes
	states *states
}

func newHarness(gw exchange.Gateway) harness {
	return newHarnessWith(gw, models.TradingSettings{BasePosition: 1000, MaxPositions: 3})
}

func newHarnessWith(gw exchange.Gateway, s models.TradingSettings) harness {
	h := harness{notes: &recorder{}, sink: &episodes{}, states: &states{}}
	h.r = New(Config{}, Deps{
		Params:   pumpsvc.DefaultParams(),
		Engine:   decision.NewEngine(staticSettings{s}),
		Gateway:  gw,
		Notifier: h.notes,
		Sink:     h.sink,
		Observer: h.states,
	})
	return h
}

func candle(sym string, minute int64, open, close float64) models.Candle {
	return models.Candle{
		Symbol:      sym,
		Open:        decimal.NewFromFloat(open),
		Close:       decimal.NewFromFloat(close),
		OpenTimeMs:  minute * 60_000,
		CloseTimeMs: minute*60_000 + 59_999,
		IsClosed:    true,
	}
}

// run прогоняет свечи синхронно: Run возвращается, когда лейны всё обработали.
func (h harness) run(cs ...models.Candle) {
	in := make(chan models.Candle, len(cs))
	for _, c := range cs {
		in <- c
	}
	close(in)
	h.r.Run(context.Background(), in)
}

func TestRunner_PumpLifecycleTrades(t *testing.T) {
	paper := exchange.NewPaper(6)
	h := newHarness(paper)

	h.run(
		candle("btcusdt", 1, 100, 102), // STARTED -> открыть 500
		candle("btcusdt", 2, 102, 104), // STARTED, уже ~500
		candle("btcusdt", 3, 104, 106), // CONFIRMED -> добор 500
		candle("btcusdt", 4, 106, 105), // COOLING_OFF -> закрыть
	)

	require.Len(t, h.notes.msgs, 3)
	for _, m := range h.notes.msgs {
		assert.Equal(t, notify.KindTrade, m.Kind)
		assert.Equal(t, "btcusdt", m.Symbol)
	}
	assert.Contains(t, h.notes.msgs[0].Text, "НАЧАЛО ПАМПА")
	assert.Contains(t, h.notes.msgs[1].Text, "ПАМП ПОДТВЕРЖДЕН")
	assert.Contains(t, h.notes.msgs[2].Text, "ЗАКРЫТИЕ ПОЗИЦИИ")

	n, err := paper.OpenPositionsCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, models.StateCoolingOff, h.states.m["btcusdt"])
}

func TestRunner_ExecutionFailureKeepsState(t *testing.T) {
	h := newHarness(brokenGateway{exchange.NewPaper(6)})

	h.run(candle("ethusdt", 1, 10, 10.5))

	require.Len(t, h.notes.msgs, 1)
	assert.Equal(t, notify.KindError, h.notes.msgs[0].Kind)
	assert.Contains(t, h.notes.msgs[0].Text, "10001")
	assert.Equal(t, models.StateStarted, h.states.m["ethusdt"])
}

func TestRunner_DuplicateCandleSkipped(t *testing.T) {
	h := newHarness(exchange.NewPaper(6))

	trigger := candle("solusdt", 1, 100, 102)
	h.run(trigger, trigger, candle("solusdt", 2, 102, 103))

	// дубль засчитался бы зелёной и дал CONFIRMED с добором
	require.Len(t, h.notes.msgs, 1)
	assert.Equal(t, models.StateStarted, h.states.m["solusdt"])
}

func TestRunner_AbortedEpisodeExported(t *testing.T) {
	h := newHarness(exchange.NewPaper(6))

	h.run(
		candle("xrpusdt", 1, 1, 1.02),
		candle("xrpusdt", 2, 1.02, 1.01),
	)

	require.Len(t, h.sink.eps, 1)
	ep := h.sink.eps[0]
	assert.Equal(t, "xrpusdt_60000", ep.ID)
	require.Len(t, ep.Snapshots, 1)
	assert.Equal(t, models.StateStarted, ep.Snapshots[0].State)
	assert.Equal(t, models.StateBase, h.states.m["xrpusdt"])
}

func TestRunner_SymbolsIsolated(t *testing.T) {
	h := newHarness(exchange.NewPaper(6))

	h.run(
		candle("btcusdt", 1, 100, 102),
		candle("ethusdt", 1, 10, 10),
		candle("ethusdt", 2, 10, 9.9),
	)

	assert.ElementsMatch(t, []string{"btcusdt", "ethusdt"}, h.r.Symbols())
	assert.Equal(t, models.StateStarted, h.states.m["btcusdt"])
	assert.Equal(t, models.StateBase, h.states.m["ethusdt"])
}

func TestRunner_DegenerateCandleIgnored(t *testing.T) {
	h := newHarness(exchange.NewPaper(6))

	h.run(candle("adausdt", 1, 0, 1))

	assert.Empty(t, h.notes.msgs)
	_, seen := h.states.m["adausdt"]
	assert.False(t, seen)
}

func TestRunner_NonFiniteBasePositionDoesNotTrade(t *testing.T) {
	paper := exchange.NewPaper(6)
	h := newHarnessWith(paper, models.TradingSettings{BasePosition: math.NaN(), MaxPositions: 3})

	h.run(
		candle("btcusdt", 1, 100, 102),
		candle("btcusdt", 2, 102, 104),
		candle("btcusdt", 3, 104, 106),
	)

	assert.Empty(t, h.notes.msgs)
	n, err := paper.OpenPositionsCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, models.StateConfirmed, h.states.m["btcusdt"])
}

func TestRunner_TracesCandlesAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.InfoLogger
	logger.InfoLogger = zap.New(core)
	t.Cleanup(func() { logger.InfoLogger = prev })

	h := newHarness(exchange.NewPaper(6))
	h.run(candle("dogeusdt", 1, 1, 1.001))

	entries := logs.FilterLevelExact(zapcore.DebugLevel).FilterMessageSnippet("dogeusdt").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, "state=BASE")
}

func TestSequencer(t *testing.T) {
	var s Sequencer
	require.NoError(t, s.Accept(candle("btcusdt", 2, 1, 1)))
	assert.ErrorIs(t, s.Accept(candle("btcusdt", 2, 1, 1)), ErrOutOfOrder)
	assert.ErrorIs(t, s.Accept(candle("btcusdt", 1, 1, 1)), ErrOutOfOrder)
	assert.NoError(t, s.Accept(candle("btcusdt", 3, 1, 1)))
}
