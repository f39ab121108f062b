package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/shopspring/decimal"

	"pump_bot/internal/decision"
	"pump_bot/internal/exchange"
	"pump_bot/internal/metrics"
	"pump_bot/internal/models"
	pumpsvc "pump_bot/internal/modules/pump/service"
	"pump_bot/internal/notify"
	"pump_bot/pkg/logger"
	"pump_bot/pkg/tracing"
)

type Notifier interface {
	Enqueue(msg notify.Message)
}

// EpisodeSink: *export.Exporter.
type EpisodeSink interface {
	Submit(ep models.Episode) bool
}

// StateObserver получает состояние символа после каждой свечи (health).
type StateObserver interface {
	SetSymbolState(symbol string, st models.PumpState)
}

// Marker: бумажный гейтвей, которому нужна последняя цена.
type Marker interface {
	Mark(symbol string, price decimal.Decimal)
}

type Config struct {
	CallTimeout time.Duration
	LaneBuffer  int
}

type Deps struct {
	Params   pumpsvc.Params
	Engine   *decision.Engine
	Gateway  exchange.Gateway
	Notifier Notifier
	Sink     EpisodeSink   // может быть nil
	Observer StateObserver // может быть nil
}

// Runner раскидывает свечи по лейнам: одна горутина и один автомат на символ.
type Runner struct {
	cfg  Config
	deps Deps

	mu    sync.Mutex
	lanes map[string]*lane
	wg    sync.WaitGroup
}

type lane struct {
	symbol  string
	in      chan models.Candle
	monitor *pumpsvc.Monitor
	seq     Sequencer
}

func New(cfg Config, deps Deps) *Runner {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.LaneBuffer <= 0 {
		cfg.LaneBuffer = 64
	}
	return &Runner{
		cfg:   cfg,
		deps:  deps,
		lanes: make(map[string]*lane),
	}
}

// Run читает свечи до закрытия in или отмены ctx и ждёт, пока лейны доработают.
func (r *Runner) Run(ctx context.Context, in <-chan models.Candle) {
	defer r.closeLanes()

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-in:
			if !ok {
				return
			}
			l := r.lane(ctx, c.Symbol)
			select {
			case l.in <- c:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (r *Runner) Symbols() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.lanes))
	for s := range r.lanes {
		out = append(out, s)
	}
	return out
}

func (r *Runner) lane(ctx context.Context, symbol string) *lane {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lanes[symbol]; ok {
		return l
	}
	l := &lane{
		symbol:  symbol,
		in:      make(chan models.Candle, r.cfg.LaneBuffer),
		monitor: pumpsvc.NewMonitor(symbol, r.deps.Params),
	}
	r.lanes[symbol] = l
	r.wg.Add(1)
	go r.runLane(ctx, l)
	logger.Info("[RUNNER] lane started: %s", symbol)
	return l
}

func (r *Runner) runLane(ctx context.Context, l *lane) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-l.in:
			if !ok {
				return
			}
			r.onCandle(ctx, l, c)
		}
	}
}

func (r *Runner) closeLanes() {
	r.mu.Lock()
	for _, l := range r.lanes {
		close(l.in)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) onCandle(ctx context.Context, l *lane, c models.Candle) {
	span, ctx := tracing.StartSpan(ctx, "runner.candle", opentracing.Tags{
		"symbol":     c.Symbol,
		"close_time": c.CloseTimeMs,
	})
	defer span.Finish()

	if err := l.seq.Accept(c); err != nil {
		metrics.CandlesRejected.WithLabelValues(c.Symbol, "out_of_order").Inc()
		logger.Warn("[RUNNER] skip candle: %v", err)
		return
	}
	if m, ok := r.deps.Gateway.(Marker); ok {
		m.Mark(c.Symbol, c.Close)
	}

	prev := l.monitor.State()
	res, err := l.monitor.Process(c)
	metrics.CandlesTotal.WithLabelValues(c.Symbol).Inc()
	if err != nil {
		metrics.CandlesRejected.WithLabelValues(c.Symbol, "degenerate").Inc()
		tracing.Fail(span, err)
		logger.Warn("[PUMP] %v", err)
		return
	}
	span.SetTag("state", res.State.String())
	logger.Debug("[PUMP] %s close=%s state=%s", c.Symbol, c.Close, res.State)

	if res.State != prev {
		metrics.StateTransitions.WithLabelValues(c.Symbol, prev.String(), res.State.String()).Inc()
		logger.Info("[PUMP] %s %s -> %s close=%s", c.Symbol, prev, res.State, c.Close)
	}
	if r.deps.Observer != nil {
		r.deps.Observer.SetSymbolState(c.Symbol, res.State)
	}
	if res.Flushed != nil && r.deps.Sink != nil {
		if !r.deps.Sink.Submit(*res.Flushed) {
			logger.Warn("[EXPORT] episode %s dropped", res.Flushed.ID)
		}
	}

	r.decide(ctx, c.Symbol, res.State)
}

// decide берёт снимок позиции после обновления автомата и исполняет решение.
// Ошибки гейтвея состояние автомата не откатывают, повтор на следующей свече.
func (r *Runner) decide(ctx context.Context, symbol string, state models.PumpState) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
	defer cancel()

	pos, has, err := r.deps.Gateway.Position(callCtx, symbol)
	if err != nil {
		logger.Error("[RUNNER] %s position: %v", symbol, err)
		return
	}
	open, err := r.deps.Gateway.OpenPositionsCount(callCtx)
	if err != nil {
		logger.Error("[RUNNER] open positions: %v", err)
		return
	}

	var before *models.Position
	notional := 0.0
	if has && pos.IsOpen() {
		before = &pos
		notional = pos.Notional().InexactFloat64()
	}

	a := r.deps.Engine.Decide(symbol, state, notional, open)
	if a.IsNone() {
		return
	}
	r.execute(callCtx, a, before)
}

func (r *Runner) execute(ctx context.Context, a models.Action, before *models.Position) {
	span, ctx := tracing.StartSpan(ctx, "runner.execute", opentracing.Tags{
		"symbol": a.Symbol,
		"action": a.Kind.String(),
	})
	defer span.Finish()

	logger.Info("[RUNNER] %s", a)

	var (
		call  string
		err   error
		start = time.Now()
	)
	switch a.Kind {
	case models.ActionOpenOrIncrease:
		call = "open"
		err = r.deps.Gateway.OpenOrIncrease(ctx, a.Symbol, models.SideBuy, a.NotionalUSD)
	case models.ActionClose:
		call = "close"
		err = r.deps.Gateway.Close(ctx, a.Symbol)
		if errors.Is(err, exchange.ErrNoPosition) {
			// позицию уже закрыли руками или по ликвидации
			logger.Warn("[RUNNER] %s: nothing to close", a.Symbol)
			metrics.ActionsTotal.WithLabelValues(a.Symbol, a.Kind.String(), "noop").Inc()
			return
		}
	}
	metrics.GatewayLatency.WithLabelValues(call).Observe(time.Since(start).Seconds())

	if err != nil {
		tracing.Fail(span, err)
		metrics.ActionsTotal.WithLabelValues(a.Symbol, a.Kind.String(), "error").Inc()
		logger.Error("[RUNNER] %s failed: %v", a, err)
		r.deps.Notifier.Enqueue(notify.ErrorMessage(a, err))
		return
	}
	metrics.ActionsTotal.WithLabelValues(a.Symbol, a.Kind.String(), "ok").Inc()

	var after *models.Position
	if a.Kind == models.ActionOpenOrIncrease {
		if p, ok, err := r.deps.Gateway.Position(ctx, a.Symbol); err == nil && ok {
			after = &p
		} else if err != nil {
			logger.Warn("[RUNNER] %s snapshot after open: %v", a.Symbol, err)
		}
	}
	r.deps.Notifier.Enqueue(notify.TradeMessage(a, before, after))
}
