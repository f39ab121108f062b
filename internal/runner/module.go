package runner

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"pump_bot/internal/decision"
	"pump_bot/internal/exchange"
	"pump_bot/internal/export"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	healthsvc "pump_bot/internal/modules/health/service"
	pumpsvc "pump_bot/internal/modules/pump/service"
	"pump_bot/internal/notify"
	"pump_bot/internal/settings"
)

type params struct {
	fx.In

	Cfg      *config.Config
	Pump     pumpsvc.Params
	Settings *settings.Store
	Gateway  exchange.Gateway
	Queue    *notify.Queue
	Exporter *export.Exporter
	Health   *healthsvc.State
}

func NewRunner(p params) *Runner {
	return New(Config{
		CallTimeout: p.Cfg.Trading.CallTimeout,
		LaneBuffer:  p.Cfg.Trading.LaneBuffer,
	}, Deps{
		Params:   p.Pump,
		Engine:   decision.NewEngine(p.Settings),
		Gateway:  p.Gateway,
		Notifier: p.Queue,
		Sink:     p.Exporter,
		Observer: p.Health,
	})
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewRunner,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			r *Runner,
			candles chan models.Candle,
			q *notify.Queue,
			health *healthsvc.State,
		) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						defer close(done)
						r.Run(ctx, candles)
					}()
					health.SetReady(true)
					q.Info(fmt.Sprintf("▶️ Мониторинг пампов запущен: %d символов", len(cfg.Market.Symbols)))
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					health.SetReady(false)
					cancel()
					select {
					case <-done:
						return nil
					case <-stopCtx.Done():
						return stopCtx.Err()
					}
				},
			})
		}),
	)
}
