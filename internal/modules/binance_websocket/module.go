package binance_websocket

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/models"
	"pump_bot/internal/modules/binance_websocket/service"
	"pump_bot/internal/modules/config"
	healthsvc "pump_bot/internal/modules/health/service"
)

func newClient(cfg *config.Config, state *healthsvc.State) *service.Client {
	return service.NewClient(service.Config{
		BaseURL:  cfg.Market.StreamURL,
		Interval: cfg.Market.Interval,
		Symbols:  cfg.Market.Symbols,
	}, state)
}

// Module поднимает стример закрытых свечей Binance.
func Module() fx.Option {
	return fx.Module("binance_websocket",
		fx.Provide(
			newClient,
			func() chan models.Candle {
				// общий буфер для свечей всех символов
				return make(chan models.Candle, 1024)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, s *service.Client, out chan models.Candle) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						s.Start(ctx, out)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-done:
					case <-stopCtx.Done():
					}
					// канал не закрываем: раннер останавливается своим хуком
					return nil
				},
			})
		}),
	)
}
