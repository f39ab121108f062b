package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"

	bootstrap "pump_bot/internal/modules/bootstrap/service"
	bybit "pump_bot/internal/modules/bybit_client/service"
	"pump_bot/internal/modules/config"
	"pump_bot/internal/notify"
	"pump_bot/pkg/logger"
)

func newWarmuper(c *bybit.Client) *bootstrap.Warmuper {
	return bootstrap.NewWarmuper(c)
}

// Module прогревает фильтры Bybit. В paper-режиме биржа не нужна.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(newWarmuper),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, wu *bootstrap.Warmuper, q *notify.Queue) {
			if cfg.Trading.Paper {
				return
			}
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
						defer cancel()

						rep := wu.Warmup(ctx, cfg.Market.Symbols)
						logger.Info("[BOOT] warmup done: %d ready, %d failed", len(rep.Ready), len(rep.Failed))
						if len(rep.Failed) == 0 {
							return
						}
						var b strings.Builder
						for sym, err := range rep.Failed {
							logger.Warn("[BOOT] %v", err)
							fmt.Fprintf(&b, "\n• %s", strings.ToUpper(sym))
						}
						q.Info("⚠️ Нет фильтров Bybit, ордера по этим символам не пройдут:" + b.String())
					}()
					return nil
				},
			})
		}),
	)
}
