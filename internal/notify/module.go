package notify

import (
	"context"

	"go.uber.org/fx"

	"pump_bot/internal/metrics"
)

// Module поднимает очередь уведомлений; Sender даёт telegram-модуль.
func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(NewQueue),
		fx.Invoke(func(lc fx.Lifecycle, q *Queue) {
			q.OnSent(func(msg Message, err error) {
				outcome := "ok"
				if err != nil {
					outcome = "error"
				}
				metrics.NotificationsTotal.WithLabelValues(msg.Kind.String(), outcome).Inc()
			})
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					q.Start(ctx)
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					defer cancel()
					return q.Stop(stopCtx)
				},
			})
		}),
	)
}
