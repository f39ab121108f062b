package export

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"pump_bot/internal/modules/config"
	"pump_bot/pkg/db"
	"pump_bot/pkg/logger"
)

// NewFromConfig собирает синки: CSV при заданном dir, Postgres при поднятой базе.
func NewFromConfig(lc fx.Lifecycle, cfg *config.Config, tx *db.PgTxManager) *Exporter {
	var sinks []Sink
	if cfg.Export.Dir != "" {
		sinks = append(sinks, NewCSVSink(cfg.Export.Dir))
	}
	var pg *PgSink
	if tx != nil {
		pg = NewPgSink(tx)
		sinks = append(sinks, pg)
	}
	e := NewExporter(cfg.Export.Buffer, sinks...)

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			if pg != nil {
				if err := pg.EnsureSchema(startCtx); err != nil {
					return fmt.Errorf("ensure %s: %w", snapshotsTable, err)
				}
			}
			logger.Info("[EXPORT] %d sinks, buffer %d", len(sinks), cfg.Export.Buffer)
			e.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			e.Stop()
			cancel()
			return nil
		},
	})
	return e
}

func Module() fx.Option {
	return fx.Module("export",
		fx.Provide(NewFromConfig),
	)
}
