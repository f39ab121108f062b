package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"pump_bot/internal/modules/config"
	"pump_bot/pkg/db"
	"pump_bot/pkg/logger"
)

// NewTxManager: при пустом DSN база не нужна, возвращаем nil.
func NewTxManager(lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
	if cfg.DB == "" {
		logger.Info("[PG] db_dsn is empty, postgres export disabled")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:      cfg.DB,
		MaxConns: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}

	m := db.NewPgTxManager(poolMaster)
	if err := m.Ping(ctx); err != nil {
		m.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			m.Close()
			return nil
		},
	})
	return m, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(NewTxManager),
	)
}
