package export

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pump_bot/internal/models"
)

const snapshotsTable = "pump_snapshots"

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS pump_snapshots (
	pump_id          text             NOT NULL,
	symbol           text             NOT NULL,
	open             double precision NOT NULL,
	close            double precision NOT NULL,
	close_time_ms    bigint           NOT NULL,
	start_price      double precision NOT NULL,
	max_price        double precision NOT NULL,
	pct_start_to_max double precision NOT NULL,
	pct_curr_to_max  double precision NOT NULL,
	remaining        integer          NOT NULL,
	state            text             NOT NULL
);
CREATE INDEX IF NOT EXISTS pump_snapshots_pump_id_idx ON pump_snapshots (pump_id);`

var snapshotColumns = []string{
	"pump_id", "symbol", "open", "close", "close_time_ms", "start_price", "max_price",
	"pct_start_to_max", "pct_curr_to_max", "remaining", "state",
}

// TxRunner: *db.PgTxManager.
type TxRunner interface {
	RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx pgx.Tx) error) error
}

// PgSink копирует эпизод в pump_snapshots одной транзакцией через COPY.
type PgSink struct {
	db TxRunner
}

func NewPgSink(db TxRunner) *PgSink { return &PgSink{db: db} }

func (s *PgSink) Name() string { return "postgres" }

func (s *PgSink) EnsureSchema(ctx context.Context) error {
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, createSnapshotsTable)
		return err
	})
}

func (s *PgSink) Write(ctx context.Context, ep models.Episode) error {
	rows := snapshotRows(ep)
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctxTx, pgx.Identifier{snapshotsTable}, snapshotColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy %s: %w", ep.ID, err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy %s: %d of %d rows", ep.ID, n, len(rows))
		}
		return nil
	})
}

func snapshotRows(ep models.Episode) [][]any {
	rows := make([][]any, 0, len(ep.Snapshots))
	for _, r := range ep.Snapshots {
		rows = append(rows, []any{
			r.EpisodeID,
			r.Symbol,
			r.Open.InexactFloat64(),
			r.Close.InexactFloat64(),
			r.CloseTimeMs,
			r.StartPrice.InexactFloat64(),
			r.MaxPrice.InexactFloat64(),
			r.PctStartToMax.InexactFloat64(),
			r.PctCurrToMax.InexactFloat64(),
			int32(r.RemainingTicks),
			r.State.String(),
		})
	}
	return rows
}
