package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"pump_bot/internal/models"
)

var header = []string{
	"pump_id", "symbol", "o", "c", "close_time_ms", "start_price", "max_price",
	"pct_start_to_max", "pct_curr_to_max", "remaining", "state",
}

// CSVSink пишет эпизод в {dir}/{episodeID}.csv.
type CSVSink struct {
	dir string
}

func NewCSVSink(dir string) *CSVSink { return &CSVSink{dir: dir} }

func (s *CSVSink) Name() string { return "csv" }

func (s *CSVSink) Write(_ context.Context, ep models.Episode) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, ep.ID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range ep.Snapshots {
		row := []string{
			r.EpisodeID,
			r.Symbol,
			r.Open.String(),
			r.Close.String(),
			strconv.FormatInt(r.CloseTimeMs, 10),
			r.StartPrice.String(),
			r.MaxPrice.String(),
			r.PctStartToMax.StringFixed(6),
			r.PctCurrToMax.StringFixed(6),
			strconv.Itoa(r.RemainingTicks),
			r.State.String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
