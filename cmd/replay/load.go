package main

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"pump_bot/internal/models"
	ws "pump_bot/internal/modules/binance_websocket/service"
)

// loadCandles читает json-массив kline-записей. Битые записи пропускаются и считаются.
func loadCandles(path string, only map[string]bool) ([]models.Candle, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, errors.Wrap(err, "read replay file")
	}
	var records []ws.KlineRecord
	if err := sonic.Unmarshal(raw, &records); err != nil {
		return nil, 0, errors.Wrapf(err, "decode %s", path)
	}

	out := make([]models.Candle, 0, len(records))
	skipped := 0
	for _, rec := range records {
		c, err := ws.FromRecord(rec)
		if err != nil {
			skipped++
			continue
		}
		if len(only) > 0 && !only[c.Symbol] {
			continue
		}
		out = append(out, c)
	}
	return out, skipped, nil
}
