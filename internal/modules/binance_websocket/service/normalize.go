package service

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"pump_bot/internal/helper"
	"pump_bot/internal/models"
)

var (
	ErrPartialCandle = errors.New("candle is not closed")
	ErrMalformed     = errors.New("malformed kline")
)

// кадр combined stream: {"stream":"btcusdt@kline_1m","data":{...}}.
type combinedFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		Event string      `json:"e"`
		Kline KlineRecord `json:"k"`
	} `json:"data"`
}

// KlineRecord: свеча в формате Binance, он же формат файлов replay.
type KlineRecord struct {
	Symbol    string `json:"s"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h,omitempty"`
	Low       string `json:"l,omitempty"`
	Volume    string `json:"v"`
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Closed    *bool  `json:"x,omitempty"`
}

// DecodeFrame разбирает кадр стрима в закрытую свечу.
func DecodeFrame(raw []byte) (models.Candle, error) {
	var f combinedFrame
	if err := sonic.Unmarshal(raw, &f); err != nil {
		return models.Candle{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if f.Data.Event != "" && f.Data.Event != "kline" {
		return models.Candle{}, fmt.Errorf("%w: event %q", ErrMalformed, f.Data.Event)
	}
	k := f.Data.Kline
	if k.Closed == nil || !*k.Closed {
		return models.Candle{}, ErrPartialCandle
	}
	return FromRecord(k)
}

// FromRecord: записи без s/o/c или с кривыми числами отбрасываются.
func FromRecord(k KlineRecord) (models.Candle, error) {
	if k.Symbol == "" || k.Open == "" || k.Close == "" {
		return models.Candle{}, fmt.Errorf("%w: missing s/o/c", ErrMalformed)
	}
	open, err := decimal.NewFromString(k.Open)
	if err != nil {
		return models.Candle{}, fmt.Errorf("%w: open %q", ErrMalformed, k.Open)
	}
	closePx, err := decimal.NewFromString(k.Close)
	if err != nil {
		return models.Candle{}, fmt.Errorf("%w: close %q", ErrMalformed, k.Close)
	}
	vol := decimal.Zero
	if k.Volume != "" {
		if v, err := decimal.NewFromString(k.Volume); err == nil {
			vol = v
		}
	}
	if k.CloseTime != 0 && k.OpenTime > k.CloseTime {
		return models.Candle{}, fmt.Errorf("%w: open time %d after close time %d", ErrMalformed, k.OpenTime, k.CloseTime)
	}
	return models.Candle{
		Symbol:      helper.NormSymbol(k.Symbol),
		Open:        open,
		Close:       closePx,
		OpenTimeMs:  k.OpenTime,
		CloseTimeMs: k.CloseTime,
		Volume:      vol,
		IsClosed:    true,
	}, nil
}
