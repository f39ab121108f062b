package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pump_bot/internal/models"
)

type InstrumentSource interface {
	Instrument(ctx context.Context, symbol string) (models.Instrument, error)
}

// Warmuper прогревает кэш фильтров инструментов до первой сделки.
type Warmuper struct {
	src InstrumentSource

	// ограничитель параллелизма, чтобы не словить rate limit
	sem chan struct{}
}

type Report struct {
	Ready  []string
	Failed map[string]error
}

func NewWarmuper(src InstrumentSource) *Warmuper {
	return &Warmuper{
		src: src,
		sem: make(chan struct{}, 8),
	}
}

func (w *Warmuper) Warmup(ctx context.Context, symbols []string) Report {
	rep := Report{Failed: make(map[string]error)}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, sym := range symbols {
		sym := sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case w.sem <- struct{}{}:
			case <-ctx.Done():
				mu.Lock()
				rep.Failed[sym] = ctx.Err()
				mu.Unlock()
				return
			}
			defer func() { <-w.sem }()

			_, err := w.src.Instrument(ctx, sym)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Failed[sym] = fmt.Errorf("instrument %s: %w", sym, err)
				return
			}
			rep.Ready = append(rep.Ready, sym)
		}()
	}
	wg.Wait()
	sort.Strings(rep.Ready)
	return rep
}
