package export

import (
	"context"
	"sync"

	"pump_bot/internal/metrics"
	"pump_bot/internal/models"
	"pump_bot/pkg/logger"
)

// Sink пишет историю одного эпизода.
type Sink interface {
	Name() string
	Write(ctx context.Context, ep models.Episode) error
}

// Exporter: фоновая выгрузка эпизодов. Лучшее усилие: при переполнении
// буфера эпизод отбрасывается, лейны не ждут.
type Exporter struct {
	sinks []Sink
	ch    chan models.Episode
	wg    sync.WaitGroup

	mu      sync.RWMutex
	running bool
}

func NewExporter(buffer int, sinks ...Sink) *Exporter {
	if buffer <= 0 {
		buffer = 1
	}
	return &Exporter{
		sinks: sinks,
		ch:    make(chan models.Episode, buffer),
	}
}

func (e *Exporter) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for ep := range e.ch {
			e.write(ctx, ep)
		}
	}()
}

// Submit не блокирует.
func (e *Exporter) Submit(ep models.Episode) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.running {
		return false
	}
	select {
	case e.ch <- ep:
		return true
	default:
		logger.Warn("[EXPORT] buffer full, drop episode %s (%d rows)", ep.ID, len(ep.Snapshots))
		metrics.ExportDropped.Inc()
		return false
	}
}

// Stop дописывает очередь и останавливает воркер.
func (e *Exporter) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.ch)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Exporter) write(ctx context.Context, ep models.Episode) {
	for _, s := range e.sinks {
		if err := s.Write(ctx, ep); err != nil {
			logger.Error("[EXPORT] %s: episode %s: %v", s.Name(), ep.ID, err)
			metrics.ExportErrors.WithLabelValues(s.Name()).Inc()
			continue
		}
		logger.Info("[EXPORT] %s: episode %s saved, %d rows", s.Name(), ep.ID, len(ep.Snapshots))
	}
}
