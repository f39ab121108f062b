package runner

import (
	"errors"
	"fmt"

	"pump_bot/internal/models"
)

// ErrOutOfOrder: свеча не новее последней принятой (дубль или опоздавшая).
var ErrOutOfOrder = errors.New("candle out of order")

// Sequencer держит closeTime последней принятой свечи одного символа.
type Sequencer struct {
	lastCloseMs int64
	seen        bool
}

func (s *Sequencer) Accept(c models.Candle) error {
	if s.seen && c.CloseTimeMs <= s.lastCloseMs {
		return fmt.Errorf("%s closeTime %d <= %d: %w", c.Symbol, c.CloseTimeMs, s.lastCloseMs, ErrOutOfOrder)
	}
	s.lastCloseMs = c.CloseTimeMs
	s.seen = true
	return nil
}
