package service

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"pump_bot/internal/models"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected  atomic.Bool
	lastTickUnix atomic.Int64 // unix seconds

	mu      sync.RWMutex
	symbols map[string]models.PumpState
}

func NewState() *State {
	s := &State{
		startedAt: time.Now(),
		symbols:   make(map[string]models.PumpState),
	}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// SetSymbolState вызывается лейнами после каждой свечи.
func (s *State) SetSymbolState(symbol string, st models.PumpState) {
	s.mu.Lock()
	s.symbols[symbol] = st
	s.mu.Unlock()
}

func (s *State) SymbolStates() map[string]models.PumpState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.PumpState, len(s.symbols))
	for k, v := range s.symbols {
		out[k] = v
	}
	return out
}

// Active отдаёт символы не в BASE, по алфавиту.
func (s *State) Active() []string {
	var out []string
	for sym, st := range s.SymbolStates() {
		if st != models.StateBase {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	return out
}
