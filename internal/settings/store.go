package settings

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v2"

	"pump_bot/internal/models"
)

var ErrInvalidValue = errors.New("invalid settings value")

// Store держит торговые настройки в памяти и сохраняет их в yaml-файл.
// Пустой path: только память.
type Store struct {
	path string

	mu sync.RWMutex
	s  models.TradingSettings
}

// NewStore читает файл, если он есть, иначе стартует с defaults.
func NewStore(path string, defaults models.TradingSettings) (*Store, error) {
	st := &Store{path: path, s: defaults}
	if path == "" {
		return st, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	loaded := defaults
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", path, err)
	}
	if err := validate(loaded); err != nil {
		return nil, err
	}
	st.s = loaded
	return st, nil
}

func (st *Store) Get() models.TradingSettings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

func (st *Store) SetBasePosition(usd float64) error {
	return st.update(func(s *models.TradingSettings) { s.BasePosition = usd })
}

func (st *Store) SetMaxPositions(n int) error {
	return st.update(func(s *models.TradingSettings) { s.MaxPositions = n })
}

func (st *Store) update(fn func(s *models.TradingSettings)) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	next := st.s
	fn(&next)
	if err := validate(next); err != nil {
		return err
	}
	if err := st.save(next); err != nil {
		return err
	}
	st.s = next
	return nil
}

func (st *Store) save(s models.TradingSettings) error {
	if st.path == "" {
		return nil
	}
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(st.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Rename(tmp, st.path)
}

func validate(s models.TradingSettings) error {
	if math.IsNaN(s.BasePosition) || math.IsInf(s.BasePosition, 0) || s.BasePosition <= 0 {
		return fmt.Errorf("base position %.2f: %w", s.BasePosition, ErrInvalidValue)
	}
	if s.MaxPositions <= 0 {
		return fmt.Errorf("max positions %d: %w", s.MaxPositions, ErrInvalidValue)
	}
	return nil
}
