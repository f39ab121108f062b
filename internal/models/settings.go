package models

// TradingSettings правятся из Telegram на лету.
type TradingSettings struct {
	BasePosition float64 `yaml:"base_position"` // USD
	MaxPositions int     `yaml:"max_positions"`
}
