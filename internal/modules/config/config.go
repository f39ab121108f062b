package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDirENV      = "CONFIG_DIR"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	chatTelegramENV   = "TELEGRAM_CHAT_ID"
	databaseDSN       = "DATABASE_DSN"
	bybitKeyENV       = "BYBIT_API_KEY"
	bybitSecretENV    = "BYBIT_API_SECRET"
)

// Config ...
type Config struct {
	Service struct {
		Name       string `yaml:"name"`
		LogLevel   string `yaml:"log_level"`
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	DB string `yaml:"db_dsn"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`

	Market struct {
		StreamURL string   `yaml:"stream_url"`
		Interval  string   `yaml:"interval"`
		Symbols   []string `yaml:"symbols"`
	} `yaml:"market"`

	// Пороги автомата пампа
	Pump struct {
		StartedThreshold float64 `yaml:"started_threshold"` // 0.01 => рост свечи > 1%
		StartGraceTicks  int     `yaml:"start_grace_ticks"`
		ConfirmThreshold int     `yaml:"confirm_threshold"`
		BaseTicks        int     `yaml:"base_ticks"`
		CoolingOffFactor float64 `yaml:"cooling_off_factor"`
		StabilizedFactor float64 `yaml:"stabilized_factor"`
		DumpedFactor     float64 `yaml:"dumped_factor"`
	} `yaml:"pump"`

	Trading struct {
		BasePosition float64       `yaml:"base_position"` // USD
		MaxPositions int           `yaml:"max_positions"`
		SettingsFile string        `yaml:"settings_file"`
		Paper        bool          `yaml:"paper"`
		CallTimeout  time.Duration `yaml:"call_timeout"`
		LaneBuffer   int           `yaml:"lane_buffer"`
	} `yaml:"trading"`

	Bybit struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		APISecret  string `yaml:"api_secret"`
		RecvWindow int    `yaml:"recv_window"`
	} `yaml:"bybit"`

	Export struct {
		Dir    string `yaml:"dir"`
		Buffer int    `yaml:"buffer"`
	} `yaml:"export"`
}

// NewConfig: дефолты -> yaml-файл -> переменные окружения.
func NewConfig() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	configFileName := getenvDefault(configFilePathENV, "values_local.yaml")
	dir := getenvDefault(configDirENV, "configs")

	config := Default()

	file, err := os.Open(dir + "/" + configFileName)
	switch {
	case err == nil:
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", configFileName, err)
		}
	case os.IsNotExist(err):
		// работаем на дефолтах и env
	default:
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func Default() *Config {
	c := &Config{}
	c.Service.Name = "pump_bot"
	c.Service.LogLevel = "info"
	c.Service.HealthAddr = ":8080"

	c.Market.StreamURL = "wss://stream.binance.com:9443/stream"
	c.Market.Interval = "1m"
	c.Market.Symbols = []string{"btcusdt", "ethusdt", "solusdt", "xrpusdt", "adausdt", "dogeusdt", "mntusdt"}

	c.Pump.StartedThreshold = 0.01
	c.Pump.StartGraceTicks = 2
	c.Pump.ConfirmThreshold = 3
	c.Pump.BaseTicks = 120
	c.Pump.CoolingOffFactor = 0.1
	c.Pump.StabilizedFactor = 0.25
	c.Pump.DumpedFactor = 0.55

	c.Trading.BasePosition = 1000
	c.Trading.MaxPositions = 3
	c.Trading.SettingsFile = "data/settings.yaml"
	c.Trading.CallTimeout = 10 * time.Second
	c.Trading.LaneBuffer = 64

	c.Bybit.BaseURL = "https://api-demo.bybit.com"
	c.Bybit.RecvWindow = 5000

	c.Export.Dir = "data/pumps"
	c.Export.Buffer = 256
	return c
}

func (c *Config) applyEnv() {
	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	c.Telegram.ChatID = int64FromEnv(chatTelegramENV, c.Telegram.ChatID)

	if dsn := os.Getenv(databaseDSN); dsn != "" {
		c.DB = dsn
	}
	c.Bybit.APIKey = getenvDefault(bybitKeyENV, c.Bybit.APIKey)
	c.Bybit.APISecret = getenvDefault(bybitSecretENV, c.Bybit.APISecret)

	if syms := os.Getenv("SYMBOLS"); syms != "" {
		c.Market.Symbols = strings.Split(syms, ",")
	}
	for i, s := range c.Market.Symbols {
		c.Market.Symbols[i] = strings.ToLower(strings.TrimSpace(s))
	}

	c.Pump.StartedThreshold = floatFromEnv("PUMP_STARTED_THRESHOLD", c.Pump.StartedThreshold)
	c.Pump.StartGraceTicks = intFromEnv("PUMP_START_GRACE_TICKS", c.Pump.StartGraceTicks)
	c.Pump.ConfirmThreshold = intFromEnv("PUMP_CONFIRM_THRESHOLD", c.Pump.ConfirmThreshold)
	c.Pump.BaseTicks = intFromEnv("PUMP_BASE_TICKS", c.Pump.BaseTicks)
	c.Pump.CoolingOffFactor = floatFromEnv("PUMP_COOLING_OFF_FACTOR", c.Pump.CoolingOffFactor)
	c.Pump.StabilizedFactor = floatFromEnv("PUMP_STABILIZED_FACTOR", c.Pump.StabilizedFactor)
	c.Pump.DumpedFactor = floatFromEnv("PUMP_DUMPED_FACTOR", c.Pump.DumpedFactor)

	c.Trading.BasePosition = floatFromEnv("BASE_POSITION", c.Trading.BasePosition)
	c.Trading.MaxPositions = intFromEnv("MAX_POSITIONS", c.Trading.MaxPositions)
	c.Trading.Paper = boolFromEnv("PAPER_TRADING", c.Trading.Paper)
	c.Trading.CallTimeout = durationFromEnv("CALL_TIMEOUT", c.Trading.CallTimeout.String())

	c.Tracing.Host = getenvDefault("JAEGER_HOST", c.Tracing.Host)
	c.Tracing.Port = intFromEnv("JAEGER_PORT", c.Tracing.Port)
	c.Service.LogLevel = getenvDefault("LOG_LEVEL", c.Service.LogLevel)
}

func (c *Config) Validate() error {
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols is empty")
	}
	if !positive(c.Pump.StartedThreshold, c.Pump.CoolingOffFactor, c.Pump.StabilizedFactor, c.Pump.DumpedFactor) {
		return fmt.Errorf("pump thresholds must be finite and > 0")
	}
	if c.Pump.StartGraceTicks <= 0 || c.Pump.ConfirmThreshold <= 0 || c.Pump.BaseTicks <= 0 {
		return fmt.Errorf("pump ticks must be > 0")
	}
	if !positive(c.Trading.BasePosition) || c.Trading.MaxPositions <= 0 {
		return fmt.Errorf("trading.base_position and trading.max_positions must be > 0")
	}
	if !c.Trading.Paper && (c.Bybit.APIKey == "" || c.Bybit.APISecret == "") {
		return fmt.Errorf("bybit api key/secret required unless trading.paper is set")
	}
	return nil
}

// positive: NaN и Inf не проходят, strconv.ParseFloat их принимает.
func positive(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return false
		}
	}
	return true
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func int64FromEnv(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
