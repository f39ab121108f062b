package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"pump_bot/internal/decision"
	"pump_bot/internal/exchange"
	"pump_bot/internal/export"
	"pump_bot/internal/models"
	"pump_bot/internal/modules/config"
	pumpsvc "pump_bot/internal/modules/pump/service"
	"pump_bot/internal/notify"
	"pump_bot/internal/runner"
	"pump_bot/internal/settings"
	"pump_bot/pkg/logger"
)

const envPrefix = "REPLAY"

func newViper() (*viper.Viper, error) {
	engine := viper.New()
	engine.SetEnvPrefix(envPrefix)
	engine.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	engine.AutomaticEnv()

	def := config.Default()
	engine.SetDefault("file", "")
	engine.SetDefault("symbols", "")
	engine.SetDefault("export_dir", "")
	engine.SetDefault("log_level", "info")
	engine.SetDefault("base_position", def.Trading.BasePosition)
	engine.SetDefault("max_positions", def.Trading.MaxPositions)
	engine.SetDefault("pump.started_threshold", def.Pump.StartedThreshold)
	engine.SetDefault("pump.start_grace_ticks", def.Pump.StartGraceTicks)
	engine.SetDefault("pump.confirm_threshold", def.Pump.ConfirmThreshold)
	engine.SetDefault("pump.base_ticks", def.Pump.BaseTicks)
	engine.SetDefault("pump.cooling_off_factor", def.Pump.CoolingOffFactor)
	engine.SetDefault("pump.stabilized_factor", def.Pump.StabilizedFactor)
	engine.SetDefault("pump.dumped_factor", def.Pump.DumpedFactor)

	// REPLAY_CONFIG: необязательный yaml с теми же ключами
	if file := os.Getenv(envPrefix + "_CONFIG"); file != "" {
		engine.SetConfigFile(file)
		if err := engine.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read %s", file)
		}
	}
	return engine, nil
}

func pumpParams(engine *viper.Viper) (pumpsvc.Params, error) {
	p := pumpsvc.Params{
		StartGraceTicks:  engine.GetInt("pump.start_grace_ticks"),
		ConfirmThreshold: engine.GetInt("pump.confirm_threshold"),
		BaseTicks:        engine.GetInt("pump.base_ticks"),
	}
	for key, dst := range map[string]*decimal.Decimal{
		"pump.started_threshold":  &p.StartedThreshold,
		"pump.cooling_off_factor": &p.CoolingOffFactor,
		"pump.stabilized_factor":  &p.StabilizedFactor,
		"pump.dumped_factor":      &p.DumpedFactor,
	} {
		v := engine.GetFloat64(key)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return p, errors.Errorf("%s: %v is not a finite number", key, v)
		}
		*dst = decimal.NewFromFloat(v)
	}
	return p, p.Validate()
}

func symbolFilter(raw string) map[string]bool {
	only := map[string]bool{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			only[s] = true
		}
	}
	return only
}

func run(ctx context.Context, engine *viper.Viper) error {
	file := engine.GetString("file")
	if len(os.Args) > 1 {
		file = os.Args[1]
	}
	if file == "" {
		return errors.New("usage: replay <klines.json> (or REPLAY_FILE)")
	}

	params, err := pumpParams(engine)
	if err != nil {
		return err
	}
	store, err := settings.NewStore("", models.TradingSettings{
		BasePosition: engine.GetFloat64("base_position"),
		MaxPositions: engine.GetInt("max_positions"),
	})
	if err != nil {
		return err
	}

	candles, skipped, err := loadCandles(file, symbolFilter(engine.GetString("symbols")))
	if err != nil {
		return err
	}
	logger.Info("[REPLAY] %s: %d candles, %d malformed records skipped", file, len(candles), skipped)

	queue := notify.NewQueue(notify.NewStdout())
	queue.Start(ctx)

	var sinks []export.Sink
	if dir := engine.GetString("export_dir"); dir != "" {
		sinks = append(sinks, export.NewCSVSink(dir))
	}
	exporter := export.NewExporter(len(candles)+1, sinks...)
	exporter.Start(ctx)

	paper := exchange.NewPaper(6)
	r := runner.New(runner.Config{}, runner.Deps{
		Params:   params,
		Engine:   decision.NewEngine(store),
		Gateway:  paper,
		Notifier: queue,
		Sink:     exporter,
	})

	in := make(chan models.Candle, len(candles))
	for _, c := range candles {
		in <- c
	}
	close(in)

	started := time.Now()
	r.Run(ctx, in)
	exporter.Stop()

	positions, err := paper.Positions(ctx)
	if err != nil {
		return err
	}
	queue.Info(fmt.Sprintf("🏁 Replay done in %s, %d symbols\n%s",
		time.Since(started).Round(time.Millisecond), len(r.Symbols()), notify.FormatPositions(positions)))

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return queue.Stop(stopCtx)
}

func main() {
	engine, err := newViper()
	if err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("pump_replay")
	if err := logger.Init(engine.GetString("log_level")); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(context.Background(), engine); err != nil {
		logger.Error("[REPLAY] %v", err)
		logger.Sync()
		os.Exit(1)
	}
}
