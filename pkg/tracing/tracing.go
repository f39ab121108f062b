package tracing

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"

	"pump_bot/pkg/logger"
)

var (
	// задаётся из main до InitTracer
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

type Config struct {
	Host string
	Port int
}

// Enabled: без адреса агента трейсер остаётся noop (глобальный по умолчанию).
func (c Config) Enabled() bool { return c.Host != "" && c.Port > 0 }

func InitTracer(conf Config) (opentracing.Tracer, func(), error) {
	if !conf.Enabled() {
		return opentracing.GlobalTracer(), func() {}, nil
	}
	cfg := &jCfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jCfg.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &jCfg.ReporterConfig{
			LogSpans:           false,
			LocalAgentHostPort: fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		},
	}

	jMetricsFactory := metrics.NullFactory
	tracer, closer, err := cfg.NewTracer(
		jCfg.Metrics(jMetricsFactory),
	)
	if err != nil {
		return nil, nil, err
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, func() {
		if err := closer.Close(); err != nil {
			logger.Error("Error closing Jaeger tracer: %v", err)
		}
	}, nil
}

// StartSpan: дочерний спан от спана в ctx (или корневой).
func StartSpan(ctx context.Context, op string, tags opentracing.Tags) (opentracing.Span, context.Context) {
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	for k, v := range tags {
		span.SetTag(k, v)
	}
	return span, ctx
}

// Fail помечает спан ошибкой.
func Fail(span opentracing.Span, err error) {
	if err == nil {
		return
	}
	ext.Error.Set(span, true)
	span.LogKV("error", err.Error())
}
