package tracing

import (
	"context"
	"time"

	"github.com/turtacn/eventflow/pkg/common/constants"
	"github.com/turtacn/eventflow/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the configuration for the tracer provider.
// Config 保存追踪提供程序的配置。
type Config struct {
	Enabled        bool    `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Sampler        string  `mapstructure:"sampler" json:"sampler" yaml:"sampler"` // "always", "never", "traceidratio"
	SampleRatio    float64 `mapstructure:"sampleRatio" json:"sampleRatio" yaml:"sampleRatio"`
	ServiceName    string  `mapstructure:"serviceName" json:"serviceName" yaml:"serviceName"`
	ServiceVersion string  `mapstructure:"serviceVersion" json:"serviceVersion" yaml:"serviceVersion"`
}

var tracerProvider *sdktrace.TracerProvider

// DefaultTracerConfig returns a default configuration for tracing.
// DefaultTracerConfig 返回追踪的默认配置。
func DefaultTracerConfig() Config {
	return Config{
		Enabled:        false,
		Sampler:        "always",
		SampleRatio:    1.0,
		ServiceName:    constants.ServiceName,
		ServiceVersion: constants.ServiceVersion,
	}
}

// InitTracerProvider initializes the OpenTelemetry tracer provider with a
// stdout exporter. InitTracerProvider 使用stdout导出器初始化OpenTelemetry追踪提供程序。
// 该实现不涉及跨网络边界的链路传播，因此不配置OTLP导出器或W3C传播器。
// This deployment never forwards a trace context across a network boundary,
// so no OTLP exporter or W3C propagator is wired.
func InitTracerProvider(cfg Config) (shutdown func(context.Context) error, err error) {
	l := logger.L().With("component", "TracerProvider")
	if !cfg.Enabled {
		l.Info("distributed tracing is disabled")
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		l.Errorw("failed to create stdout trace exporter", "error", err)
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		l.Errorw("failed to create OpenTelemetry resource", "error", err)
		return nil, err
	}

	var sampler sdktrace.Sampler
	switch cfg.Sampler {
	case "never":
		sampler = sdktrace.NeverSample()
	case "traceidratio":
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	default:
		sampler = sdktrace.AlwaysSample()
	}

	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tracerProvider)

	l.Info("OpenTelemetry TracerProvider initialized with stdout exporter")

	shutdown = func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tracerProvider.Shutdown(shutdownCtx)
	}
	return shutdown, nil
}

// GetTracer returns a named tracer from the global TracerProvider.
// GetTracer 从全局TracerProvider返回一个命名的追踪器。
func GetTracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if tracerProvider == nil {
		return otel.Tracer(name, opts...)
	}
	return tracerProvider.Tracer(name, opts...)
}

// StartSpan starts a new span from the given context.
// StartSpan 从给定的上下文中开始一个新的span，并附加correlation-id属性（如果存在）。
func StartSpan(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	tracer := GetTracer(constants.ServiceName + "/instrumentation")
	ctx2, span := tracer.Start(ctx, spanName, opts...)
	if v, ok := ctx.Value(constants.ContextKeyCorrelationID).(string); ok && v != "" {
		span.SetAttributes(attribute.String("correlation_id", v))
	}
	return ctx2, span
}
