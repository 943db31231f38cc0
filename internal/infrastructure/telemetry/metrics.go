package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "skincare-ingredients"

// Config 指標匯出設定
type Config struct {
	Enabled  bool
	Endpoint string
	Insecure bool
	Interval time.Duration
}

// Metrics 應用程式指標
type Metrics struct {
	ResolveSource     metric.Int64Counter
	ChemistryFetch    metric.Int64Counter
	LLMRequest        metric.Int64Counter
	RateLimitDecision metric.Int64Counter
}

// Setup 啟用時安裝 SDK MeterProvider 並以 OTLP gRPC 匯出；
// 未啟用時保留全域 no-op provider。回傳的函式用於關閉。
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}

// NewMetrics 建立計數器
func NewMetrics() (*Metrics, error) {
	return newMetrics(otel.Meter(meterName))
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	resolveSource, err := meter.Int64Counter(
		"ingredient.resolve.source",
		metric.WithDescription("Resolved ingredients by source tag"),
	)
	if err != nil {
		return nil, err
	}

	chemistryFetch, err := meter.Int64Counter(
		"ingredient.chemistry.fetch",
		metric.WithDescription("External chemistry lookups by outcome"),
	)
	if err != nil {
		return nil, err
	}

	llmRequest, err := meter.Int64Counter(
		"ingredient.llm.request",
		metric.WithDescription("Language model requests by provider and outcome"),
	)
	if err != nil {
		return nil, err
	}

	rateLimit, err := meter.Int64Counter(
		"ingredient.ratelimit.decision",
		metric.WithDescription("Rate limit admissions by endpoint and decision"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ResolveSource:     resolveSource,
		ChemistryFetch:    chemistryFetch,
		LLMRequest:        llmRequest,
		RateLimitDecision: rateLimit,
	}, nil
}

// RecordSource 記錄解析或說明結果的來源
func (m *Metrics) RecordSource(ctx context.Context, kind, source string) {
	if m == nil {
		return
	}
	m.ResolveSource.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("source", source),
	))
}

// RecordFetch 記錄外部化學資料查詢結果
func (m *Metrics) RecordFetch(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ChemistryFetch.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordLLM 記錄語言模型請求
func (m *Metrics) RecordLLM(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.LLMRequest.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

// RecordRateLimit 記錄限流判定
func (m *Metrics) RecordRateLimit(ctx context.Context, endpoint string, allowed bool) {
	if m == nil {
		return
	}
	m.RateLimitDecision.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Bool("allowed", allowed),
	))
}
