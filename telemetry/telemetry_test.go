package telemetry

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTELHook_Run(t *testing.T) {
	tests := []struct {
		name        string
		setupCtx    func() context.Context
		expectTrace bool
	}{
		{
			name: "no context",
			setupCtx: func() context.Context {
				return nil
			},
			expectTrace: false,
		},
		{
			name: "context without span",
			setupCtx: func() context.Context {
				return context.Background()
			},
			expectTrace: false,
		},
		{
			name: "context with valid span",
			setupCtx: func() context.Context {
				return createContextWithSpan()
			},
			expectTrace: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			hook := OTELHook{}
			event := logger.Info().Ctx(tt.setupCtx())

			hook.Run(event, zerolog.InfoLevel, "test message")
			event.Msg("test")

			if tt.expectTrace {
				assert.Contains(t, buf.String(), "trace_id")
				assert.Contains(t, buf.String(), "span_id")
			} else {
				assert.NotContains(t, buf.String(), "trace_id")
				assert.NotContains(t, buf.String(), "span_id")
			}
		})
	}
}

// createContextWithSpan creates a context with tracing span
func createContextWithSpan() context.Context {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)
	tracer := provider.Tracer("test")
	ctx, _ := tracer.Start(context.Background(), "test-span")
	return ctx
}

func TestOTELHook_ErrorLevel(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)
	tracer := provider.Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-span")

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	hook := OTELHook{}
	event := logger.Error().Ctx(ctx)

	hook.Run(event, zerolog.ErrorLevel, "error message")
	event.Msg("test error")

	// Verify span status was set to error
	span.End()
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "error message", spans[0].Status.Description)
}

func TestNewLogger(t *testing.T) {
	// Redirect stdout to capture output
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	logger := NewLogger("test-service")
	logger.Info().Msg("test message")

	_ = w.Close()
	os.Stdout = oldStdout

	buf := make([]byte, 1024)
	n, _ := r.Read(buf)
	output := string(buf[:n])

	assert.NotNil(t, logger)
	assert.Contains(t, output, "test-service")
	assert.Contains(t, output, "test message")
}

func TestLogger_WithContext(t *testing.T) {
	logger := NewLogger("test-service")
	ctx := context.Background()

	contextLogger := logger.WithContext(ctx)
	assert.NotNil(t, contextLogger)
}

func TestLogger_LogSpanStart(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: zerolog.New(&buf)}
	ctx := context.Background()

	attrs := []attribute.KeyValue{
		attribute.String("rule.id", "admin_count"),
		attribute.Int("rules.total", 3),
	}

	logger.LogSpanStart(ctx, "vigil.audit", attrs...)

	output := buf.String()
	assert.Contains(t, output, "span started")
	assert.Contains(t, output, "vigil.audit")
	assert.Contains(t, output, "admin_count")
	assert.Contains(t, output, "3")
}

func TestLogger_LogSpanEnd(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectError bool
	}{
		{name: "successful span", err: nil, expectError: false},
		{name: "failed span", err: assert.AnError, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := &Logger{Logger: zerolog.New(&buf)}

			logger.LogSpanEnd(context.Background(), "vigil.audit", tt.err)

			output := buf.String()
			assert.Contains(t, output, "vigil.audit")

			if tt.expectError {
				assert.Contains(t, output, "span failed")
				assert.Contains(t, output, "level\":\"error")
			} else {
				assert.Contains(t, output, "span completed")
				assert.Contains(t, output, "level\":\"debug")
			}
		})
	}
}

func TestAddAttributeToEvent(t *testing.T) {
	tests := []struct {
		name     string
		attr     attribute.KeyValue
		expected string
	}{
		{
			name:     "string attribute",
			attr:     attribute.String("key", "value"),
			expected: "\"key\":\"value\"",
		},
		{
			name:     "int64 attribute",
			attr:     attribute.Int64("count", 42),
			expected: "\"count\":42",
		},
		{
			name:     "float64 attribute",
			attr:     attribute.Float64("rate", 3.14),
			expected: "\"rate\":3.14",
		},
		{
			name:     "bool attribute",
			attr:     attribute.Bool("enabled", true),
			expected: "\"enabled\":true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			event := logger.Info()

			event = addAttributeToEvent(event, tt.attr)
			event.Msg("test")

			assert.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestLogger_ConvenienceMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: zerolog.New(&buf)}
	ctx := context.Background()

	logger.LogRuleError(ctx, "admin_count", assert.AnError)
	assert.Contains(t, buf.String(), "rule evaluation failed")
	assert.Contains(t, buf.String(), "admin_count")
	assert.Contains(t, buf.String(), "level\":\"error")

	buf.Reset()

	logger.LogFetchComplete(ctx, "Acme", 12, 34)
	assert.Contains(t, buf.String(), "snapshot fetched")
	assert.Contains(t, buf.String(), "Acme")
	assert.Contains(t, buf.String(), "12")
	assert.Contains(t, buf.String(), "34")

	buf.Reset()

	logger.LogAuditComplete(ctx, 3, 1, 0, 15.5)
	assert.Contains(t, buf.String(), "audit completed")
	assert.Contains(t, buf.String(), "violations")
	assert.Contains(t, buf.String(), "15.5")

	buf.Reset()

	logger.LogStoreError(ctx, "append", assert.AnError)
	assert.Contains(t, buf.String(), "store operation failed")
	assert.Contains(t, buf.String(), "append")
	assert.Contains(t, buf.String(), "level\":\"error")
}

func TestInitMetrics(t *testing.T) {
	provider := metric.NewMeterProvider()
	otel.SetMeterProvider(provider)
	Meter = provider.Meter("test")

	err := initMetrics()
	assert.NoError(t, err)

	assert.NotNil(t, RulesEvaluated)
	assert.NotNil(t, ViolationsFound)
	assert.NotNil(t, EvalErrors)
	assert.NotNil(t, SnapshotsFetched)
	assert.NotNil(t, AuditDuration)
	assert.NotNil(t, SnapshotRevision)
}

func TestMetricRecording(t *testing.T) {
	metricProvider := metric.NewMeterProvider()
	otel.SetMeterProvider(metricProvider)
	Meter = metricProvider.Meter("test")

	err := initMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	RulesEvaluated.Add(ctx, 3)
	ViolationsFound.Add(ctx, 1)
	EvalErrors.Add(ctx, 0)
	SnapshotsFetched.Add(ctx, 1)
	AuditDuration.Record(ctx, 0.25)
	SnapshotRevision.Record(ctx, 7)

	// Recording must not panic; the instruments stay usable
	assert.NotNil(t, RulesEvaluated)
}

func TestApplyConfigDefaults(t *testing.T) {
	oldEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = os.Unsetenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	defer func() {
		if oldEndpoint != "" {
			_ = os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", oldEndpoint)
		}
	}()

	cfg := applyConfigDefaults(Config{})
	assert.Equal(t, "vigil", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.OTELEndpoint)

	cfg = applyConfigDefaults(Config{ServiceName: "custom", OTELEndpoint: "collector:4317"})
	assert.Equal(t, "custom", cfg.ServiceName)
	assert.Equal(t, "collector:4317", cfg.OTELEndpoint)
}
