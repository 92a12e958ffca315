package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/cwrk-planet/trome-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDetectEnv(t *testing.T) {
	t.Setenv("APP_ENV", "")
	assert.Equal(t, logger.EnvDev, logger.DetectEnv())

	t.Setenv("APP_ENV", "staging")
	assert.Equal(t, logger.EnvStage, logger.DetectEnv())

	t.Setenv("APP_ENV", " Production ")
	assert.Equal(t, logger.EnvProd, logger.DetectEnv())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel("loud"))
}

func TestInit_DevStd_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service:   "demo",
		Version:   "v0.0.1",
		Env:       logger.EnvDev,
		Backend:   logger.BackendStd,
		Level:     slog.LevelDebug,
		AddSource: true,
		Output:    &buf,
	})
	slog.Info("Hello world")

	out := buf.String()
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"), "expected text output, got %s", out)
	assert.Contains(t, out, "Hello world")
	assert.Contains(t, out, "service=demo")
	assert.Contains(t, out, "env=dev")
}

func TestInit_StageStd_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := logger.Init(logger.Config{Service: "demo", Env: logger.EnvStage, Backend: logger.BackendStd, Output: &buf})
	l.Debug("hidden")
	l.Info("shown")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
	assert.Equal(t, "shown", m["msg"])
	assert.Equal(t, "stage", m["env"])
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{
		Service:          "demo",
		Version:          "1.2.3",
		Env:              logger.EnvProd,
		Backend:          logger.BackendZap,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
		Output:           &buf,
	})
	slog.Info("booted", slog.String("k", "v"))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
	assert.Equal(t, "booted", m["msg"])
	assert.Equal(t, "demo", m["service"])
	assert.Equal(t, "prod", m["env"])
	assert.Equal(t, "1.2.3", m["version"])
	assert.Equal(t, "INFO", m["level"])
	assert.Equal(t, "v", m["k"])
	assert.NotEmpty(t, m["instance_id"])
}

func TestInit_DefaultBackendByEnv(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Config{Env: logger.EnvProd, Output: &buf})
	slog.Warn("zap by default")

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
	assert.Equal(t, "WARN", m["level"])
	assert.Equal(t, "trome-service", m["service"])
}

func TestTraceHandler_AddsTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	for _, backend := range []logger.Backend{logger.BackendStd, logger.BackendZap} {
		t.Run(string(backend), func(t *testing.T) {
			var buf bytes.Buffer
			l := logger.Init(logger.Config{
				Service:          "demo",
				Env:              logger.EnvProd,
				Backend:          backend,
				SampleInitial:    100000,
				SampleThereafter: 100000,
				Output:           &buf,
			})
			l.InfoContext(ctx, "with trace")

			var m map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &m), buf.String())
			assert.Equal(t, "with trace", m["msg"])
			assert.Equal(t, span.SpanContext().TraceID().String(), m["trace_id"])
			assert.Equal(t, span.SpanContext().SpanID().String(), m["span_id"])
		})
	}
}

func TestAttrsFromCtx_NoSpan(t *testing.T) {
	assert.Nil(t, logger.AttrsFromCtx(context.Background()))
}
