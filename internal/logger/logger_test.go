package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/neomorfeo/quoteflow/internal/logger"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logger.ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestNewWithSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithSink(logger.Config{Level: "info", Format: "json"}, zapcore.AddSync(&buf))

	l.Debug("hidden")
	l.Info("quote sent", zap.String("quote_uuid", "abc"))
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "quote sent", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "abc", entry["quote_uuid"])
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	fallback := zap.New(core).Named("fallback")
	scoped := zap.New(core).Named("scoped")

	logger.FromContext(context.Background(), fallback).Info("a")
	logger.FromContext(logger.WithContext(context.Background(), scoped), fallback).Info("b")
	logger.FromContext(context.Background(), nil).Info("dropped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "fallback", entries[0].LoggerName)
	assert.Equal(t, "scoped", entries[1].LoggerName)
}

func TestFromContext_AddsTraceIDs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.FromContext(ctx, zap.New(core)).Info("traced")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])
}
