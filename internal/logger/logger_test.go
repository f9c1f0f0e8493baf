package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"Warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextHelpers checks that names and fields travel with the context logger.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "controller")
	ctx = WithKV(ctx, "alarm_id", "a-1")

	InfoKV(ctx, "Alarm armed", "fire_at", "07:00")
	Warnf(ctx, "Sound %s missing", "wake.wav")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "controller", entries[0].LoggerName)
	require.Equal(t, "Alarm armed", entries[0].Message)
	require.Equal(t, "a-1", entries[0].ContextMap()["alarm_id"])
	require.Equal(t, "07:00", entries[0].ContextMap()["fire_at"])
	require.Equal(t, "Sound wake.wav missing", entries[1].Message)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

// TestFromContext_FallsBackToGlobal verifies a bare context uses the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
	//nolint:staticcheck // A nil context must not panic.
	require.Same(t, Logger(), FromContext(nil))
}
