package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedZap(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLogger(zap.New(core)), logs
}

func TestZapLogger_Levels(t *testing.T) {
	log, logs := newObservedZap(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	entries := logs.All()
	require.Len(t, entries, 4)

	want := []struct {
		level zapcore.Level
		msg   string
		key   string
	}{
		{zapcore.DebugLevel, "dbg", "a"},
		{zapcore.InfoLevel, "inf", "b"},
		{zapcore.WarnLevel, "wrn", "c"},
		{zapcore.ErrorLevel, "err", "d"},
	}
	for i, w := range want {
		assert.Equal(t, w.level, entries[i].Level)
		assert.Equal(t, w.msg, entries[i].Message)
		assert.Contains(t, entries[i].ContextMap(), w.key)
	}
}

func TestZapLogger_With_AddsFields(t *testing.T) {
	log, logs := newObservedZap(t)

	log.With("module", "sessions").Info(context.Background(), "hello", "session_id", "s1")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "sessions", fields["module"])
	assert.Equal(t, "s1", fields["session_id"])
}

func TestNop_DoesNotPanic(t *testing.T) {
	var l Logger = Nop{}
	ctx := context.TODO()
	l.With("k", "v").Info(ctx, "ok")
	l.Debug(ctx, "ok")
	l.Warn(ctx, "ok")
	l.Error(ctx, "ok")
}

func TestZapLogger_ContextArgs(t *testing.T) {
	log, logs := newObservedZap(t)

	ctx := ContextWith(context.Background(), "user_id", "user_1")
	log.Warn(ctx, "cascade step failed", "patient_id", "patient_1")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "user_1", fields["user_id"])
	assert.Equal(t, "patient_1", fields["patient_id"])
}
