package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"":        InfoLevel,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewWriterLogger(&out, &errOut)

	logger.Debug("hidden")
	logger.Info("shown", Fields{"b": 2, "a": 1})
	logger.Warn("careful")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[INFO] shown a=1 b=2")
	assert.Contains(t, errOut.String(), "[WARN] careful")

	child := logger.WithFields(Fields{"component": "runner"})
	logger.SetLevel(DebugLevel)
	child.Debug("now visible")
	assert.Contains(t, out.String(), "[DEBUG] runner: now visible")
}

func TestDefaultLogger_WithFieldsAndContext(t *testing.T) {
	var out bytes.Buffer
	logger := NewWriterLogger(&out, &out)

	ctx := ContextWithFields(context.Background(), Fields{"tick": 3})
	logger.WithFields(Fields{"component": "window"}).WithContext(ctx).Info("pushed")

	assert.Contains(t, out.String(), "[INFO] window: pushed tick=3")
	assert.NotContains(t, out.String(), "component=")
}

func TestDefaultLogger_ErrorIncludesCause(t *testing.T) {
	var out bytes.Buffer
	logger := NewWriterLogger(&out, &out)

	logger.Error(errors.New("boom"), "failed")
	assert.Contains(t, out.String(), "[ERROR] failed: boom")
}

func TestContextWithFields_Merges(t *testing.T) {
	ctx := ContextWithFields(context.Background(), Fields{"a": 1})
	ctx = ContextWithFields(ctx, Fields{"b": 2})

	fields := FieldsFromContext(ctx)
	assert.Equal(t, Fields{"a": 1, "b": 2}, fields)
	assert.Nil(t, FieldsFromContext(context.Background()))
}

func TestZapLogger_ForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLoggerFrom(zap.New(core))

	logger.WithFields(Fields{"component": "processor"}).Info("tick", Fields{"seq": 7})
	logger.Error(errors.New("bad"), "failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "tick", entries[0].Message)
	assert.Equal(t, "processor", entries[0].ContextMap()["component"])
	assert.EqualValues(t, 7, entries[0].ContextMap()["seq"])
	assert.Equal(t, "bad", entries[1].ContextMap()["error"])
}

func TestZapLogger_SetLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLoggerFrom(zap.New(core))

	logger.SetLevel(WarnLevel)
	logger.Info("dropped")
	logger.Warn("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestNewZapLogger_Formats(t *testing.T) {
	_, err := NewZapLogger(InfoLevel, "json")
	assert.NoError(t, err)

	_, err = NewZapLogger(InfoLevel, "console")
	assert.NoError(t, err)

	_, err = NewZapLogger(InfoLevel, "xml")
	assert.Error(t, err)
}
