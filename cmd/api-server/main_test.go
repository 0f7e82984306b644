package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFinish_LogsFailureBeforeExit(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	code := finish(logger, errors.New("listen tcp :8080: address already in use"))
	assert.Equal(t, 1, code)

	entries := logs.FilterMessage("api-server failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)

	assert.Equal(t, 0, finish(logger, nil))
	assert.Equal(t, 1, logs.Len())
}
