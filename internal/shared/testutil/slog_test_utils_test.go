package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler_CapturesRecords(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("test message", slog.String("key", "value"))
	logger.Error("error message", slog.Int("code", 500))

	require.Equal(t, 2, handler.Count())
	assert.True(t, handler.ContainsMessage("test message"))
	assert.True(t, handler.ContainsAttr("key", "value"))
}

func TestBufferedSlogHandler_FiltersByLevel(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Debug("debug msg")
	logger.Info("info msg")
	logger.Warn("warn msg")
	logger.Error("error msg")

	assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
}

func TestBufferedSlogHandler_WithAttrsSharedBuffer(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.With(slog.String("component", "worker")).Info("started")

	require.Equal(t, 1, handler.Count())
	assert.True(t, handler.ContainsAttr("component", "worker"))
}

func TestBufferedSlogHandler_Clear(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("message 1")
	logger.Info("message 2")
	require.Equal(t, 2, handler.Count())

	handler.Clear()
	assert.Equal(t, 0, handler.Count())
}

func TestAssertionHelpers(t *testing.T) {
	logger, handler := NewTestLogger(t)

	logger.Info("important message", slog.String("component", "test"))
	logger.Warn("warning message", slog.Int("retry", 3))

	AssertLogContains(t, handler, slog.LevelInfo, "important")
	AssertLogAttr(t, handler, "component", "test")
	AssertNoErrors(t, handler)

	logger.Error("something went wrong")
	assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
}

func TestBufferedSlogHandler_ConcurrentUse(t *testing.T) {
	logger, handler := NewTestLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("concurrent log", slog.Int("goroutine", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, handler.Count())
}
