package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Freeeeeet/coderelay_bot/internal/service"
)

func TestErrorMessageKnown(t *testing.T) {
	wrapped := fmt.Errorf("owner @ghost: %w", service.ErrNotFound)
	text, ok := ErrorMessage(wrapped)
	assert.True(t, ok)
	assert.Contains(t, text, "не найден")

	text, ok = ErrorMessage(&service.RateLimitError{Action: "get_code", RetryAfter: 41500 * time.Millisecond})
	assert.True(t, ok)
	assert.Contains(t, text, "42 секунды")

	text, ok = ErrorMessage(fmt.Errorf("%w: dial tcp: i/o timeout", service.ErrConnectionFailed))
	assert.True(t, ok)
	assert.NotContains(t, text, "dial tcp")
}

func TestReportHidesUnknownDetail(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	err := errors.New("open /home/bot/.env: password=hunter2")
	text := Report(logger, "get_code", 42, err)

	assert.NotContains(t, text, "hunter2")
	assert.NotContains(t, text, ".env")
	assert.Contains(t, text, "Код ошибки")

	entries := logs.FilterMessage("Request failed").All()
	if assert.Len(t, entries, 1) {
		ref := entries[0].ContextMap()["ref"]
		assert.Contains(t, text, ref)
	}
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "🔒 Доступ запрещён!", StripHTML("🔒 <b>Доступ запрещён!</b>"))
}
