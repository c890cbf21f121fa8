package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSlogAdapter_WithNil(t *testing.T) {
	adapter := NewSlogAdapter(nil)
	assert.NotNil(t, adapter.Logger())
}

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	adapter.Debug("d", "k", 1)
	adapter.Info("i", "k", 2)
	adapter.Warn("w", "k", 3)
	adapter.Error("e", "k", 4)

	out := buf.String()
	for _, want := range []string{"level=DEBUG msg=d k=1", "level=INFO msg=i k=2", "level=WARN msg=w k=3", "level=ERROR msg=e k=4"} {
		assert.Contains(t, out, want)
	}
	assert.Same(t, logger, adapter.Logger())
}

func TestSlogAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, nil)))

	scoped := adapter.With(KeyCalendar, "primary")
	scoped.Info("booked")
	adapter.Info("plain")

	out := buf.String()
	assert.Contains(t, out, "msg=booked calendar_id=primary")
	assert.NotContains(t, out, "msg=plain calendar_id")
}

func TestDefaultLogger(t *testing.T) {
	assert.NotNil(t, DefaultLogger().Logger())
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
}
