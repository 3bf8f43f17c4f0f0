package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIHandler_Colors(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(*slog.Logger)
		color   string
	}{
		{"info", func(l *slog.Logger) { l.Info("cached") }, colorGreen},
		{"warn", func(l *slog.Logger) { l.Warn("upstream failed") }, colorYellow},
		{"error", func(l *slog.Logger) { l.Error("fatal error") }, colorRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(slog.New(NewCLIHandler(&buf, slog.LevelInfo)))

			out := buf.String()
			assert.True(t, strings.HasPrefix(out, tt.color))
			assert.True(t, strings.HasSuffix(out, colorReset+"\n"))
		})
	}
}

func TestCLIHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelDebug)).With("identity", "2vxsx-fae")

	logger.Debug("reputation score cached", "score", 12.5)
	assert.Contains(t, buf.String(), "reputation score cached: identity=2vxsx-fae score=12.5")
}

func TestCLIHandler_Group(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo)).WithGroup("fetch")

	logger.Info("github request completed")
	assert.Contains(t, buf.String(), "[fetch] github request completed")
}

func TestCLIHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelWarn))

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_DefaultsToCLI(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "").Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), colorGreen+"hello"))

	buf.Reset()
	New(&buf, "info", FormatCLI).Error("boom")
	assert.True(t, strings.HasPrefix(buf.String(), colorRed+"boom"))
}
