package logger

import (
	"testing"
	"victorina_backend/internal/config"

	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		mode  string
		want  zapcore.Level
	}{
		{"explicit", "warn", "debug", zapcore.WarnLevel},
		{"debug mode fallback", "", "debug", zapcore.DebugLevel},
		{"release fallback", "", "release", zapcore.InfoLevel},
		{"invalid level", "loud", "release", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Log.Level = tt.level
			cfg.Server.Mode = tt.mode
			SetLevel(cfg)
			if got := Level(); got != tt.want {
				t.Fatalf("level = %v, want %v", got, tt.want)
			}
		})
	}
}
