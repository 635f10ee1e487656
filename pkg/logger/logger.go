package logger

import (
	"os"
	"victorina_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log discards everything until InitLogger runs.
var Log = zap.NewNop()

var level = zap.NewAtomicLevel()

// InitLogger writes JSON to a rotating file and a console rendering to
// stdout, both gated by the same runtime level.
func InitLogger(cfg *config.Config) {
	SetLevel(cfg)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.MillisDurationEncoder

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if cfg.Server.Mode == "release" {
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	filename := cfg.Log.File
	if filename == "" {
		filename = "logs/app.log"
	}
	file := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
	)
	Log = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)).
		With(zap.String("service", "victorina"))
}

// SetLevel applies log.level from cfg. Without a valid level it uses debug
// in debug mode and info otherwise. Safe to call on every config reload.
func SetLevel(cfg *config.Config) {
	if cfg.Log.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err == nil {
			return
		}
	}
	if cfg.Server.Mode == "debug" {
		level.SetLevel(zap.DebugLevel)
		return
	}
	level.SetLevel(zap.InfoLevel)
}

// Level reports the current runtime level.
func Level() zapcore.Level {
	return level.Level()
}
