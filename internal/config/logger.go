// Package config builds the process-wide logger from Viper settings.
package config

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger creates a configured Zap logger from Viper settings.
// Reads "logging.level" (debug, info, warn, error; default "info"),
// "logging.format" (json, console; default "json") and "logging.file";
// when a file is set, output goes there with size-based rotation instead
// of stderr.
func NewLogger(v *viper.Viper) (*zap.Logger, error) {
	level := v.GetString("logging.level")
	format := v.GetString("logging.format")

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q: must be \"json\" or \"console\"", format)
	}

	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	if file := v.GetString("logging.file"); file != "" {
		return newFileLogger(v, cfg, zapLevel, file), nil
	}
	return cfg.Build()
}

// newFileLogger writes to a rotating log file instead of stderr.
func newFileLogger(v *viper.Viper, cfg zap.Config, level zapcore.Level, file string) *zap.Logger {
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    v.GetInt("logging.max_size_mb"),
		MaxBackups: v.GetInt("logging.max_backups"),
		MaxAge:     v.GetInt("logging.max_age_days"),
		Compress:   true,
	})

	var encoder zapcore.Encoder
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	}

	core := zapcore.NewCore(encoder, sink, level)
	return zap.New(core)
}
