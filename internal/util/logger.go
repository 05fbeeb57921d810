package util

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LoggerOptions selects the encoder and the fields stamped on every entry
type LoggerOptions struct {
	Service string
	Env     string
	// Level overrides the env default (info in production, debug otherwise)
	Level string
}

func loggerConfig(opts LoggerOptions) (zap.Config, error) {
	var config zap.Config
	if opts.Env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if opts.Level != "" {
		level, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return config, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		config.Level = level
	}

	config.InitialFields = map[string]interface{}{
		"service": opts.Service,
		"env":     opts.Env,
	}
	return config, nil
}

// InitLogger builds the global logger and replaces zap's globals with it
func InitLogger(opts LoggerOptions) error {
	config, err := loggerConfig(opts)
	if err != nil {
		return err
	}

	built, err := config.Build()
	if err != nil {
		return err
	}

	logger = built
	zap.ReplaceGlobals(logger)
	return nil
}

// GetLogger returns the global logger
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SyncLogger flushes any buffered log entries
func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
