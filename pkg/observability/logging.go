package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. The returned level can be changed at
// runtime and affects every logger derived from the result.
func NewLogger(environment, level string) (*zap.Logger, zap.AtomicLevel, error) {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	atomic := zap.NewAtomicLevelAt(ParseLevel(level, cfg.Level.Level()))
	cfg.Level = atomic

	logger, err := cfg.Build()
	if err != nil {
		return nil, atomic, err
	}
	return logger, atomic, nil
}

// ParseLevel parses a level name, returning fallback when it is not recognised
func ParseLevel(level string, fallback zapcore.Level) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fallback
	}
	return l
}
