// Package logging builds the zap logger used by the binaries and adapts it to
// shardmanager.Logger.
package logging

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/getpup/shardmanager"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "SHARDMANAGER_LOG_LEVEL"

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string

	// Development switches to the human-readable console encoder.
	Development bool
}

// New builds a zap logger. EnvLogLevel takes precedence over opts.Level.
func New(opts Options) (*zap.Logger, error) {
	level := opts.Level
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}

	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	if opts.Development {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	return config.Build()
}

func parseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Zap adapts a zap logger to shardmanager.Logger.
type Zap struct {
	sugar *zap.SugaredLogger
}

var _ shardmanager.Logger = (*Zap)(nil)

// NewZap wraps l. A nil l yields a no-op logger.
func NewZap(l *zap.Logger) *Zap {
	if l == nil {
		l = zap.NewNop()
	}
	return &Zap{sugar: l.Sugar()}
}

// Debug implements shardmanager.Logger.
func (z *Zap) Debug(ctx context.Context, msg string, keyvals ...interface{}) {
	z.sugar.Debugw(msg, keyvals...)
}

// Info implements shardmanager.Logger.
func (z *Zap) Info(ctx context.Context, msg string, keyvals ...interface{}) {
	z.sugar.Infow(msg, keyvals...)
}

// Error implements shardmanager.Logger.
func (z *Zap) Error(ctx context.Context, msg string, keyvals ...interface{}) {
	z.sugar.Errorw(msg, keyvals...)
}

// Sync flushes buffered entries.
func (z *Zap) Sync() error {
	return z.sugar.Sync()
}
