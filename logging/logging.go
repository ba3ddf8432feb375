// Package logging - Construction of the process-wide zap logger.
package logging

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formats accepted by NewLogger.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ErrInvalidLogFormat is returned for formats other than console and json.
var ErrInvalidLogFormat = errors.New("invalid log format")

// NewConfig returns the zap configuration for the given level and format.
// The console format colours levels, the json format does not.
func NewConfig(level, format string) (zap.Config, error) {
	lvl := zap.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return zap.Config{}, errors.Wrapf(err, "parse log level %q", level)
		}
		lvl = parsed
	}

	levelEncoder := zapcore.CapitalColorLevelEncoder
	switch strings.ToLower(format) {
	case "", FormatConsole:
		format = FormatConsole
	case FormatJSON:
		format = FormatJSON
		levelEncoder = zapcore.CapitalLevelEncoder
	default:
		return zap.Config{}, errors.Wrapf(ErrInvalidLogFormat, "%q", format)
	}

	return zap.Config{
		Level:    zap.NewAtomicLevelAt(lvl),
		Encoding: format,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    levelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}, nil
}

// NewLogger builds a sugared logger writing to stderr.
//
// Arguments:
//   - level: debug, info, warn or error. Empty means info.
//   - format: console or json. Empty means console.
//
// Returns:
//   - *zap.SugaredLogger: The root logger; components call Named on it.
//   - error: An invalid level or format.
func NewLogger(level, format string) (*zap.SugaredLogger, error) {
	cfg, err := NewConfig(level, format)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger.Sugar(), nil
}
