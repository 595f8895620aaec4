// Package logger builds the zap loggers used across the server and
// carries a request-scoped logger through context.Context.
package logger

import (
    "os"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// Config holds logger configuration.
type Config struct {
    Level      string // debug, info, warn, error
    Format     string // json, console
    Output     string // stdout, stderr, or file path
    TimeFormat string
}

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DefaultConfig is the development configuration.
func DefaultConfig() *Config {
    return &Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: defaultTimeFormat}
}

// ProductionConfig logs JSON to stdout.
func ProductionConfig() *Config {
    return &Config{Level: "info", Format: "json", Output: "stdout", TimeFormat: defaultTimeFormat}
}

// New creates a zap logger from cfg.  Empty fields take their defaults.
func New(cfg *Config) (*zap.Logger, error) {
    if cfg == nil {
        cfg = DefaultConfig()
    }
    if cfg.TimeFormat == "" {
        cfg.TimeFormat = defaultTimeFormat
    }
    writer, err := createWriter(cfg.Output)
    if err != nil {
        return nil, err
    }
    core := zapcore.NewCore(createEncoder(cfg), writer, parseLevel(cfg.Level))
    return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// NewForEnvironment picks the production or development preset by env
// and overrides level and format when they are non-empty.
func NewForEnvironment(env, level, format string) (*zap.Logger, error) {
    cfg := DefaultConfig()
    if env == "production" {
        cfg = ProductionConfig()
    }
    if level != "" {
        cfg.Level = level
    }
    if format != "" {
        cfg.Format = format
    }
    return New(cfg)
}

func parseLevel(level string) zapcore.Level {
    switch strings.ToLower(level) {
    case "debug":
        return zapcore.DebugLevel
    case "warn", "warning":
        return zapcore.WarnLevel
    case "error":
        return zapcore.ErrorLevel
    default:
        return zapcore.InfoLevel
    }
}

func createEncoder(cfg *Config) zapcore.Encoder {
    ec := zapcore.EncoderConfig{
        TimeKey:        "time",
        LevelKey:       "level",
        NameKey:        "logger",
        CallerKey:      "caller",
        FunctionKey:    zapcore.OmitKey,
        MessageKey:     "msg",
        StacktraceKey:  "stacktrace",
        LineEnding:     zapcore.DefaultLineEnding,
        EncodeLevel:    zapcore.LowercaseLevelEncoder,
        EncodeTime:     zapcore.TimeEncoderOfLayout(cfg.TimeFormat),
        EncodeDuration: zapcore.MillisDurationEncoder,
        EncodeCaller:   zapcore.ShortCallerEncoder,
    }
    if cfg.Format == "console" {
        ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
        return zapcore.NewConsoleEncoder(ec)
    }
    return zapcore.NewJSONEncoder(ec)
}

func createWriter(output string) (zapcore.WriteSyncer, error) {
    switch strings.ToLower(output) {
    case "", "stdout":
        return zapcore.AddSync(os.Stdout), nil
    case "stderr":
        return zapcore.AddSync(os.Stderr), nil
    }
    f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil {
        return nil, err
    }
    return zapcore.AddSync(f), nil
}
