// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnvVar holds the log level name read at start-up.
const LevelEnvVar = "SQLROLL_LOG_LEVEL"

// ErrUnknownLevel is returned by ParseLevel for names it does not recognise.
var ErrUnknownLevel = errors.New("unknown log level")

type loggerKey struct{}

// LevelVar is shared by the loggers built in this package.
var LevelVar = &slog.LevelVar{}

// DefaultLogger is used when the context carries no logger.
var DefaultLogger = NewPretty(os.Stdout)

func init() {
	lvl, err := ParseLevel(os.Getenv(LevelEnvVar))
	if err != nil {
		lvl = slog.LevelInfo
	}

	LevelVar.Set(lvl)
}

// NewPretty returns a console logger writing to w.
func NewPretty(w io.Writer) *slog.Logger {
	return slog.New(NewPrettyHandler(&slog.HandlerOptions{Level: LevelVar},
		WithDestinationWriter(w),
		WithAutoColour(),
	))
}

// NewJSON returns a logger emitting one JSON object per line to w.
func NewJSON(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: LevelVar}))
}

// New returns a copy of ctx carrying logger. A nil logger means DefaultLogger.
func New(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = DefaultLogger
	}

	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger carried by ctx, or DefaultLogger.
func Logger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	if !ok || logger == nil {
		return DefaultLogger
	}

	return logger
}

// Debug logs at debug level using the logger in ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Debug(msg, args...)
}

// Info logs at info level using the logger in ctx.
func Info(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Info(msg, args...)
}

// Warn logs at warn level using the logger in ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Warn(msg, args...)
}

// Error logs at error level using the logger in ctx.
func Error(ctx context.Context, msg string, args ...any) {
	Logger(ctx).Error(msg, args...)
}

// ParseLevel converts DEBUG, INFO, WARN or ERROR (any case) to a slog.Level.
// The empty string maps to info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}
