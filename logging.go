package authstate

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
)

// Logger is the leveled, structured logging contract used across the package.
// It aliases the glog contract so any glog-compatible logger drops in.
type Logger = glog.Logger

// LoggerProvider resolves named child loggers, e.g. "authstate.listener".
type LoggerProvider = glog.LoggerProvider

// LegacyLogger is the printf-style contract older integrations expose.
type LegacyLogger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// FormattedLogger is the *f-suffixed printf contract.
type FormattedLogger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

func defaultLogger() Logger {
	return glog.NewLogger(
		glog.WithName("authstate"),
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}

// ResolveLogger resolves a named logger from the given provider, falling back
// to the given logger, and finally to the package default. The returned
// provider always yields a non-nil logger for any name.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if logger == nil && provider != nil {
		logger = provider.GetLogger(name)
	}

	if logger == nil {
		logger = defaultLogger()
	}

	if provider == nil {
		provider = glog.ProviderFromLogger(logger)
	}

	resolved := provider.GetLogger(name)
	if resolved == nil {
		resolved = logger
	}

	return fallbackLoggerProvider{provider: provider, fallback: resolved}, resolved
}

type fallbackLoggerProvider struct {
	provider LoggerProvider
	fallback Logger
}

func (p fallbackLoggerProvider) GetLogger(name string) Logger {
	if p.provider != nil {
		if logger := p.provider.GetLogger(name); logger != nil {
			return logger
		}
	}
	return p.fallback
}

// FromLegacyLogger adapts a LegacyLogger to the Logger contract. Trace maps
// to Debug and Fatal maps to Error since the legacy contract has neither.
func FromLegacyLogger(legacy LegacyLogger) Logger {
	if legacy == nil {
		return noopLogger{}
	}
	return legacyLoggerAdapter{legacy: legacy}
}

type legacyLoggerAdapter struct {
	legacy LegacyLogger
}

func (l legacyLoggerAdapter) Trace(message string, args ...any) { l.legacy.Debug(message, args...) }
func (l legacyLoggerAdapter) Debug(message string, args ...any) { l.legacy.Debug(message, args...) }
func (l legacyLoggerAdapter) Info(message string, args ...any)  { l.legacy.Info(message, args...) }
func (l legacyLoggerAdapter) Warn(message string, args ...any)  { l.legacy.Warn(message, args...) }
func (l legacyLoggerAdapter) Error(message string, args ...any) { l.legacy.Error(message, args...) }
func (l legacyLoggerAdapter) Fatal(message string, args ...any) { l.legacy.Error(message, args...) }
func (l legacyLoggerAdapter) WithContext(context.Context) Logger {
	return l
}

// FromFormattedLogger adapts a FormattedLogger to the Logger contract.
func FromFormattedLogger(formatted FormattedLogger) Logger {
	if formatted == nil {
		return noopLogger{}
	}
	return formattedLoggerAdapter{formatted: formatted}
}

type formattedLoggerAdapter struct {
	formatted FormattedLogger
}

func (l formattedLoggerAdapter) Trace(message string, args ...any) {
	l.formatted.Debugf(message, args...)
}
func (l formattedLoggerAdapter) Debug(message string, args ...any) {
	l.formatted.Debugf(message, args...)
}
func (l formattedLoggerAdapter) Info(message string, args ...any) {
	l.formatted.Infof(message, args...)
}
func (l formattedLoggerAdapter) Warn(message string, args ...any) {
	l.formatted.Warnf(message, args...)
}
func (l formattedLoggerAdapter) Error(message string, args ...any) {
	l.formatted.Errorf(message, args...)
}
func (l formattedLoggerAdapter) Fatal(message string, args ...any) {
	l.formatted.Errorf(message, args...)
}
func (l formattedLoggerAdapter) WithContext(context.Context) Logger {
	return l
}

// ToFormattedLogger exposes a Logger through the FormattedLogger contract,
// rendering the format string before handing it to the structured logger.
func ToFormattedLogger(logger Logger) FormattedLogger {
	if logger == nil {
		logger = noopLogger{}
	}
	return structuredFormattedAdapter{logger: logger}
}

type structuredFormattedAdapter struct {
	logger Logger
}

func (l structuredFormattedAdapter) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
func (l structuredFormattedAdapter) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}
func (l structuredFormattedAdapter) Warnf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l structuredFormattedAdapter) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

type noopLogger struct{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}
func (noopLogger) WithContext(context.Context) Logger {
	return noopLogger{}
}
