package logger

import (
	"fmt"
	"log/slog"
)

// StyledLogger wraps slog.Logger with a couple of domain-specific
// convenience methods, the way the teacher's StyledLogger adds
// WarnWithEndpoint / InfoHealthStatus on top of plain slog calls.
type StyledLogger struct {
	logger *slog.Logger
}

func NewStyledLogger(logger *slog.Logger) *StyledLogger {
	return &StyledLogger{logger: logger}
}

func (sl *StyledLogger) Debug(msg string, args ...any) { sl.logger.Debug(msg, args...) }
func (sl *StyledLogger) Info(msg string, args ...any)  { sl.logger.Info(msg, args...) }
func (sl *StyledLogger) Warn(msg string, args ...any)  { sl.logger.Warn(msg, args...) }
func (sl *StyledLogger) Error(msg string, args ...any) { sl.logger.Error(msg, args...) }

// WarnURL logs a warning tagged with the offending upstream URL, the way
// the teacher tags warnings with an endpoint name.
func (sl *StyledLogger) WarnURL(msg string, url string, args ...any) {
	sl.logger.Warn(fmt.Sprintf("%s %s", msg, url), args...)
}

// ErrorURL logs an error tagged with the offending upstream URL.
func (sl *StyledLogger) ErrorURL(msg string, url string, args ...any) {
	sl.logger.Error(fmt.Sprintf("%s %s", msg, url), args...)
}

// InfoProbe logs a probe outcome for one URL at INFO, tagging availability
// so the pretty and JSON handlers both render it consistently.
func (sl *StyledLogger) InfoProbe(url string, available bool, args ...any) {
	status := "unavailable"
	if available {
		status = "available"
	}
	allArgs := append([]any{"url", url, "status", status}, args...)
	sl.logger.Info("probe result", allArgs...)
}

// InfoProgress logs the "progress X/Y" line emitted every 10 probe
// completions by ProbeMany (§4.B).
func (sl *StyledLogger) InfoProgress(done, total int) {
	sl.logger.Info(fmt.Sprintf("progress %d/%d", done, total))
}

func (sl *StyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *StyledLogger) With(args ...any) *StyledLogger {
	return &StyledLogger{logger: sl.logger.With(args...)}
}

// NewWithLogger builds both the plain slog.Logger and its StyledLogger
// wrapper from one Config, mirroring the teacher's NewWithTheme.
func NewWithLogger(cfg *Config) (*slog.Logger, *StyledLogger, func(), error) {
	base, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return base, NewStyledLogger(base), cleanup, nil
}
