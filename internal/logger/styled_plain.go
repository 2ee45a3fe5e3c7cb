package logger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacktogon/ringcam/internal/core/domain"
)

// PlainStyledLogger implements StyledLogger without formatting
type PlainStyledLogger struct {
	logger *slog.Logger
}

func NewPlainStyledLogger(logger *slog.Logger) *PlainStyledLogger {
	return &PlainStyledLogger{
		logger: logger,
	}
}

func (sl *PlainStyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *PlainStyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *PlainStyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *PlainStyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *PlainStyledLogger) InfoWithStatus(msg string, status string, args ...any) {
	sl.logger.Info(fmt.Sprintf("[ %s ] %s", status, msg), args...)
}

// ResetLine is a no-op, plain output is usually not a terminal
func (sl *PlainStyledLogger) ResetLine() {}

func (sl *PlainStyledLogger) InfoWithCount(msg string, count int, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s (%d)", msg, count), args...)
}

func (sl *PlainStyledLogger) InfoWithSource(msg string, source string, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, source), args...)
}

func (sl *PlainStyledLogger) WarnWithSource(msg string, source string, args ...any) {
	sl.logger.Warn(fmt.Sprintf("%s %s", msg, source), args...)
}

func (sl *PlainStyledLogger) ErrorWithSource(msg string, source string, args ...any) {
	sl.logger.Error(fmt.Sprintf("%s %s", msg, source), args...)
}

func (sl *PlainStyledLogger) InfoWithNumbers(msg string, numbers ...int64) {
	formatted := make([]string, 0, len(numbers))
	for _, num := range numbers {
		formatted = append(formatted, fmt.Sprintf("%d", num))
	}
	sl.logger.Info(fmt.Sprintf(msg, toInterfaceSlice(formatted)...))
}

func (sl *PlainStyledLogger) InfoProducerState(msg string, state domain.ProducerState, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, state.String()), args...)
}

func (sl *PlainStyledLogger) InfoWithContext(msg string, source string, ctx LogContext) {
	sl.logWithContext(slog.LevelInfo, msg, source, ctx)
}

func (sl *PlainStyledLogger) WarnWithContext(msg string, source string, ctx LogContext) {
	sl.logWithContext(slog.LevelWarn, msg, source, ctx)
}

func (sl *PlainStyledLogger) ErrorWithContext(msg string, source string, ctx LogContext) {
	sl.logWithContext(slog.LevelError, msg, source, ctx)
}

func (sl *PlainStyledLogger) logWithContext(level slog.Level, msg string, source string, ctx LogContext) {
	sl.logger.Log(context.Background(), level, fmt.Sprintf("%s %s", msg, source), ctx.UserArgs...)

	if len(ctx.DetailedArgs) > 0 {
		sl.logger.Log(detailedContext(), level, msg, detailedArgs(source, ctx)...)
	}
}

func (sl *PlainStyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *PlainStyledLogger) WithRequestID(requestID string) StyledLogger {
	return sl.With("request_id", requestID)
}

func (sl *PlainStyledLogger) WithAttrs(attrs ...slog.Attr) StyledLogger {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return sl.With(args...)
}

func (sl *PlainStyledLogger) With(args ...any) StyledLogger {
	return &PlainStyledLogger{
		logger: sl.logger.With(args...),
	}
}
