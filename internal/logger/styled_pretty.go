package logger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/theme"
)

// PrettyStyledLogger implements StyledLogger with pterm formatting
type PrettyStyledLogger struct {
	logger *slog.Logger
	Theme  *theme.Theme
}

func NewPrettyStyledLogger(logger *slog.Logger, theme *theme.Theme) *PrettyStyledLogger {
	return &PrettyStyledLogger{
		logger: logger,
		Theme:  theme,
	}
}

func (sl *PrettyStyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *PrettyStyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *PrettyStyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *PrettyStyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *PrettyStyledLogger) InfoWithStatus(msg string, status string, args ...any) {
	sl.logger.Info(fmt.Sprintf("[ %s ] %s", sl.Theme.Success.Sprint(status), msg), args...)
}

// ResetLine clears the previous terminal line so a status line can replace it
func (sl *PrettyStyledLogger) ResetLine() {
	fmt.Print("\033[1A\033[2K")
}

func (sl *PrettyStyledLogger) InfoWithCount(msg string, count int, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, sl.Theme.Counts.Sprint("(", count, ")")), args...)
}

func (sl *PrettyStyledLogger) InfoWithSource(msg string, source string, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, sl.Theme.Source.Sprint(source)), args...)
}

func (sl *PrettyStyledLogger) WarnWithSource(msg string, source string, args ...any) {
	sl.logger.Warn(fmt.Sprintf("%s %s", msg, sl.Theme.Source.Sprint(source)), args...)
}

func (sl *PrettyStyledLogger) ErrorWithSource(msg string, source string, args ...any) {
	sl.logger.Error(fmt.Sprintf("%s %s", msg, sl.Theme.Source.Sprint(source)), args...)
}

func (sl *PrettyStyledLogger) InfoWithNumbers(msg string, numbers ...int64) {
	formatted := make([]string, 0, len(numbers))
	for _, num := range numbers {
		formatted = append(formatted, sl.Theme.Numbers.Sprint(num))
	}
	sl.logger.Info(fmt.Sprintf(msg, toInterfaceSlice(formatted)...))
}

func (sl *PrettyStyledLogger) InfoProducerState(msg string, state domain.ProducerState, args ...any) {
	var style *pterm.Style
	switch state {
	case domain.ProducerIdle:
		style = sl.Theme.StateIdle
	case domain.ProducerAcquiring:
		style = sl.Theme.StateAcquiring
	case domain.ProducerWriting:
		style = sl.Theme.StateWriting
	default:
		style = sl.Theme.StateStopped
	}
	sl.logger.Info(fmt.Sprintf("%s %s", msg, style.Sprint(state.String())), args...)
}

func (sl *PrettyStyledLogger) InfoWithContext(msg string, source string, ctx LogContext) {
	sl.logWithContext(slog.LevelInfo, msg, source, ctx)
}

func (sl *PrettyStyledLogger) WarnWithContext(msg string, source string, ctx LogContext) {
	sl.logWithContext(slog.LevelWarn, msg, source, ctx)
}

func (sl *PrettyStyledLogger) ErrorWithContext(msg string, source string, ctx LogContext) {
	sl.logWithContext(slog.LevelError, msg, source, ctx)
}

func (sl *PrettyStyledLogger) logWithContext(level slog.Level, msg string, source string, ctx LogContext) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Source.Sprint(source))
	sl.logger.Log(context.Background(), level, styledMsg, ctx.UserArgs...)

	if len(ctx.DetailedArgs) > 0 {
		sl.logger.Log(detailedContext(), level, msg, detailedArgs(source, ctx)...)
	}
}

func (sl *PrettyStyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *PrettyStyledLogger) WithRequestID(requestID string) StyledLogger {
	return sl.With("request_id", requestID)
}

func (sl *PrettyStyledLogger) WithAttrs(attrs ...slog.Attr) StyledLogger {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return sl.With(args...)
}

func (sl *PrettyStyledLogger) With(args ...any) StyledLogger {
	return &PrettyStyledLogger{
		logger: sl.logger.With(args...),
		Theme:  sl.Theme,
	}
}
