package logger

import (
	"log/slog"

	"github.com/jacktogon/ringcam/internal/core/domain"
	"github.com/jacktogon/ringcam/internal/util"
	"github.com/jacktogon/ringcam/theme"
)

// StyledLogger is the logger handed to every component. The pretty variant
// colours message fragments with the theme, the plain one keeps them as text.
type StyledLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	InfoWithStatus(msg string, status string, args ...any)
	InfoWithCount(msg string, count int, args ...any)
	InfoWithSource(msg string, source string, args ...any)
	WarnWithSource(msg string, source string, args ...any)
	ErrorWithSource(msg string, source string, args ...any)
	InfoWithNumbers(msg string, numbers ...int64)
	InfoProducerState(msg string, state domain.ProducerState, args ...any)

	InfoWithContext(msg string, source string, ctx LogContext)
	WarnWithContext(msg string, source string, ctx LogContext)
	ErrorWithContext(msg string, source string, ctx LogContext)

	ResetLine()
	GetUnderlying() *slog.Logger
	With(args ...any) StyledLogger
	WithAttrs(attrs ...slog.Attr) StyledLogger
	WithRequestID(requestID string) StyledLogger
}

// LogContext separates what the operator sees in the terminal from the
// extra detail that only lands in the log file.
type LogContext struct {
	UserArgs     []any
	DetailedArgs []any
}

// NewWithTheme builds the slog logger plus a styled wrapper that matches
// whether the terminal can render colour.
func NewWithTheme(cfg *Config) (*slog.Logger, StyledLogger, func(), error) {
	log, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	if util.ShouldUseColors() {
		return log, NewPrettyStyledLogger(log, theme.GetTheme(cfg.Theme)), cleanup, nil
	}
	return log, NewPlainStyledLogger(log), cleanup, nil
}

func detailedArgs(source string, ctx LogContext) []any {
	all := make([]any, 0, len(ctx.UserArgs)+len(ctx.DetailedArgs)+2)
	all = append(all, "source", source)
	all = append(all, ctx.UserArgs...)
	all = append(all, ctx.DetailedArgs...)
	return all
}

func toInterfaceSlice(strs []string) []any {
	result := make([]any, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}
