package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jacktogon/ringcam/internal/util"
	"github.com/jacktogon/ringcam/theme"
)

type Config struct {
	// Writer receives terminal output, defaults to os.Stdout
	Writer     io.Writer
	Level      string
	LogDir     string
	Theme      string
	FileName   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	FileOutput bool
}

const (
	DefaultLogOutputName  = "ringcam.log"
	DefaultDetailedCookie = "detailed"

	LogLevelDebug   = "debug"
	LogLevelInfo    = "info"
	LogLevelWarn    = "warn"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

type detailedKey string

// detailedContextKey marks records that should only reach the log file
const detailedContextKey detailedKey = DefaultDetailedCookie

func New(cfg *Config) (*slog.Logger, func(), error) {
	level := ParseLevel(cfg.Level)
	appTheme := theme.GetTheme(cfg.Theme)

	out := cfg.Writer
	if out == nil {
		out = os.Stdout
	}
	terminalHandler := createTerminalHandler(out, level, appTheme)

	if !cfg.FileOutput {
		// detailed records are dropped when there is no file to receive them
		return slog.New(&teeHandler{terminal: terminalHandler}), func() {}, nil
	}

	fileHandler, cleanup, err := createFileHandler(cfg, level)
	if err != nil {
		return nil, nil, err
	}

	handler := &teeHandler{
		terminal: terminalHandler,
		file:     fileHandler,
	}
	return slog.New(handler), cleanup, nil
}

func createTerminalHandler(out io.Writer, level slog.Level, appTheme *theme.Theme) slog.Handler {
	if util.ShouldUseColors() {
		plogger := pterm.DefaultLogger.
			WithLevel(convertToPTermLevel(level)).
			WithWriter(out).
			WithFormatter(pterm.LogFormatterColorful)

		plogger = plogger.WithKeyStyles(map[string]pterm.Style{
			"level": *appTheme.Info,
			"msg":   *appTheme.Info,
			"time":  *appTheme.Muted,
		})
		return pterm.NewSlogHandler(plogger)
	}

	// no TTY so emit JSON, friendlier for journald and log shippers
	return slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	})
}

func createFileHandler(cfg *Config, level slog.Level) (slog.Handler, func(), error) {
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create log dir %s: %w", cfg.LogDir, err)
	}

	name := cfg.FileName
	if name == "" {
		name = DefaultLogOutputName
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, name),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}

	handler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	})

	return handler, func() { _ = rotator.Close() }, nil
}

// replaceAttr flattens times and strips colour codes the pretty logger
// embeds in messages so the JSON output stays readable
func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{
			Key:   "timestamp",
			Value: slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05.000")),
		}
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if str := a.Value.String(); strings.ContainsRune(str, '\x1b') {
			return slog.Attr{Key: a.Key, Value: slog.StringValue(pterm.RemoveColorFromString(str))}
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.Attr{Key: a.Key, Value: slog.StringValue(err.Error())}
		}
		return slog.Attr{Key: a.Key, Value: slog.StringValue(fmt.Sprintf("%v", a.Value.Any()))}
	}
	return a
}

// teeHandler writes to the terminal and the rotating file. Records carrying
// the detailed marker go to the file only. file may be nil.
type teeHandler struct {
	terminal slog.Handler
	file     slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.terminal.Enabled(ctx, level) || (h.file != nil && h.file.Enabled(ctx, level))
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	if !isDetailed(ctx) && h.terminal.Enabled(ctx, record.Level) {
		if err := h.terminal.Handle(ctx, record.Clone()); err != nil {
			return err
		}
	}

	if h.file != nil && h.file.Enabled(ctx, record.Level) {
		return h.file.Handle(ctx, record)
	}
	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &teeHandler{terminal: h.terminal.WithAttrs(attrs)}
	if h.file != nil {
		next.file = h.file.WithAttrs(attrs)
	}
	return next
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	next := &teeHandler{terminal: h.terminal.WithGroup(name)}
	if h.file != nil {
		next.file = h.file.WithGroup(name)
	}
	return next
}

func isDetailed(ctx context.Context) bool {
	d, ok := ctx.Value(detailedContextKey).(bool)
	return ok && d
}

func detailedContext() context.Context {
	return WithDetailed(context.Background())
}

// WithDetailed marks ctx so records logged with it reach the log file only
func WithDetailed(ctx context.Context) context.Context {
	return context.WithValue(ctx, detailedContextKey, true)
}

// ParseLevel maps a level name onto slog, unknown names become info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn, LogLevelWarning:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsValidLevel reports whether name is one of the recognised level names
func IsValidLevel(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelWarning, LogLevelError:
		return true
	}
	return false
}

func convertToPTermLevel(level slog.Level) pterm.LogLevel {
	switch level {
	case slog.LevelDebug:
		return pterm.LogLevelTrace
	case slog.LevelWarn:
		return pterm.LogLevelWarn
	case slog.LevelError:
		return pterm.LogLevelError
	default:
		return pterm.LogLevelInfo
	}
}
