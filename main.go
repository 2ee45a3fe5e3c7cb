package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jacktogon/ringcam/internal/app"
	"github.com/jacktogon/ringcam/internal/config"
	"github.com/jacktogon/ringcam/internal/env"
	"github.com/jacktogon/ringcam/internal/logger"
	"github.com/jacktogon/ringcam/internal/util"
	"github.com/jacktogon/ringcam/internal/version"
	"github.com/jacktogon/ringcam/pkg/format"
	"github.com/jacktogon/ringcam/pkg/nerdstats"
	"github.com/jacktogon/ringcam/pkg/profiler"
)

func main() {
	startTime := time.Now()

	flags := pflag.NewFlagSet(version.Name, pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "path to config.yaml")
	showVersion := flags.BoolP("version", "v", false, "print version information and exit")
	printConfig := flags.Bool("print-config", false, "print the effective configuration and exit")
	_ = flags.Parse(os.Args[1:])

	vlog := log.New(log.Writer(), "", 0)
	if *showVersion {
		version.PrintVersionInfo(true, vlog)
		os.Exit(0)
	}

	loader := config.NewLoader(*configFile)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		out, err := cfg.Dump()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render configuration: %v\n", err)
			os.Exit(1)
		}
		_, _ = os.Stdout.Write(out)
		os.Exit(0)
	}

	version.PrintVersionInfo(false, vlog)

	lcfg := buildLoggerConfig(cfg)
	logInstance, styledLogger, cleanup, err := logger.NewWithTheme(lcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.SetDefault(logInstance)

	styledLogger.Info("Initialising", "version", version.Version, "pid", os.Getpid())
	if cfg.Filename != "" {
		styledLogger.InfoWithSource("Using config", cfg.Filename)
	}

	if addr := cfg.Engineering.ProfilerAddress; addr != "" {
		prof, err := profiler.Start(addr, logInstance)
		if err != nil {
			styledLogger.Warn("Profiler disabled", "address", addr, "error", err)
		} else {
			styledLogger.InfoWithSource("Profiler listening", prof.Addr())
			defer prof.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	application, err := app.New(startTime, cfg, loader, styledLogger)
	if err != nil {
		logger.FatalWithLogger(logInstance, cleanup, "Failed to create application", "error", err)
	}

	if err := application.Start(ctx); err != nil {
		logger.FatalWithLogger(logInstance, cleanup, "Failed to start application", "error", err)
	}

	select {
	case sig := <-sigCh:
		styledLogger.Info("Shutdown signal received", "signal", sig.String())
	case <-application.Done():
		if err := application.Err(); err != nil {
			styledLogger.Error("HTTP server stopped unexpectedly", "error", err)
		}
	}
	cancel()

	if err := application.Stop(context.Background()); err != nil {
		styledLogger.Error("Error during shutdown", "error", err)
	}

	if cfg.Engineering.ShowNerdStats {
		reportProcessStats(styledLogger, startTime)
	}

	styledLogger.Info(version.Name + " has shutdown")
}

func reportProcessStats(logger logger.StyledLogger, startTime time.Time) {
	runtime.GC()

	stats := nerdstats.Snapshot(startTime)

	logger.Info("Process Memory Stats",
		"heap_alloc", format.Bytes(stats.HeapAlloc),
		"heap_sys", format.Bytes(stats.HeapSys),
		"heap_inuse", format.Bytes(stats.HeapInuse),
		"stack_inuse", format.Bytes(stats.StackInuse),
		"total_alloc", format.Bytes(stats.TotalAlloc),
		"memory_pressure", stats.MemoryPressure(),
	)

	logger.Info("Process Allocation Stats",
		"total_mallocs", stats.Mallocs,
		"total_frees", stats.Frees,
		"net_objects", util.SafeInt64Diff(stats.Mallocs, stats.Frees),
	)

	if stats.NumGC > 0 {
		logger.Info("Garbage Collection Stats",
			"num_gc_cycles", stats.NumGC,
			"last_gc", stats.LastGC.Format(time.RFC3339),
			"total_gc_time", format.Duration(stats.TotalGCTime),
			"avg_gc_pause", format.Duration(stats.AverageGCPause()),
			"gc_cpu_fraction", fmt.Sprintf("%.4f%%", stats.GCCPUFraction*100),
		)
	}

	logger.Info("Runtime Stats",
		"uptime", format.Duration(stats.Uptime),
		"goroutines", stats.NumGoroutines,
		"goroutine_health", stats.GoroutineHealth(),
		"go_version", stats.GoVersion,
		"gomaxprocs", stats.GOMAXPROCS,
	)

	if build := stats.BuildSummary(); len(build) > 0 {
		args := make([]any, 0, len(build)*2)
		for key, value := range build {
			args = append(args, key, value)
		}
		logger.Info("Build Info", args...)
	}
}

// buildLoggerConfig reads the logger settings from RINGCAM_* variables,
// falling back to logging.level from the config
func buildLoggerConfig(cfg *config.Config) *logger.Config {
	return &logger.Config{
		Level:      env.GetEnvOrDefault("RINGCAM_LOG_LEVEL", cfg.Logging.Level),
		FileOutput: env.GetEnvBoolOrDefault("RINGCAM_FILE_OUTPUT", false),
		LogDir:     env.GetEnvOrDefault("RINGCAM_LOG_DIR", "./logs"),
		MaxSize:    env.GetEnvIntOrDefault("RINGCAM_MAX_SIZE", 100),
		MaxBackups: env.GetEnvIntOrDefault("RINGCAM_MAX_BACKUPS", 5),
		MaxAge:     env.GetEnvIntOrDefault("RINGCAM_MAX_AGE", 30),
		Theme:      env.GetEnvOrDefault("RINGCAM_THEME", "default"),
	}
}
