package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mlbcli/internal/config"
	"mlbcli/internal/infrastructure"
	"mlbcli/internal/pipeline"
	"mlbcli/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (defaults to mlbcli.yaml next to the executable)")
	dataDir := flag.String("data", "", "base directory for data/ and logs/ (defaults to the executable directory)")
	stage := flag.String("stage", "", "run a single stage: load | clean | align | merge | export (default: full pipeline)")
	logLevel := flag.String("log-level", "", "override log level: debug | info | warn | error")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	// Resolve the directory layout before anything touches disk
	var paths *config.Paths
	if *dataDir != "" {
		paths = config.GetPathsFrom(*dataDir)
	} else {
		var err error
		paths, err = config.GetPaths()
		if err != nil {
			slog.Error("Failed to initialize paths", "error", err)
			os.Exit(1)
		}
	}

	// The pipeline cannot run without a validated source list, so config
	// failures are fatal here rather than falling back to defaults.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath("processor.log")
	}

	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	// Cancel the run on interrupt so a partial manifest still gets written
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	exitCode := runPipeline(ctx, cfg, paths, logger, *stage)
	infrastructure.CloseLogFile()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// runPipeline executes the configured pipeline and returns the process
// exit code. Telemetry teardown happens here so a failed run still dumps
// its metrics before the process exits.
func runPipeline(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger, stage string) int {
	logger.Info("Starting baseball statistics pipeline",
		slog.String("base_dir", paths.BaseDir),
		slog.String("target_unit", cfg.Pipeline.TargetUnit),
		slog.Int("sources", len(cfg.Sources)),
		slog.String("stage", stage))

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}

	processStart := time.Now()
	systemMetrics, err := infrastructure.NewSystemMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create system metrics", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		stats := systemMetrics.Collect(shutdownCtx, processStart)
		logger.Info("Run resource usage",
			slog.Int64("goroutines", stats.GoRoutines),
			slog.Int64("memory_usage_mb", stats.MemoryUsage/1024/1024),
			slog.String("uptime", stats.ProcessUptime.Round(time.Millisecond).String()))
		// Shutdown dumps the collected metrics before tearing the providers down
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create pipeline metrics", slog.String("error", err.Error()))
		return 1
	}

	registry := pipeline.NewRegistry()
	if err := pipeline.RegisterDefaultStages(registry, cfg, paths, logger); err != nil {
		logger.Error("Failed to register pipeline stages", slog.String("error", err.Error()))
		return 1
	}

	manager := pipeline.NewManager(registry, cfg, paths, logger)
	manager.SetMetrics(metrics)

	resp, err := manager.Execute(ctx, pipeline.RunRequest{Stage: stage})
	if err != nil {
		logger.Error("Pipeline run failed",
			slog.String("run_id", resp.ID),
			slog.String("error", err.Error()))
		printSummary(resp)
		return 1
	}

	logger.Info("Pipeline run complete",
		slog.String("run_id", resp.ID),
		slog.String("duration", resp.Duration.String()),
		slog.String("output", resp.OutputPath),
		slog.String("report", resp.ReportPath))
	printSummary(resp)
	return 0
}

// printSummary writes the per-stage outcome to stdout for interactive runs.
// The JSON log carries the same information for machine consumers.
func printSummary(resp *pipeline.RunResponse) {
	fmt.Printf("Run %s: %s (%s)\n", resp.ID, resp.Status, resp.Duration.Round(time.Millisecond))
	for _, id := range []string{
		pipeline.StageIDLoad,
		pipeline.StageIDClean,
		pipeline.StageIDAlign,
		pipeline.StageIDMerge,
		pipeline.StageIDExport,
	} {
		st, ok := resp.Stages[id]
		if !ok {
			continue
		}
		line := fmt.Sprintf("  %-7s %s", id, st.CurrentStatus())
		if st.Error != nil {
			line += " (" + st.Error.Error() + ")"
		} else if st.Message != "" {
			line += " (" + st.Message + ")"
		}
		fmt.Println(line)
	}
	if resp.OutputPath != "" {
		fmt.Printf("Merged table: %s\n", resp.OutputPath)
	}
	if resp.ReportPath != "" {
		fmt.Printf("Run report:   %s\n", resp.ReportPath)
	}
	if resp.Error != "" {
		fmt.Printf("Error: %s\n", resp.Error)
	}
}
