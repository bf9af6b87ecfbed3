package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/romso/r4d4r/internal/app"
	"github.com/romso/r4d4r/internal/config"
	"github.com/romso/r4d4r/internal/domain"
	"github.com/romso/r4d4r/internal/eventlog"
	"github.com/romso/r4d4r/internal/pipeline"
	"github.com/romso/r4d4r/internal/process"
	"github.com/romso/r4d4r/internal/radar"
	"github.com/romso/r4d4r/internal/target"
	"github.com/romso/r4d4r/internal/tui"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		rawTarget   string
		outdir      string
		timeoutSecs int
		configPath  string
		noColor     bool
		seed        uint64
		debugLog    string
		initConfig  bool
		showVersion bool
	)
	flag.StringVar(&rawTarget, "t", "", "target domain (e.g. example.com)")
	flag.StringVar(&rawTarget, "target", "", "target domain (e.g. example.com)")
	flag.StringVar(&outdir, "o", "", "output directory (default r4d4r_result)")
	flag.StringVar(&outdir, "outdir", "", "output directory (default r4d4r_result)")
	flag.IntVar(&timeoutSecs, "timeout", 0, "default per-stage timeout in seconds (default 120)")
	flag.StringVar(&configPath, "config", config.DefaultConfigPath(), "path to the TOML config file")
	flag.BoolVar(&noColor, "no-color", false, "disable colors")
	flag.Uint64Var(&seed, "seed", 0, "radar animation seed (0 picks one at random)")
	flag.StringVar(&debugLog, "debug-log", "", "write diagnostics to this file")
	flag.BoolVar(&initConfig, "init-config", false, "write the effective config to -config and exit")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("r4d4r", version)
		return 0
	}

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		return 1
	}
	if outdir != "" {
		cfg.OutputDir = outdir
	}
	if timeoutSecs < 0 {
		fmt.Fprintf(os.Stderr, "error: -timeout must be positive\n")
		return 2
	}
	if timeoutSecs > 0 {
		cfg.Timeout = config.Duration(time.Duration(timeoutSecs) * time.Second)
	}
	if noColor {
		cfg.Display.NoColor = true
	}

	if initConfig {
		if err := config.Save(configPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error saving config: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "Config written to %s\n", configPath)
		return 0
	}

	if rawTarget == "" {
		fmt.Fprintf(os.Stderr, "error: -t/-target is required\n")
		flag.Usage()
		return 2
	}
	host, err := target.Normalize(rawTarget)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	outputDir, err := filepath.Abs(cfg.OutputDirOrDefault())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error resolving output directory: %v\n", err)
		return 1
	}

	logger, closeLog, err := openDebugLog(debugLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening debug log: %v\n", err)
		return 1
	}
	defer closeLog()

	color := !cfg.Display.NoColor && isatty.IsTerminal(os.Stdout.Fd())
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	pctx := domain.PipelineContext{
		RunID:     uuid.NewString(),
		Target:    host,
		OutputDir: outputDir,
		Timeout:   cfg.TimeoutOrDefault(),
	}
	events := eventlog.New()
	executor := pipeline.NewExecutor(process.NewRunner(), events, pipeline.ReconGraph(pctx, cfg.StageOptions()))
	executor.Logger = logger

	var input io.Reader
	if isatty.IsTerminal(os.Stdin.Fd()) {
		input = os.Stdin
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("run starting", "run_id", pctx.RunID, "target", host, "outdir", outputDir, "seed", seed)
	err = app.Run(ctx, app.Options{
		Pipeline: executor,
		Context:  pctx,
		Events:   events,
		Sim:      radar.New(cfg.RadarOrDefault(), seed),
		Dashboard: tui.Options{
			Cadence:        cfg.CadenceOrDefault(),
			BannerDuration: cfg.BannerDurationOrDefault(),
			ConsoleHeight:  cfg.ConsoleHeightOrDefault(),
			Renderer:       eventlog.NewRenderer(os.Stdout, color),
			Plain:          !color,
		},
		Output:      os.Stdout,
		Input:       input,
		StopTimeout: cfg.StopTimeoutOrDefault(),
		Logger:      logger,
	})
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrInterrupted):
		return 130
	default:
		fmt.Fprintf(os.Stderr, "r4d4r error: %v\n", err)
		return 1
	}
}

// openDebugLog returns a logger writing to path, or a discarding logger when
// path is empty.
func openDebugLog(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}
