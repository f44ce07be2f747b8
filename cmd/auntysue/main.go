// Command auntysue plays the Aunty Sue forced-capture variant over the
// xboard protocol on standard input and output.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/auntysue/internal/config"
	"github.com/hailam/auntysue/internal/engine"
	"github.com/hailam/auntysue/internal/status"
	"github.com/hailam/auntysue/internal/storage"
	"github.com/hailam/auntysue/internal/xboard"
)

var (
	configPath = flag.String("config", "", "JSON config file")
	workers    = flag.Int("workers", 0, "worker goroutines (default: config or number of CPUs)")
	maxDepth   = flag.Int("max-depth", -1, "plies to expand below the root, 0 = unbounded")
	logFile    = flag.String("log", "", "log file (default: config or $TMPDIR/auntysue.log)")
	logLevel   = flag.String("log-level", "", "log level")
	dataDir    = flag.String("data", "", "data directory for the game database")
	httpAddr   = flag.String("http", "", "status server address, e.g. localhost:8080")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "auntysue:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}

	// Flags override the file.
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *maxDepth >= 0 {
		cfg.MaxDepth = *maxDepth
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}
	return cfg, cfg.Validate()
}

func run() error {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Standard output carries the protocol, so logs go to a file that is
	// truncated on every start.
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	level, _ := cfg.Level()
	log := zerolog.New(f).Level(level).With().Timestamp().Logger()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		pf, err := os.Create(profilePath)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer pf.Close()
		if err := pprof.StartCPUProfile(pf); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", profilePath).Msg("CPU profiling enabled")
	}

	eng := engine.New(engine.Options{
		Workers:       cfg.Workers,
		MaxDepth:      cfg.MaxDepth,
		RetryInterval: time.Duration(cfg.RetryInterval),
		Logger:        log.With().Str("component", "engine").Logger(),
	})
	defer eng.Stop()

	var (
		rec     xboard.Recorder
		archive status.Archive
	)
	if cfg.Persist {
		store, err := storage.OpenDefault(cfg.DataDir)
		if err != nil {
			// Playing matters more than the archive.
			log.Error().Err(err).Msg("storage disabled")
		} else {
			defer store.Close()
			rec, archive = store, store
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.HTTPAddr != "" {
		h := status.Router(eng, archive, log.With().Str("component", "http").Logger())
		go func() {
			if err := status.Serve(ctx, cfg.HTTPAddr, h, log); err != nil {
				log.Error().Err(err).Msg("status server")
			}
		}()
	}

	log.Info().
		Int("workers", cfg.Workers).
		Int("max_depth", cfg.MaxDepth).
		Dur("retry", time.Duration(cfg.RetryInterval)).
		Msg("auntysue ready")

	driver := xboard.New(eng, os.Stdout, rec, cfg.Post, log.With().Str("component", "xboard").Logger())
	return driver.Run(os.Stdin)
}
