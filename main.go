package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/prospect/config"
	"github.com/pthm-cable/prospect/generators"
	"github.com/pthm-cable/prospect/run"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", run.ModeGenerate, "Run mode: generate or cluster")
	generator := flag.String("generator", "", "Generator: muon, neutron, fission or ibd (empty = use config)")
	events := flag.Int("events", 0, "Number of events (0 = use config)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	logStats := flag.Bool("log-stats", false, "Output batch stats via slog")
	hitsPath := flag.String("hits", "", "Step-hit CSV to cluster (cluster mode, - = stdin)")
	plot := flag.Bool("plot", false, "Render spectrum PNGs into the output directory")
	workers := flag.Int("workers", 0, "Generation workers (0 = GOMAXPROCS)")
	list := flag.Bool("list", false, "List the available generators and exit")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *list {
		for _, info := range generators.NewRegistry().All() {
			fmt.Printf("%-8s %-8s %s\n", info.ID, info.Category, info.Name)
		}
		return
	}

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := run.New(cfg, run.Options{
		Mode:      *mode,
		Generator: *generator,
		Events:    *events,
		Seed:      *seed,
		OutputDir: *outputDir,
		LogStats:  *logStats,
		Plot:      *plot,
		Workers:   *workers,
		Logger:    logger,
	})
	if err != nil {
		slog.Error("failed to start run", "error", err)
		os.Exit(1)
	}

	switch *mode {
	case run.ModeCluster:
		err = cluster(ctx, r, *hitsPath)
	default:
		err = r.Generate(ctx)
	}
	if cerr := r.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func cluster(ctx context.Context, r *run.Runner, path string) error {
	var in io.Reader = os.Stdin
	switch path {
	case "":
		return fmt.Errorf("cluster mode needs -hits")
	case "-":
	default:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening hits: %w", err)
		}
		defer f.Close()
		in = f
	}
	return r.Cluster(ctx, in)
}
