package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/snekperft/fixture"
	"github.com/brensch/snekperft/game"
	"github.com/brensch/snekperft/logging"
	"github.com/brensch/snekperft/movegen"
	"github.com/brensch/snekperft/perft"
	"github.com/brensch/snekperft/rules"
	"github.com/brensch/snekperft/store"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

type config struct {
	fixturesDir string
	depth       int
	workers     int
	outDir      string
	reference   string

	engineURL  string
	engineGame string
	engineTurn int
	engineYou  string

	random int
	width  int
	height int
	snakes int
	seed   int64

	tui       bool
	logFormat string
	logLevel  string
	logFile   string
}

type jobUpdate struct {
	Result   store.Result
	Checked  bool
	Mismatch error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	var cfg config
	flag.StringVar(&cfg.fixturesDir, "fixtures", getEnvOrDefault("FIXTURES", ""), "Directory of Battlesnake move-request .json files")
	flag.IntVar(&cfg.depth, "depth", getEnvIntOrDefault("DEPTH", 3), "Maximum perft depth; every depth from 1 is run")
	flag.IntVar(&cfg.workers, "workers", getEnvIntOrDefault("WORKERS", 1), "Goroutines for the first turn's move-sets; 1 runs divide sequentially")
	flag.StringVar(&cfg.outDir, "out-dir", getEnvOrDefault("OUT_DIR", "data/perft"), "Directory to write result .parquet files (empty to skip)")
	flag.StringVar(&cfg.reference, "reference", getEnvOrDefault("REFERENCE", ""), "Results .parquet file to check counts against")
	flag.StringVar(&cfg.engineURL, "engine-url", getEnvOrDefault("ENGINE_URL", fixture.DefaultEngineURL), "Engine websocket URL template")
	flag.StringVar(&cfg.engineGame, "engine-game", getEnvOrDefault("ENGINE_GAME", ""), "Game id to pull a frame from")
	flag.IntVar(&cfg.engineTurn, "engine-turn", getEnvIntOrDefault("ENGINE_TURN", -1), "Turn to pull from the engine game (-1 for the last frame)")
	flag.StringVar(&cfg.engineYou, "engine-you", getEnvOrDefault("ENGINE_YOU", ""), "Viewpoint snake id for the engine frame (empty for the first alive snake)")
	flag.IntVar(&cfg.random, "random", getEnvIntOrDefault("RANDOM", 0), "Number of generated start positions to add")
	flag.IntVar(&cfg.width, "width", getEnvIntOrDefault("WIDTH", 11), "Generated board width")
	flag.IntVar(&cfg.height, "height", getEnvIntOrDefault("HEIGHT", 11), "Generated board height")
	flag.IntVar(&cfg.snakes, "snakes", getEnvIntOrDefault("SNAKES", 2), "Snakes on generated boards")
	flag.Int64Var(&cfg.seed, "seed", getEnvInt64OrDefault("SEED", 1), "Seed for generated boards")
	flag.BoolVar(&cfg.tui, "tui", getEnvBoolOrDefault("TUI", false), "Show a progress view instead of log lines")
	flag.StringVar(&cfg.logFormat, "log-format", getEnvOrDefault("LOG_FORMAT", logging.FormatPretty), "Log format: pretty or json")
	flag.StringVar(&cfg.logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	flag.StringVar(&cfg.logFile, "log-file", getEnvOrDefault("LOG_FILE", ""), "Write logs here instead of stderr")
	flag.Parse()

	var logOut io.Writer = os.Stderr
	if cfg.logFile != "" {
		f, err := os.OpenFile(cfg.logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	} else if cfg.tui {
		// keep the terminal for the progress view
		logOut = io.Discard
	}
	logger, err := logging.New(logOut, cfg.logFormat, cfg.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if cfg.depth < 0 {
		fatal("depth must not be negative", "depth", cfg.depth)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snapshots, err := collectSnapshots(ctx, cfg)
	if err != nil {
		fatal("collect snapshots", "error", err)
	}
	if len(snapshots) == 0 {
		fatal("no snapshots: set -fixtures, -engine-game or -random")
	}

	var ref *store.Reference
	if cfg.reference != "" {
		ref, err = store.LoadReference(cfg.reference)
		if err != nil {
			fatal("load reference", "path", cfg.reference, "error", err)
		}
		slog.Info("loaded reference", "path", cfg.reference, "entries", ref.Len())
	}

	slog.Info("starting perft",
		"snapshots", len(snapshots),
		"depth", cfg.depth,
		"workers", cfg.workers,
		"out_dir", cfg.outDir,
	)
	for _, s := range snapshots {
		logSnapshot(s)
	}

	var results []store.Result
	var mismatches int
	if cfg.tui {
		updates := make(chan jobUpdate, 16)
		runCtx, cancel := context.WithCancel(ctx)
		type outcome struct {
			results    []store.Result
			mismatches int
			err        error
		}
		done := make(chan outcome, 1)
		go func() {
			defer close(updates)
			r, m, err := runJobs(runCtx, snapshots, uint(cfg.depth), cfg.workers, ref, updates)
			done <- outcome{r, m, err}
		}()

		p := tea.NewProgram(initialModel(updates, len(snapshots)*cfg.depth))
		if _, err := p.Run(); err != nil {
			slog.Error("tui", "error", err)
		}
		// q leaves the view early; stop the run and drain what is left
		cancel()
		for range updates {
		}
		o := <-done
		results, mismatches, err = o.results, o.mismatches, o.err
	} else {
		results, mismatches, err = runJobs(ctx, snapshots, uint(cfg.depth), cfg.workers, ref, nil)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fatal("perft", "error", err)
	}
	if err != nil {
		slog.Warn("run cancelled, writing partial results", "results", len(results))
	}

	if cfg.outDir != "" && len(results) > 0 {
		path, err := store.WriteResults(cfg.outDir, results)
		if err != nil {
			fatal("write results", "error", err)
		}
		slog.Info("wrote results", "path", path, "rows", len(results))
	}

	if mismatches > 0 {
		fatal("reference mismatch", "mismatches", mismatches)
	}
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

// collectSnapshots gathers fixture files, then the engine frame, then
// generated boards, in that order.
func collectSnapshots(ctx context.Context, cfg config) ([]fixture.Named, error) {
	var out []fixture.Named

	if cfg.fixturesDir != "" {
		named, err := fixture.LoadDir(cfg.fixturesDir)
		if err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		out = append(out, named...)
	}

	if cfg.engineGame != "" {
		req, err := fixture.NewEngineClient(cfg.engineURL).Frame(ctx, cfg.engineGame, cfg.engineTurn, cfg.engineYou)
		if err != nil {
			return nil, fmt.Errorf("engine frame: %w", err)
		}
		out = append(out, fixture.Named{
			Name:    fmt.Sprintf("engine_%s_%d", cfg.engineGame, req.Turn),
			Request: req,
		})
	}

	if cfg.random > 0 {
		rng := rand.New(rand.NewSource(cfg.seed))
		start := fixture.DefaultStartConfig
		start.Width, start.Height, start.Snakes = int32(cfg.width), int32(cfg.height), cfg.snakes
		for i := 0; i < cfg.random; i++ {
			req, err := fixture.Standard(start, rng)
			if err != nil {
				return nil, fmt.Errorf("generate board: %w", err)
			}
			out = append(out, fixture.Named{
				Name:    fmt.Sprintf("random_%d_%d", cfg.seed, i),
				Request: req,
			})
		}
	}

	return out, nil
}

// runJobs searches every snapshot at depths 1..maxDepth. Each result is sent
// on updates when it is non-nil. On cancellation the results so far are
// returned with the context error.
func runJobs(ctx context.Context, snapshots []fixture.Named, maxDepth uint, workers int, ref *store.Reference, updates chan<- jobUpdate) ([]store.Result, int, error) {
	var results []store.Result
	mismatches := 0

	for _, s := range snapshots {
		for depth := uint(1); depth <= maxDepth; depth++ {
			if err := ctx.Err(); err != nil {
				return results, mismatches, err
			}

			r, err := runJob(ctx, s, depth, workers)
			if err != nil {
				return results, mismatches, fmt.Errorf("%s depth %d: %w", s.Name, depth, err)
			}
			results = append(results, r)

			u := jobUpdate{Result: r}
			if ref != nil {
				u.Checked, u.Mismatch = ref.Check(r)
			}
			if u.Mismatch != nil {
				mismatches++
				slog.Error("mismatch", "fixture", s.Name, "depth", depth, "error", u.Mismatch)
			}
			slog.Info("perft",
				"fixture", s.Name,
				"depth", depth,
				"nodes", r.Nodes,
				"elapsed", time.Duration(r.ElapsedNS),
				"nodes_per_sec", r.NodesPerSecond(),
				"checked", u.Checked,
			)
			if len(r.Split) > 0 {
				slog.Debug("divide", "fixture", s.Name, "depth", depth, "split", splitAttrs(r.Split))
			}

			if updates != nil {
				select {
				case updates <- u:
				case <-ctx.Done():
				}
			}
		}
	}
	return results, mismatches, nil
}

func runJob(ctx context.Context, s fixture.Named, depth uint, workers int) (store.Result, error) {
	start := time.Now()
	if workers > 1 {
		nodes, err := perft.Parallel(ctx, s.Request, depth, workers)
		if err != nil {
			return store.Result{}, err
		}
		return store.NewResult(s.Name, s.Request, depth, nodes, nil, time.Since(start), workers), nil
	}

	splits, err := perft.Divide(s.Request, depth)
	if err != nil {
		return store.Result{}, err
	}
	return store.NewResult(s.Name, s.Request, depth, perft.Total(splits), splits, time.Since(start), 1), nil
}

func splitAttrs(split []int64) slog.Value {
	attrs := make([]slog.Attr, 0, len(split))
	for i, n := range split {
		attrs = append(attrs, slog.Int64(game.Direction(i).String(), n))
	}
	return slog.GroupValue(attrs...)
}

// logSnapshot reports how the first turn's move-sets end at debug level.
func logSnapshot(s fixture.Named) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	causes := firstTurnCauses(s.Request)
	attrs := make([]any, 0, 2*len(causes)+4)
	attrs = append(attrs, "fixture", s.Name, "snakes", len(s.Request.Board.Snakes))
	for cause, n := range causes {
		attrs = append(attrs, string(cause), n)
	}
	slog.Debug("first turn eliminations", attrs...)
}

// firstTurnCauses counts eliminations by cause over every first-turn
// move-set of req.
func firstTurnCauses(req *game.Request) map[rules.Cause]int {
	causes := map[rules.Cause]int{}
	for _, you := range movegen.Viewpoint(req) {
		for _, set := range movegen.All(req, you) {
			_, elims, err := rules.StepDetailed(req, set)
			if err != nil {
				continue
			}
			for _, e := range elims {
				causes[e.Cause]++
			}
		}
	}
	return causes
}
