package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	persistlog "dwarfhold.dev/internal/persistence/log"
	"dwarfhold.dev/internal/sim/jobs"
	"dwarfhold.dev/internal/sim/pathfind"
	"dwarfhold.dev/internal/sim/tuning"
	"dwarfhold.dev/internal/sim/world"
	"dwarfhold.dev/internal/sim/worldgen"
)

func main() {
	var (
		seed       = flag.Int64("seed", 1337, "world seed")
		ticks      = flag.Uint64("ticks", 1000, "ticks to run")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "", "write the tick log under <data>/events (optional)")
		eventsDir  = flag.String("events", "", "verify digests against events-*.jsonl.zst in this dir (optional)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(os.Stderr, "load tuning:", err)
			os.Exit(1)
		}
		tune = tuning.Defaults()
	}

	ctx := context.Background()
	if *eventsDir != "" {
		n, err := verify(ctx, *eventsDir, *seed, tune, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "verify:", err)
			os.Exit(1)
		}
		fmt.Printf("verified %d ticks\n", n)
		return
	}

	res, err := simulate(ctx, options{Seed: *seed, Ticks: *ticks, Tuning: tune, DataDir: *dataDir, Logger: logger})
	if err != nil {
		fmt.Fprintln(os.Stderr, "run:", err)
		os.Exit(1)
	}
	fmt.Printf("seed=%d tick=%d alive=%d dead=%d digest=%s\n", *seed, res.Tick, res.Alive, res.Dead, res.Digest)
}

type options struct {
	Seed    int64
	Ticks   uint64
	Tuning  tuning.Tuning
	DataDir string
	Logger  *zap.Logger
}

type result struct {
	Tick   uint64
	Alive  int
	Dead   int
	Digest string
}

// lastTick keeps the most recent entry written by the world.
type lastTick struct {
	entry world.TickLogEntry
}

func (l *lastTick) WriteTick(e world.TickLogEntry) error {
	l.entry = e
	return nil
}

// build generates the world for seed with inline pathfinding, so every run
// with the same inputs takes the same decisions.
func build(seed int64, tune tuning.Tuning, logger *zap.Logger, sink world.TickLogger) (*world.World, error) {
	g, err := worldgen.Generate(worldgen.Params{
		Seed:     seed,
		Width:    tune.Map.Width,
		Height:   tune.Map.Height,
		Depth:    tune.Map.Depth,
		SurfaceZ: tune.Map.SurfaceZ,
	})
	if err != nil {
		return nil, fmt.Errorf("worldgen: %w", err)
	}
	board := jobs.NewBoard()
	useed := uint64(seed)
	w := world.New(world.Config{
		DecisionInterval: tune.DecisionIntervalTicks,
		MoveInterval:     tune.MoveIntervalTicks,
		WanderRadius:     tune.Wander.Radius,
		WanderBudget:     tune.Wander.MaxIterations,
		SurfaceZ:         tune.Map.SurfaceZ,
		DigestEvery:      1,
	}, g, world.Deps{
		Finder:     pathfind.Inline{},
		Claimer:    board,
		Rand:       rand.New(rand.NewPCG(useed, useed^0x9e3779b97f4a7c15)),
		Logger:     logger,
		TickLogger: sink,
	})
	w.RegisterSystem(world.JobSystem{Board: board})
	for _, c := range worldgen.Populate(g, tune.Map.SurfaceZ, worldgen.Population{
		Dwarves: tune.Spawn.Dwarves,
		Cats:    tune.Spawn.Cats,
		Dogs:    tune.Spawn.Dogs,
	}, seed) {
		w.AddCreature(c)
	}
	return w, nil
}

func simulate(ctx context.Context, opt options) (result, error) {
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	var tickLog *persistlog.TickLogger
	last := &lastTick{}
	var sink world.TickLogger = last
	if opt.DataDir != "" {
		tickLog = persistlog.NewTickLogger(opt.DataDir)
		sink = teeTick{last, tickLog}
	}
	w, err := build(opt.Seed, opt.Tuning, opt.Logger, sink)
	if err != nil {
		return result{}, err
	}
	for n := uint64(1); n <= opt.Ticks; n++ {
		if err := ctx.Err(); err != nil {
			break
		}
		w.Tick(ctx, n)
	}
	if tickLog != nil {
		if err := tickLog.Close(); err != nil {
			return result{}, fmt.Errorf("close tick log: %w", err)
		}
	}
	return result{
		Tick:   w.CurrentTick(),
		Alive:  last.entry.Alive,
		Dead:   last.entry.Dead,
		Digest: w.StateDigest(),
	}, nil
}

type teeTick []world.TickLogger

func (t teeTick) WriteTick(e world.TickLogEntry) error {
	var errs []error
	for _, l := range t {
		errs = append(errs, l.WriteTick(e))
	}
	return errors.Join(errs...)
}

// verify regenerates the world and checks every logged tick digest in order.
// It returns the number of ticks compared.
func verify(ctx context.Context, dir string, seed int64, tune tuning.Tuning, logger *zap.Logger) (int, error) {
	files, err := persistlog.ListFiles(dir, "events")
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no events-*.jsonl.zst in %s", dir)
	}
	last := &lastTick{}
	w, err := build(seed, tune, logger, last)
	if err != nil {
		return 0, err
	}

	verified := 0
	for _, f := range files {
		err := persistlog.ReadJSONL(f, func(e world.TickLogEntry) error {
			if e.Tick <= w.CurrentTick() {
				return fmt.Errorf("%s: tick %d out of order (at %d)", filepath.Base(f), e.Tick, w.CurrentTick())
			}
			for w.CurrentTick() < e.Tick {
				w.Tick(ctx, w.CurrentTick()+1)
			}
			if last.entry.Digest != e.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got %s want %s", e.Tick, last.entry.Digest, e.Digest)
			}
			verified++
			return nil
		})
		if err != nil {
			return verified, err
		}
	}
	return verified, nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
