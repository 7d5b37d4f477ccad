package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"dwarfhold.dev/internal/persistence/indexdb"
	persistlog "dwarfhold.dev/internal/persistence/log"
	"dwarfhold.dev/internal/sim/jobs"
	"dwarfhold.dev/internal/sim/pathfind"
	"dwarfhold.dev/internal/sim/scheduler"
	"dwarfhold.dev/internal/sim/tuning"
	"dwarfhold.dev/internal/sim/world"
	"dwarfhold.dev/internal/sim/worldgen"
	"dwarfhold.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		seed       = flag.Int64("seed", 1337, "world seed")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick/audit index")
		logLevel   = flag.String("log_level", "info", "log level (debug, info, warn, error)")
		logFormat  = flag.String("log_format", "console", "log format (console, json)")
	)
	flag.Parse()

	logger, err := newLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}

	err = run(serverConfig{
		Addr:       *addr,
		Seed:       *seed,
		DataDir:    *dataDir,
		TuningPath: tp,
		DisableDB:  *disableDB,
	}, logger)
	if err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

type serverConfig struct {
	Addr       string
	Seed       int64
	DataDir    string
	TuningPath string
	DisableDB  bool
}

func run(cfg serverConfig, logger *zap.Logger) error {
	tune, err := tuning.Load(cfg.TuningPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load tuning: %w", err)
		}
		logger.Warn("tuning not found, using defaults", zap.String("path", cfg.TuningPath))
		tune = tuning.Defaults()
	}

	g, err := worldgen.Generate(worldgen.Params{
		Seed:     cfg.Seed,
		Width:    tune.Map.Width,
		Height:   tune.Map.Height,
		Depth:    tune.Map.Depth,
		SurfaceZ: tune.Map.SurfaceZ,
	})
	if err != nil {
		return fmt.Errorf("worldgen: %w", err)
	}

	var idx *indexdb.SQLiteIndex
	if !cfg.DisableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(cfg.DataDir, "index", "world.sqlite"))
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Warn("index: upsert tuning", zap.Error(err))
		}
	}
	tickLog := persistlog.NewTickLogger(cfg.DataDir)
	auditLog := persistlog.NewAuditLogger(cfg.DataDir)
	sinks := indexdb.Fanout{
		Ticks:  []world.TickLogger{tickLog},
		Audits: []world.AuditLogger{auditLog},
	}
	if idx != nil {
		sinks.Ticks = append(sinks.Ticks, idx)
		sinks.Audits = append(sinks.Audits, idx)
	}

	pool := pathfind.NewPool(tune.Pathfinding.Workers, logger.Named("pathfind"))
	board := jobs.NewBoard()
	useed := uint64(cfg.Seed)
	w := world.New(worldConfig(tune), g, world.Deps{
		Finder:      pool,
		Claimer:     board,
		Rand:        rand.New(rand.NewPCG(useed, useed^0x9e3779b97f4a7c15)),
		Logger:      logger.Named("world"),
		TickLogger:  sinks,
		AuditLogger: sinks,
	})
	w.RegisterSystem(world.JobSystem{Board: board})
	spawned := worldgen.Populate(g, tune.Map.SurfaceZ, worldgen.Population{
		Dwarves: tune.Spawn.Dwarves,
		Cats:    tune.Spawn.Cats,
		Dogs:    tune.Spawn.Dogs,
	}, cfg.Seed)
	for _, c := range spawned {
		w.AddCreature(c)
	}
	logger.Info("world ready",
		zap.Int64("seed", cfg.Seed),
		zap.Int("width", tune.Map.Width),
		zap.Int("height", tune.Map.Height),
		zap.Int("depth", tune.Map.Depth),
		zap.Int("creatures", len(spawned)),
	)

	var hub *ws.Server
	sched := scheduler.New(scheduler.Config{
		TickRateHz: tune.TickRateHz,
		MaxCatchUp: tune.MaxCatchUpTicks,
		Logger:     logger.Named("scheduler"),
	}, func(ctx context.Context, n uint64) {
		w.Tick(ctx, n)
		hub.Broadcast(n)
	})
	hub = ws.NewServer(w, sched, logger.Named("ws"))

	a := &admin{
		world:   w,
		sched:   sched,
		hub:     hub,
		pool:    pool,
		finder:  pool,
		board:   board,
		index:   idx,
		maxIter: tune.Pathfinding.MaxIterations,
	}
	mux := http.NewServeMux()
	a.routes(mux, envBool("DH_ENABLE_ADMIN_HTTP", true))
	if envBool("DH_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", hub.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return sched.Run(ctx)
	})
	eg.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})
	runErr := eg.Wait()

	// The scheduler has returned, so no tick can submit searches or write
	// log entries past this point.
	pool.Close()
	var errs []error
	errs = append(errs, runErr, tickLog.Close(), auditLog.Close())
	if idx != nil {
		st := idx.Stats()
		if st.DropTickTotal > 0 || st.DropAuditTotal > 0 {
			logger.Warn("index dropped writes",
				zap.Uint64("ticks", st.DropTickTotal),
				zap.Uint64("audits", st.DropAuditTotal),
			)
		}
		errs = append(errs, idx.Close())
	}
	logger.Info("shutdown complete", zap.Uint64("tick", w.CurrentTick()))
	return errors.Join(errs...)
}

// worldConfig maps tuning onto the live world. Searches run on the pool, so
// tick order is not reproducible and tick entries carry no digest.
func worldConfig(tune tuning.Tuning) world.Config {
	return world.Config{
		DecisionInterval: tune.DecisionIntervalTicks,
		MoveInterval:     tune.MoveIntervalTicks,
		WanderRadius:     tune.Wander.Radius,
		WanderBudget:     tune.Wander.MaxIterations,
		SurfaceZ:         tune.Map.SurfaceZ,
	}
}

func newLogger(levelName, format string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(ch)
	}()
	return ctx, cancel
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
