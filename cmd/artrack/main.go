package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"artrack/internal/api"
	"artrack/pkg/config"
	"artrack/pkg/db"
	"artrack/pkg/logging"
	"artrack/pkg/model"
	"artrack/pkg/probe"
	"artrack/pkg/recorder"
	"artrack/pkg/session"
	"artrack/pkg/source"
	"artrack/pkg/store"
	"artrack/pkg/tracker"
	"artrack/pkg/version"
)

const defaultConfigPath = "configs/artrack.yaml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to the configuration file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("artrack started", "version", version.Version)

	st, err := initStore(appCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := verifyStartup(ctx, appCfg, st); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	tr := tracker.New()
	live := api.NewLiveHandler()
	rec := recorder.New(st,
		recorder.WithLogger(slog.Default()),
		recorder.WithTracker(tr),
		recorder.WithObserver(live.Publish),
	)

	recCfg := recorder.Config{
		Capacity:      appCfg.Recorder.Capacity,
		MinIntervalMs: appCfg.Recorder.MinInterval.Milliseconds(),
	}
	resumed, err := session.Begin(ctx, st, rec, recCfg)
	if err != nil {
		return fmt.Errorf("failed to begin session: %w", err)
	}
	slog.Info("Recording", "session_id", rec.SessionID(), "resumed", resumed, "points", rec.Size())

	src, err := source.New(&appCfg.Source)
	if err != nil {
		return fmt.Errorf("failed to initialize source: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		pumpSource(ctx, src, rec)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	srv := api.NewServer(appCfg.Server.Address,
		api.NewSessionHandler(rec, st, recCfg),
		api.NewTrajectoryHandler(rec),
		api.NewStatsHandler(tr, rec, live),
		live,
		func() {
			select {
			case quit <- syscall.SIGTERM:
			default:
			}
		},
	)

	serverErr := runServerLifecycle(ctx, srv, quit)

	// Stop producing fixes before the session is closed.
	cancel()
	wg.Wait()
	live.CloseAll()

	finishSession(st, rec)
	return serverErr
}

func initStore(appCfg *config.Config) (store.Store, error) {
	if appCfg.DB.Path == "" {
		slog.Warn("No database path configured, trajectory is kept in memory only")
		return store.NewMemoryStore(), nil
	}
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store.NewSQLiteStore(dbConn), nil
}

func verifyStartup(ctx context.Context, appCfg *config.Config, st store.StateStore) error {
	probes := []probe.Probe{
		{Name: "State Store", Check: probe.StateRoundTrip(st), Critical: true},
		{Name: "HTTP Address", Check: probe.AddressFree(appCfg.Server.Address), Critical: true},
	}
	if appCfg.Source.Provider == "replay" {
		probes = append(probes, probe.Probe{
			Name:     "Replay File",
			Check:    probe.FileReadable(appCfg.Source.ReplayFile),
			Critical: true,
		})
	}
	return probe.AnalyzeResults(probe.Run(ctx, probes))
}

// pumpSource feeds every fix of src into rec from a single goroutine.
func pumpSource(ctx context.Context, src source.Source, rec *recorder.Recorder) {
	slog.Info("Source started", "provider", src.Name())
	err := src.Run(ctx, func(fix model.Fix) {
		if err := rec.OnFix(ctx, fix); err != nil {
			if errors.Is(err, recorder.ErrInvalidState) {
				logging.TraceDefault("Fix dropped, no active session", "ts_ms", fix.TimestampMs)
				return
			}
			slog.Error("Failed to record fix", "provider", fix.ProviderID, "error", err)
		}
	})
	switch {
	case err == nil:
		slog.Info("Source exhausted", "provider", src.Name())
	case errors.Is(err, context.Canceled):
		slog.Debug("Source stopped", "provider", src.Name())
	default:
		slog.Error("Source failed", "provider", src.Name(), "error", err)
	}
}

// finishSession stops a running session and logs its summary.
func finishSession(st store.StateStore, rec *recorder.Recorder) {
	if rec.State() != recorder.StateRecording {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sum := rec.Summary()
	if err := session.End(ctx, st, rec); err != nil {
		slog.Error("Failed to end session", "error", err)
		return
	}
	slog.Info("Session finished",
		"session_id", rec.SessionID(),
		"points", sum.Points,
		"distance_m", sum.TotalDistanceMeters,
		"avg_speed_kmh", sum.AverageSpeedKmh,
		"max_speed_kmh", sum.MaxSpeedKmh,
		"duration_s", sum.DurationS,
	)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
