package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"trajectory-service/internal/adapters/commands"
	"trajectory-service/internal/adapters/repositories"
	"trajectory-service/internal/adapters/vehicle"
	"trajectory-service/internal/api"
	"trajectory-service/internal/config"
	"trajectory-service/internal/domain"
	"trajectory-service/internal/platform/db"
	"trajectory-service/internal/platform/obs"
	"trajectory-service/internal/ports"
	"trajectory-service/internal/services"

	"golang.org/x/sync/errgroup"
)

// main is the application composition root.
// It wires the plan store, planner and executor behind the HTTP API.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
	}

	repo, err := newRepository(ctx, cfg.Database, conn, logger)
	if err != nil {
		return err
	}

	planner := services.NewPlanner(services.PlannerConfig{
		MaxAccel:           cfg.Planning.MaxAccel,
		AccelLimit:         cfg.Planning.AccelLimit,
		LaneChangeDuration: cfg.Planning.LaneChangeDuration,
		WindowShrinkFactor: cfg.Planning.WindowShrinkFactor,
		MinWindowSize:      cfg.Planning.MinWindowSize,
	}, repo, logger)

	// Without a simulated vehicle the executor only records commands and
	// reads a vehicle that stays at the route start.
	var (
		source ports.VehicleStateSource
		sink   domain.GuidanceCommands
	)
	if cfg.Execution.Simulate {
		sim := vehicle.NewSimulated(domain.VehicleState{})
		source, sink = sim, sim
	} else {
		source = staticState{}
	}
	recorder := commands.NewRecorder(sink, 0)
	executor := services.NewExecutor(source, recorder, logger)

	router := api.NewRouter(api.Deps{
		Planner:  planner,
		Repo:     repo,
		Executor: executor,
		Commands: recorder,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// The executor and the HTTP server share one lifetime: a signal or a
	// failure in either stops both.
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return executor.Run(gCtx, cfg.Execution.TickPeriod)
	})

	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newRepository migrates the schema for SQL stores and loads the optional seed file.
func newRepository(ctx context.Context, cfg config.DatabaseConfig, conn *sql.DB, logger *slog.Logger) (ports.PlanRepository, error) {
	var repo ports.PlanRepository
	switch cfg.Driver {
	case config.DriverMemory:
		repo = repositories.NewMemoryPlanRepository(logger)
	case config.DriverPostgres:
		pg := repositories.NewSQLPlanRepository(conn, logger)
		if err := pg.Migrate(); err != nil {
			return nil, fmt.Errorf("init repository: %w", err)
		}
		repo = pg
	default:
		lite := repositories.NewSqlitePlanRepository(conn, logger)
		if err := lite.Migrate(); err != nil {
			return nil, fmt.Errorf("init repository: %w", err)
		}
		repo = lite
	}

	if cfg.SeedPath != "" {
		if err := repositories.SeedFromJSON(ctx, repo, cfg.SeedPath); err != nil {
			return nil, fmt.Errorf("init repository: %w", err)
		}
	}
	return repo, nil
}

type staticState struct{}

func (staticState) State(context.Context) (domain.VehicleState, error) {
	return domain.VehicleState{}, nil
}
