package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/profile"

	"prospero-server/internal/auth"
	"prospero-server/internal/corpus"
	"prospero-server/internal/middleware"
	"prospero-server/internal/server"
	"prospero-server/internal/shared/config"
	"prospero-server/internal/shared/database"
	"prospero-server/internal/shared/logger"
	"prospero-server/internal/shared/redis"
	"prospero-server/internal/universe"
	worldHandlers "prospero-server/internal/universe/handlers"
)

func main() {
	profileMode := flag.String("profile", "", "profile generation: cpu or mem")
	snapshotPath := flag.String("snapshot", "", "write the generated world as JSON to this path")
	serve := flag.Bool("serve", true, "serve the world over HTTP after generating it")
	issueToken := flag.String("issue-admin-token", "", "print an admin token for the given subject and exit")
	flag.Parse()

	if err := config.Init(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger.Init()
	cfg := config.GlobalConfig

	var issuer *auth.Issuer
	if cfg.AdminEnabled() {
		var err error
		issuer, err = auth.NewIssuer(cfg.Auth)
		if err != nil {
			log.Fatalf("Auth error: %v", err)
		}
	}

	if *issueToken != "" {
		if issuer == nil {
			log.Fatal("JWT_SECRET must be set to issue admin tokens")
		}
		token, err := issuer.Generate(*issueToken, auth.RoleAdmin)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, issuer, *profileMode, *snapshotPath, *serve); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, issuer *auth.Issuer, profileMode, snapshotPath string, serve bool) error {
	logger := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := db.RunMigrations(ctx, cfg.Database.MigrationsPath); err != nil {
			return err
		}
	}

	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	feed := worldHandlers.NewFeed(cfg.Frontend.URL, slog.Default())

	opts := []universe.ServiceOption{universe.WithNotifier(feed)}
	if db != nil {
		opts = append(opts, universe.WithStore(universe.NewRepository(db, slog.Default())))
	}
	if redisClient != nil {
		opts = append(opts, universe.WithCache(universe.NewRedisCache(redisClient.Client, cfg.Redis.TTL, slog.Default())))
	}

	source := corpus.FromConfig(cfg.Corpus)
	service := universe.NewService(source, cfg.NameGen, slog.Default(), opts...)
	params := universe.ParamsFromConfig(cfg.Simulation)

	logger.Info("Generating initial world",
		"map_seed", params.MapSeed,
		"systems", params.NumberOfSystems,
		"spread", params.SystemSpread,
		"corpus", source.Name(),
	)

	snapshot, err := generateProfiled(ctx, service, params, profileMode)
	if err != nil {
		return fmt.Errorf("initial generation failed: %w", err)
	}

	if snapshotPath != "" {
		if err := writeSnapshot(snapshotPath, snapshot); err != nil {
			return err
		}
		logger.Info("Snapshot written", "path", snapshotPath)
	}

	if !serve {
		return nil
	}

	return listen(ctx, cfg, db, service, feed, issuer)
}

func generateProfiled(ctx context.Context, service *universe.Service, params universe.Params, mode string) (*universe.Snapshot, error) {
	var option func(*profile.Profile)
	switch mode {
	case "":
		return service.Generate(ctx, params)
	case "cpu":
		option = profile.CPUProfile
	case "mem":
		option = profile.MemProfile
	default:
		return nil, fmt.Errorf("unknown profile mode %q", mode)
	}

	p := profile.Start(option, profile.ProfilePath("."), profile.NoShutdownHook)
	defer p.Stop()
	return service.Generate(ctx, params)
}

func writeSnapshot(path string, snapshot *universe.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func listen(ctx context.Context, cfg *config.Config, db *database.DB, service *universe.Service, feed *worldHandlers.Feed, issuer *auth.Issuer) error {
	logger := slog.With("component", "main", "operation", "listen")

	worldHandler := worldHandlers.NewWorldHandler(
		service,
		universe.ParamsFromConfig(cfg.Simulation),
		cfg.Simulation.MaxRequestSystems,
		slog.Default(),
	)
	mux := server.NewRoutes(db, service, worldHandler, feed, issuer, slog.Default()).Setup()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	defer rateLimiter.Stop()
	cors := middleware.NewCORS(cfg.Frontend)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      rateLimiter.Middleware(cors.Middleware(mux)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
