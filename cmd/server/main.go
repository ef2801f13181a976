// Package main is the entry point for the todo API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/todo-api/internal/config"
	"github.com/vyrodovalexey/todo-api/internal/model"
	"github.com/vyrodovalexey/todo-api/internal/server"
	"github.com/vyrodovalexey/todo-api/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		// Use a basic logger for startup errors
		basicLogger, _ := zap.NewProduction()
		basicLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		basicLogger, _ := zap.NewProduction()
		basicLogger.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.String("environment", cfg.Environment),
		zap.Bool("memory_store", cfg.UseMemoryStore()),
		zap.String("id_type", cfg.IDType),
	)

	ctx := context.Background()

	var (
		srv        *server.Server
		closeStore func() error
	)
	switch cfg.IDType {
	case config.IDTypeUUID:
		todos, err := openStore[uuid.UUID](ctx, cfg, logger, store.NewUUIDKeys())
		if err != nil {
			logger.Error("failed to open todo store", zap.Error(err))
			return 1
		}
		srv, closeStore = server.New(cfg, logger, todos), todos.Close
	default:
		todos, err := openStore[int64](ctx, cfg, logger, store.NewIntKeys())
		if err != nil {
			logger.Error("failed to open todo store", zap.Error(err))
			return 1
		}
		srv, closeStore = server.New(cfg, logger, todos), todos.Close
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close todo store", zap.Error(err))
		}
	}()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", zap.Error(err))
		return 1
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return 1
		}
	}

	logger.Info("server stopped")
	return 0
}

// openStore opens the configured backend, wraps it in a TodoStore and seeds
// it when empty.
func openStore[K model.ID](
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	keys store.KeyStrategy[K],
) (*store.TodoStore[K], error) {
	var backend store.Backend[K]
	if cfg.UseMemoryStore() {
		backend = store.NewMemoryBackend[K]()
	} else {
		sqlite, err := store.OpenSQLite[K](ctx, cfg.DatabaseURL, keys)
		if err != nil {
			return nil, err
		}
		backend = sqlite
	}

	todos, err := store.Open[K](ctx, backend, keys)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	seed, err := seedTodos(cfg)
	if err != nil {
		_ = todos.Close()
		return nil, err
	}

	created, err := store.Seed[K](ctx, todos, seed)
	if err != nil {
		_ = todos.Close()
		return nil, err
	}
	if created > 0 {
		logger.Info("todo store seeded", zap.Int("count", created), zap.String("seed_file", cfg.SeedFile))
	}

	return todos, nil
}

// seedTodos returns the todos an empty store starts with: the seed file when
// configured, otherwise the built-in defaults unless they are disabled.
func seedTodos(cfg *config.Config) ([]model.CreateTodoInput, error) {
	if cfg.SeedFile != "" {
		todos, err := store.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("loading seed file: %w", err)
		}
		return todos, nil
	}

	if cfg.SeedDefaults {
		return store.DefaultSeed(), nil
	}

	return nil, nil
}

// initLogger initializes a zap logger with the specified log level.
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}
