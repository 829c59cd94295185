package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomyedwab/hostsql/internal/config"
	sqlhost "github.com/tomyedwab/hostsql/sqlproxy/host"
	"github.com/tomyedwab/hostsql/wasi/host"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to the TOML config file")
	envFile := flag.String("env", ".env", "Path to a .env file loaded before the config")
	wasmFile := flag.String("wasm", "", "Path to the WASM component, overrides the config")
	listen := flag.String("listen", "", "Address for the HTTP server, overrides the config")
	flag.Parse()

	conf, err := config.FromFile(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *wasmFile != "" {
		conf.Wasm = *wasmFile
	}
	if *listen != "" {
		conf.Listen = *listen
	}
	if err := conf.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	level, _ := conf.SlogLevel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(conf, logger); err != nil {
		logger.Error("Service host exited", "error", err)
		os.Exit(1)
	}
}

func run(conf *config.Config, logger *slog.Logger) error {
	wasmBytes, err := os.ReadFile(conf.Wasm)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqliteHost := sqlhost.NewSQLiteHost(sqlhost.SQLiteConfig{
		Databases:     conf.SQLite.Databases,
		AllowedLabels: conf.SQLite.AllowedLabels,
		Logger:        logger.With("backend", "sqlite"),
	})
	defer sqliteHost.Close()

	var pgHost *sqlhost.PgHost
	if conf.Pg.Enabled {
		pgHost = sqlhost.NewPgHost(sqlhost.PgConfig{
			AllowedHosts: conf.Pg.AllowedHosts,
			Logger:       logger.With("backend", "pg"),
		})
		defer pgHost.Close(context.Background())
	}

	runtime, err := host.New(ctx, host.Config{
		SQLite: sqliteHost,
		Pg:     pgHost,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer runtime.Close(context.Background())

	if err := runtime.Load(ctx, wasmBytes); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    conf.Listen,
		Handler: runtime.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", "address", conf.Listen, "wasm", conf.Wasm)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
