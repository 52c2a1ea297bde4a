package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/stateful-content/pkg/statefulcontent"
	"github.com/tendant/stateful-content/pkg/statefulcontent/api"
	"github.com/tendant/stateful-content/pkg/statefulcontent/config"
	"github.com/tendant/stateful-content/pkg/statefulcontent/metrics"
)

// ServerEnv holds process level settings. Content settings are read by
// config.WithEnv with the STATEFUL_CONTENT_ prefix.
type ServerEnv struct {
	Host            string        `env:"HOST" env-default:"0.0.0.0"`
	Port            string        `env:"PORT" env-default:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"60s"`
}

const envPrefix = "STATEFUL_CONTENT_"

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	var env ServerEnv
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("Failed to read environment", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(env.LogLevel)}))
	slog.SetDefault(logger)

	cfg, err := config.Load(config.WithPort(env.Port), config.WithEnv(envPrefix))
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewRecorder(reg)
	if err != nil {
		slog.Error("Failed to register metrics", "err", err)
		os.Exit(1)
	}

	svc, err := cfg.BuildService(
		statefulcontent.WithLogger(logger),
		statefulcontent.WithMetrics(recorder),
	)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}
	services := statefulcontent.NewServiceContext(svc)

	r := newRouter(services, reg, logger, env.RequestTimeout)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", env.Host, cfg.Port),
		Handler: r,
	}

	go func() {
		slog.Info("Server starting", "addr", server.Addr, "backend", cfg.Backend, "api_mode", cfg.APIMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func newRouter(services *statefulcontent.ServiceContext, reg *prometheus.Registry, logger *slog.Logger, timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))

	r.Mount("/api/v1", api.NewContentHandler(services, logger).Routes())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
