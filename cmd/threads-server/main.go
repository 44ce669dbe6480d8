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
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/webthreads/internal/config"
	"github.com/pribylovaa/webthreads/internal/events"
	threadshttp "github.com/pribylovaa/webthreads/internal/http"
	"github.com/pribylovaa/webthreads/internal/http/middleware"
	"github.com/pribylovaa/webthreads/internal/service"
	"github.com/pribylovaa/webthreads/internal/storage"
	"github.com/pribylovaa/webthreads/internal/storage/memory"
	wtmongo "github.com/pribylovaa/webthreads/internal/storage/mongo"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting threads-server", "env", cfg.Env, "driver", cfg.DB.Driver)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	st, err := openStorage(dbCtx, cfg)
	dbCancel()
	if err != nil {
		log.Error("storage_open_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("storage_ready", "driver", cfg.DB.Driver)

	var pub events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled() {
		pub = events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		log.Info("kafka_publisher_enabled", "topic", cfg.Kafka.Topic)
	}

	svc := service.New(st, pub, *cfg)
	log.Info("service_initialized")

	var ready atomic.Bool

	api := threadshttp.NewRouter(svc, threadshttp.Options{
		Logger:   log,
		Timeout:  cfg.Timeouts.Service,
		BasePath: cfg.HTTP.BasePath,
		Metrics:  middleware.NewMetrics(prometheus.DefaultRegisterer),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", "addr", httpSrv.Addr, "base_path", cfg.HTTP.BasePath)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	ready.Store(true)

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	ready.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
		_ = httpSrv.Close()
	}

	if err := pub.Close(); err != nil {
		log.Warn("publisher_close_failed", slog.String("err", err.Error()))
	}
	if err := st.Close(shutdownCtx); err != nil {
		log.Warn("storage_close_failed", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// openStorage выбирает хранилище по db.driver.
func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.DB.Driver {
	case config.DriverMongo:
		m, err := wtmongo.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
