package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/eventsapp/internal/config"
	"github.com/geocoder89/eventsapp/internal/notifications"
	"github.com/geocoder89/eventsapp/internal/observability"
	"github.com/geocoder89/eventsapp/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	if cfg.RabbitMQURL == "" {
		log.Error("RABBITMQ_URL is required for the notification worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	consumer, err := notifications.NewAMQPConsumer(cfg.RabbitMQURL, cfg.RabbitMQQueue, workerID, cfg.WorkerConcurrency)
	if err != nil {
		log.Error("rabbitmq connect failed", "err", err)
		os.Exit(1)
	}

	defer consumer.Close()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	w := worker.New(worker.Config{
		Concurrency:   cfg.WorkerConcurrency,
		MaxAttempts:   cfg.WorkerMaxAttempts,
		HandleTimeout: 10 * time.Second,
		BaseBackoff:   2 * time.Second,
		MaxBackoff:    time.Minute,
	}, consumer, worker.NewLogConfirmations(log), log, prom)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	// health + metrics on a side port
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", w.HealthHandler(consumer))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID, "queue", cfg.RabbitMQQueue)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}
