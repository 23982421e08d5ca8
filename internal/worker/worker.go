package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/eventsapp/internal/notifications"
)

// Source yields broker deliveries until ctx is done.
type Source interface {
	Deliveries(ctx context.Context) (<-chan notifications.Delivery, error)
}

// Handler performs the side effect for one registration, e.g. the confirmation mail.
type Handler interface {
	Handle(ctx context.Context, msg notifications.RegistrationCreated) error
}

// Observer is satisfied by *observability.Prom.
type Observer interface {
	ObserveWorker(result string)
}

type Config struct {
	Concurrency   int
	MaxAttempts   int
	HandleTimeout time.Duration
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
}

type Worker struct {
	cfg     Config
	src     Source
	handler Handler
	log     *slog.Logger
	obs     Observer

	// sleep waits d or until ctx ends; swapped in tests
	sleep func(ctx context.Context, d time.Duration) error

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, src Source, handler Handler, log *slog.Logger, obs Observer) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.HandleTimeout <= 0 {
		cfg.HandleTimeout = 10 * time.Second
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 2 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:     cfg,
		src:     src,
		handler: handler,
		log:     log,
		obs:     obs,
		sleep:   sleepCtx,
	}
}

// Run consumes until ctx is cancelled and every in-flight message is settled.
func (w *Worker) Run(ctx context.Context) error {
	deliveries, err := w.src.Deliveries(ctx)
	if err != nil {
		return err
	}

	w.setReady(true)
	defer w.setReady(false)

	w.log.Info("worker started", "concurrency", w.cfg.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range deliveries {
				w.ProcessOne(ctx, d)
			}
		}()
	}

	wg.Wait()
	w.log.Info("worker received shutdown signal")
	return nil
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) observe(result string) {
	if w.obs != nil {
		w.obs.ObserveWorker(result)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
