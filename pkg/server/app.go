package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SetupScanner/internal/domain/repository"
	"SetupScanner/internal/scheduler"
	"SetupScanner/internal/service/ratelimit"
	"SetupScanner/internal/stream"
	"SetupScanner/internal/usecase"
	"SetupScanner/pkg/config"
	xhttp "SetupScanner/pkg/http"
	pkgkafka "SetupScanner/pkg/kafka"
	applogger "SetupScanner/pkg/logger"
)

const limiterSweepEvery = time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	streams    *stream.Manager
	feed       *usecase.LiveFeed
	scheduler  *scheduler.Scheduler
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	publisher  repository.ResultPublisher
	limiter    *ratelimit.Limiter
	httpServer *xhttp.Server
	cleanup    func()
}

// New creates a new App instance with all dependencies. consumer and publisher may be nil.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	streams *stream.Manager,
	feed *usecase.LiveFeed,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	publisher repository.ResultPublisher,
	limiter *ratelimit.Limiter,
	httpServer *xhttp.Server,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		streams:    streams,
		feed:       feed,
		scheduler:  sched,
		consumer:   consumer,
		kh:         kh,
		publisher:  publisher,
		limiter:    limiter,
		httpServer: httpServer,
	}
}

// SetCleanup registers a function run last during shutdown, after every component stopped.
func (a *App) SetCleanup(fn func()) { a.cleanup = fn }

// Start brings up every configured component. A failing component stops startup.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.Stream.Enabled {
		if err := a.feed.Start(ctx, a.cfg.Watchlist); err != nil {
			// partial watchlist failures are logged; the remaining symbols keep streaming
			a.log.Warn("live feed started with errors", applogger.Error(err))
		}
	}

	if err := a.scheduler.Register(); err != nil {
		return err
	}
	a.scheduler.Start()

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.limiter != nil {
		go a.sweepLimiter(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	return nil
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer stop()
	return a.Shutdown(shutdownCtx)
}

// Shutdown stops intake first (HTTP, Kafka, schedule), then streams, then the publisher.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")
	var errs []error

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if err := a.scheduler.Stop(ctx); err != nil {
		a.log.Warn("scheduler stop error", applogger.Error(err))
		errs = append(errs, err)
	}

	a.feed.Stop()
	if err := a.streams.Shutdown(ctx); err != nil {
		a.log.Warn("stream manager shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.cleanup != nil {
		a.cleanup()
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) sweepLimiter(ctx context.Context) {
	t := time.NewTicker(limiterSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(10 * limiterSweepEvery); n > 0 {
				a.log.Debug("rate limiter swept", applogger.Int("clients", n))
			}
		}
	}
}
