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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"regdesk/internal/availability"
	availabilityhandler "regdesk/internal/availability/handler"
	"regdesk/internal/events"
	"regdesk/internal/events/kafka"
	httpapi "regdesk/internal/http"
	"regdesk/internal/platform/config"
	"regdesk/internal/platform/httpserver"
	"regdesk/internal/platform/logger"
	"regdesk/internal/platform/metrics"
	registrationhandler "regdesk/internal/registration/handler"
	registrationmetrics "regdesk/internal/registration/metrics"
	"regdesk/internal/registration/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registration API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger.New(cfg.Server))
	},
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := openRegistry(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s registry: %w", cfg.Registry.Backend, err)
	}
	defer store.Close()

	sink, closeSink := eventSink(ctx, cfg.Events, log)
	defer closeSink()
	publisher := events.NewAsync(sink, cfg.Events.Buffer,
		events.WithLogger(log),
		events.WithMetrics(events.NewMetrics(reg)),
	)

	registrations, err := service.New(store,
		service.WithLogger(log),
		service.WithMetrics(registrationmetrics.New(reg)),
		service.WithPublisher(publisher),
	)
	if err != nil {
		return err
	}
	checker, err := availability.New(store,
		availability.WithLogger(log),
		availability.WithMetrics(availability.NewMetrics(reg)),
	)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Health:         store,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Handlers: []httpapi.Registrar{
			registrationhandler.New(registrations, log),
			availabilityhandler.New(checker, log),
		},
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting regdesk",
		"addr", cfg.Server.Addr,
		"backend", string(cfg.Registry.Backend),
		"env", cfg.Server.Environment,
	)
	return run(ctx, srv, publisher, cfg.Server.ShutdownTimeout, log)
}

type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type worker interface {
	Run(ctx context.Context) error
}

// run serves until ctx is cancelled or the listener fails. The event worker
// outlives the server so events from in-flight requests are still delivered.
func run(ctx context.Context, srv server, publisher worker, shutdownTimeout time.Duration, log *slog.Logger) error {
	pubCtx, stopPublisher := context.WithCancel(context.WithoutCancel(ctx))
	defer stopPublisher()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return publisher.Run(pubCtx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer stopPublisher()
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// eventSink picks Kafka when brokers are configured, the log otherwise.
func eventSink(ctx context.Context, cfg config.Events, log *slog.Logger) (events.Publisher, func()) {
	if len(cfg.Brokers) == 0 {
		return events.NewLogPublisher(log), func() {}
	}
	pub, err := kafka.New(cfg.Brokers, cfg.Topic, log)
	if err != nil {
		log.Warn("kafka unavailable, logging events instead", "error", err)
		return events.NewLogPublisher(log), func() {}
	}
	topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pub.EnsureTopic(topicCtx, 1, 1); err != nil {
		log.Warn("could not ensure event topic", "topic", cfg.Topic, "error", err)
	}
	return pub, pub.Close
}
