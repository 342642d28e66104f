// Package main boots the order service: event log, outbox relay, projection
// consumer and HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/orderflow/ordersvc/internal/api"
	"github.com/orderflow/ordersvc/internal/command"
	"github.com/orderflow/ordersvc/internal/config"
	"github.com/orderflow/ordersvc/internal/eventlog"
	"github.com/orderflow/ordersvc/internal/messaging"
	"github.com/orderflow/ordersvc/internal/messaging/channel"
	kafkamsg "github.com/orderflow/ordersvc/internal/messaging/kafka"
	"github.com/orderflow/ordersvc/internal/obs"
	"github.com/orderflow/ordersvc/internal/outbox"
	"github.com/orderflow/ordersvc/internal/projection"
	"github.com/orderflow/ordersvc/internal/readmodel"
)

func main() {
	cfg := config.Load()
	obs.InitLogger(slog.LevelInfo)
	obs.Logger.Info("service_starting")

	// run owns every resource; exiting from here would skip its defers.
	if err := run(cfg); err != nil {
		obs.Logger.Error("service_failed", "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("service_stopped")
}

func run(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Event log + outbox storage. Without a DSN the in-memory log keeps the
	// whole flow runnable in one process.
	var (
		log     eventlog.Store
		obStore outbox.Store
	)
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		pg := eventlog.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		log, obStore = pg, pg
	} else {
		mem := eventlog.NewMemory()
		log, obStore = mem, mem
		obs.Logger.Warn("eventlog_in_memory")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	views := readmodel.NewRedis(rdb)
	consumer := projection.NewConsumer(views)

	// Publisher + consumer loop. With brokers configured the relay feeds
	// Kafka and a consumer group drives the projection; without, an
	// in-process channel closes the loop.
	var publisher messaging.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafkamsg.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp

		kc := kafkamsg.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, consumer)
		defer kc.Close()
		go func() {
			if err := kc.Run(ctx); err != nil {
				obs.Logger.Error("consumer_stopped", "error", err)
			}
		}()
	} else {
		ch := channel.New(256)
		go ch.Run(ctx, consumer)
		publisher = ch
		obs.Logger.Warn("broker_in_process")
	}

	relay := outbox.NewRelay(obStore, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	go relay.Run(ctx)

	app := api.NewApp(command.NewHandlers(log), views)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		obs.Logger.Info("shutdown_signal")
	case err := <-srvErr:
		runErr = fmt.Errorf("http server: %w", err)
		cancel()
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	return runErr
}
