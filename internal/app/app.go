package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/nkosarev/picshare/config"
	"github.com/nkosarev/picshare/internal/controller/worker/thumbnail"
	"github.com/nkosarev/picshare/internal/infrastructure"
	infrainmem "github.com/nkosarev/picshare/internal/infrastructure/inmem"
	infrarabbit "github.com/nkosarev/picshare/internal/infrastructure/rabbitmq"
	"github.com/nkosarev/picshare/internal/repo"
	"github.com/nkosarev/picshare/internal/repo/filestore"
	"github.com/nkosarev/picshare/internal/repo/persistent"
	"github.com/nkosarev/picshare/pkg/clock"
	"github.com/nkosarev/picshare/pkg/httpserver"
	"github.com/nkosarev/picshare/pkg/logger"
	"github.com/nkosarev/picshare/pkg/postgres"
	"github.com/nkosarev/picshare/pkg/rabbitmq"
	"github.com/nkosarev/picshare/pkg/s3client"
)

// eventBus is what app needs from either bus driver.
type eventBus interface {
	infrastructure.EventBus
	Shutdown(ctx context.Context) error
}

// Run wires and starts the event-core daemon: the bus consumer with the
// thumbnail worker plus the ops HTTP surface. The API process that accepts
// uploads and share calls consumes the usecase packages as a library; it is
// not part of this binary.
func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	clk := clock.NewSystem()

	// Repository

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	// blob storage
	var files repo.FileStore
	switch cfg.Storage.Driver {
	case "s3":
		s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
		defer s3Cancel()

		s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
		}

		files = filestore.NewS3(s3c, cfg.S3.Bucket)
	case "local":
		files = filestore.NewLocal(cfg.Storage.Root)
	default:
		l.Fatal(fmt.Errorf("app - Run - unknown storage driver: %s", cfg.Storage.Driver))
	}

	// Message Bus
	var bus eventBus
	var rmq *rabbitmq.RabbitMQ

	switch cfg.Bus.Driver {
	case "rabbitmq":
		rmq, err = rabbitmq.New(cfg.Bus.URL, cfg.Bus.Exchange)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - rabbitmq.New: %w", err))
		}

		bus = infrarabbit.NewEventBus(rmq, l, clk, cfg.Bus.Workers)
	case "memory":
		bus = infrainmem.NewEventBus(l, clk, cfg.Bus.Workers)
	default:
		l.Fatal(fmt.Errorf("app - Run - unknown bus driver: %s", cfg.Bus.Driver))
	}

	// Thumbnail Worker
	thumbnailWorker := thumbnail.New(
		persistent.NewImageMetadataRepo(pg),
		files,
		bus,
		l,
	)

	err = thumbnailWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - thumbnailWorker.Start: %w", err))
	}

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port))
	httpServer.App.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	httpServer.App.Get("/ready", func(c *fiber.Ctx) error {
		if err := pg.Pool.Ping(c.Context()); err != nil {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}
		return c.SendString("ok")
	})
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	cancel()

	busShutdownCtx, busShutdownCancel := context.WithTimeout(context.Background(), cfg.Bus.ShutdownTimeout)
	defer busShutdownCancel()
	err = bus.Shutdown(busShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - bus.Shutdown: %w", err))
	}

	if rmq != nil {
		err = rmq.Close()
		if err != nil {
			l.Error(fmt.Errorf("app - Run - rmq.Close: %w", err))
		}
	}
}
