package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger/internal/application/catalog"
	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/application/movement"
	infrakafka "github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	warehouseRepo := postgres.NewWarehouseRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	lotRepo := postgres.NewLotRepository(pool)
	txnRepo := postgres.NewInventoryTransactionRepository(pool)
	eventRepo := postgres.NewEventRecordRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Bus de eventos: Kafka si hay brokers configurados; en desarrollo los
	// eventos van al log.
	var bus events.BusClient
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaBus, err := infrakafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Kafka")
		}
		defer kafkaBus.Close()
		bus = kafkaBus
	} else {
		bus = events.BusClientFunc(func(_ context.Context, ev events.Event) error {
			log.Info().
				Str("event_id", ev.EventID).
				Str("event_type", ev.EventType).
				Str("aggregate_id", ev.AggregateID).
				Msg("evento (modo desarrollo, sin bus)")
			return nil
		})
	}

	publisher := events.NewPublisher(bus, eventRepo, events.NewLogAlertSink(log), log, events.Config{
		MaxAttempts:      cfg.Publisher.MaxAttempts,
		FailureThreshold: cfg.Publisher.FailureThreshold,
		OpenDuration:     time.Duration(cfg.Publisher.OpenSeconds) * time.Second,
		RatePerMinute:    cfg.Publisher.RatePerMinute,
	})

	movementUC := movement.NewMovementUseCase(txRunner, warehouseRepo, locationRepo, publisher, log)
	traceUC := movement.NewTraceUseCase(lotRepo, txnRepo, publisher, log)
	warehouseUC := catalog.NewWarehouseUseCase(warehouseRepo, locationRepo, publisher, log)
	lotUC := catalog.NewLotUseCase(lotRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		MovementUC:  movementUC,
		TraceUC:     traceUC,
		WarehouseUC: warehouseUC,
		LotUC:       lotUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
