package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/retention"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Job de retención de registros de evento. Corre como proceso separado del API:
// un barrido inmediato al arrancar y luego uno por intervalo. El advisory lock
// por tenant permite desplegar varias réplicas sin solape.
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
		Int("retention_days", cfg.Retention.Days).
		Int("anonymize_after_days", cfg.Retention.AnonymizeAfterDays).
		Int("interval_minutes", cfg.Retention.IntervalMinutes).
		Msg("iniciando job de retención")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	enforcer := retention.NewEnforceUseCase(
		postgres.NewEventRecordRepository(pool),
		postgres.NewAdvisoryLocker(pool),
		retention.Config{
			RetentionDays:      cfg.Retention.Days,
			AnonymizeAfterDays: cfg.Retention.AnonymizeAfterDays,
			AnonymizeKeys:      cfg.Retention.AnonymizeKeys,
		},
		log,
	)

	if err := enforcer.EnforceAll(ctx); err != nil {
		log.Error().Err(err).Msg("barrido inicial fallido")
	}

	ticker := time.NewTicker(time.Duration(cfg.Retention.IntervalMinutes) * time.Minute)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := enforcer.EnforceAll(ctx); err != nil {
				log.Error().Err(err).Msg("barrido periódico fallido")
			}
		case <-quit:
			log.Info().Msg("señal de apagado recibida, deteniendo job de retención")
			return
		}
	}
}
