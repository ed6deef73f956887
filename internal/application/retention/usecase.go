package retention

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Locker single-flight por llave: fn corre solo si el lock se adquiere; si otro
// proceso lo sostiene, acquired=false y fn no se ejecuta.
type Locker interface {
	TryWithLock(ctx context.Context, key string, fn func(context.Context) error) (acquired bool, err error)
}

// Config horizontes del barrido de retención.
type Config struct {
	RetentionDays      int      // registros anteriores a este horizonte se borran
	AnonymizeAfterDays int      // horizonte más corto: se seudonimizan en sitio
	AnonymizeKeys      []string // llaves sensibles a eliminar de extensions
}

// Result resultado de un barrido por tenant.
type Result struct {
	DeletedCount    int64
	AnonymizedCount int64
	Skipped         bool // otro barrido del mismo tenant estaba en curso
}

// EnforceUseCase barrido periódico de retención sobre los registros de evento:
// borra los anteriores al horizonte de retención y seudonimiza (elimina llaves
// sensibles del payload de extensiones, en sitio) los anteriores al horizonte
// corto. Idempotente: re-ejecutar sobre registros ya procesados es un no-op.
// Las transacciones del libro no se tocan; son historia operativa con retención
// separada.
type EnforceUseCase struct {
	records repository.EventRecordRepository
	locker  Locker
	cfg     Config
	log     *logger.Logger
	now     func() time.Time
}

// NewEnforceUseCase construye el enforcer.
func NewEnforceUseCase(records repository.EventRecordRepository, locker Locker, cfg Config, log *logger.Logger) *EnforceUseCase {
	return &EnforceUseCase{records: records, locker: locker, cfg: cfg, log: log, now: time.Now}
}

// EnforceRetention ejecuta el barrido para un tenant bajo advisory lock: el job
// no debe solaparse consigo mismo por tenant.
func (uc *EnforceUseCase) EnforceRetention(ctx context.Context, tenantID string) (Result, error) {
	var res Result
	acquired, err := uc.locker.TryWithLock(ctx, "retention:"+tenantID, func(ctx context.Context) error {
		now := uc.now().UTC()

		deleteCutoff := now.AddDate(0, 0, -uc.cfg.RetentionDays)
		deleted, err := uc.records.DeleteOlderThan(ctx, tenantID, deleteCutoff)
		if err != nil {
			return err
		}
		res.DeletedCount = deleted

		anonCutoff := now.AddDate(0, 0, -uc.cfg.AnonymizeAfterDays)
		if len(uc.cfg.AnonymizeKeys) > 0 {
			anonymized, err := uc.records.AnonymizeOlderThan(ctx, tenantID, anonCutoff, uc.cfg.AnonymizeKeys)
			if err != nil {
				return err
			}
			res.AnonymizedCount = anonymized
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if !acquired {
		uc.log.Debug().Str("tenant_id", tenantID).Msg("barrido de retención ya en curso, se omite")
		return Result{Skipped: true}, nil
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Int64("deleted", res.DeletedCount).
		Int64("anonymized", res.AnonymizedCount).
		Msg("barrido de retención completado")
	return res, nil
}

// EnforceAll ejecuta el barrido para todos los tenants con registros.
func (uc *EnforceUseCase) EnforceAll(ctx context.Context) error {
	tenants, err := uc.records.ListTenantIDs(ctx)
	if err != nil {
		return err
	}
	for _, tenantID := range tenants {
		if _, err := uc.EnforceRetention(ctx, tenantID); err != nil {
			uc.log.Error().Err(err).Str("tenant_id", tenantID).Msg("barrido de retención fallido")
		}
	}
	return nil
}
