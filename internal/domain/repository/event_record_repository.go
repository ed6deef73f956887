package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// EventRecordRepository define el puerto del almacén de eventos emitidos:
// deduplicación por EventID, estado de entrega y objetivo del barrido de retención.
type EventRecordRepository interface {
	// Insert persiste el registro asignando EventVersion monotónico por
	// (tenant, aggregate). Devuelve created=false si EventID ya existía (dedup),
	// sin modificar la fila existente.
	Insert(ctx context.Context, rec *entity.EventRecord) (created bool, err error)
	Get(ctx context.Context, eventID string) (*entity.EventRecord, error)
	MarkDelivered(ctx context.Context, eventID string, attempts int, at time.Time) error
	UpdateAttempts(ctx context.Context, eventID string, attempts int) error
	// DeleteOlderThan elimina registros del tenant anteriores al corte.
	DeleteOlderThan(ctx context.Context, tenantID string, cutoff time.Time) (int64, error)
	// AnonymizeOlderThan elimina las llaves sensibles del payload de extensiones
	// en registros anteriores al corte. Solo cuenta filas que aún tenían alguna de
	// las llaves, de modo que re-ejecutar es un no-op.
	AnonymizeOlderThan(ctx context.Context, tenantID string, cutoff time.Time, keys []string) (int64, error)
	// ListTenantIDs devuelve los tenants con registros (para el job de retención).
	ListTenantIDs(ctx context.Context) ([]string, error)
}
