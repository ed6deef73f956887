package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.EventRecordRepository = (*EventRecordRepo)(nil)

// EventRecordRepo implementación del almacén de eventos sobre PostgreSQL.
// event_id es la PK: la deduplicación es el ON CONFLICT del insert.
type EventRecordRepo struct {
	q Querier
}

// NewEventRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEventRecordRepository(q Querier) *EventRecordRepo {
	return &EventRecordRepo{q: q}
}

// versionInsertRetries reintentos del insert cuando dos publicaciones
// concurrentes del mismo agregado calculan la misma versión.
const versionInsertRetries = 5

// Insert persiste el registro asignando event_version monotónico por
// (tenant, aggregate) en el mismo statement. created=false si la llave ya
// existía; la fila previa no se toca.
//
// El subquery MAX+1 corre bajo el snapshot del statement, así que dos
// sesiones concurrentes pueden calcular la misma versión. El índice único
// ux_event_records_version (tenant_id, aggregate_id, event_version) rechaza
// a la segunda con 23505 y aquí se reintenta recalculando.
func (r *EventRecordRepo) Insert(ctx context.Context, rec *entity.EventRecord) (bool, error) {
	query := `
		INSERT INTO event_records (event_id, tenant_id, event_type, aggregate_id, aggregate_type,
			event_version, occurred_on, payload, extensions, attempt_count, delivered, created_at)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(event_version), 0) + 1 FROM event_records WHERE tenant_id = $2 AND aggregate_id = $4),
			$6, $7, $8, 0, false, now())
		ON CONFLICT (event_id) DO NOTHING
		RETURNING event_version`
	for attempt := 0; ; attempt++ {
		err := r.q.QueryRow(ctx, query,
			rec.EventID, rec.TenantID, rec.EventType, rec.AggregateID, rec.AggregateType,
			rec.OccurredOn, rec.Payload, rec.Extensions,
		).Scan(&rec.EventVersion)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, pgx.ErrNoRows):
			// Conflicto de llave event_id: el evento ya estaba registrado.
			return false, nil
		case isUniqueViolation(err) && attempt < versionInsertRetries:
			// Otra sesión ganó la versión calculada; recalcular.
			continue
		default:
			return false, fmt.Errorf("insert event record: %w", err)
		}
	}
}

// Get obtiene un registro por llave de idempotencia. Nil si no existe.
func (r *EventRecordRepo) Get(ctx context.Context, eventID string) (*entity.EventRecord, error) {
	query := `
		SELECT event_id, tenant_id, event_type, aggregate_id, aggregate_type,
			event_version, occurred_on, payload, extensions, attempt_count, delivered, delivered_at, created_at
		FROM event_records WHERE event_id = $1`
	var rec entity.EventRecord
	err := r.q.QueryRow(ctx, query, eventID).Scan(
		&rec.EventID, &rec.TenantID, &rec.EventType, &rec.AggregateID, &rec.AggregateType,
		&rec.EventVersion, &rec.OccurredOn, &rec.Payload, &rec.Extensions,
		&rec.AttemptCount, &rec.Delivered, &rec.DeliveredAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event record: %w", err)
	}
	return &rec, nil
}

// MarkDelivered marca el evento como entregado al bus.
func (r *EventRecordRepo) MarkDelivered(ctx context.Context, eventID string, attempts int, at time.Time) error {
	query := `UPDATE event_records SET delivered = true, delivered_at = $3, attempt_count = $2 WHERE event_id = $1`
	if _, err := r.q.Exec(ctx, query, eventID, attempts, at); err != nil {
		return fmt.Errorf("mark event delivered: %w", err)
	}
	return nil
}

// UpdateAttempts actualiza el contador de intentos de un evento sin entregar.
func (r *EventRecordRepo) UpdateAttempts(ctx context.Context, eventID string, attempts int) error {
	query := `UPDATE event_records SET attempt_count = $2 WHERE event_id = $1`
	if _, err := r.q.Exec(ctx, query, eventID, attempts); err != nil {
		return fmt.Errorf("update event attempts: %w", err)
	}
	return nil
}

// DeleteOlderThan elimina registros del tenant anteriores al corte.
func (r *EventRecordRepo) DeleteOlderThan(ctx context.Context, tenantID string, cutoff time.Time) (int64, error) {
	query := `DELETE FROM event_records WHERE tenant_id = $1 AND occurred_on < $2`
	cmd, err := r.q.Exec(ctx, query, tenantID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete event records: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// AnonymizeOlderThan elimina las llaves sensibles de extensions en sitio. El
// predicado ?| hace el barrido idempotente: solo toca (y cuenta) filas que aún
// conservan alguna de las llaves.
func (r *EventRecordRepo) AnonymizeOlderThan(ctx context.Context, tenantID string, cutoff time.Time, keys []string) (int64, error) {
	query := `
		UPDATE event_records SET extensions = extensions - $3::text[]
		WHERE tenant_id = $1 AND occurred_on < $2
		  AND extensions IS NOT NULL AND extensions ?| $3::text[]`
	cmd, err := r.q.Exec(ctx, query, tenantID, cutoff, keys)
	if err != nil {
		return 0, fmt.Errorf("anonymize event records: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// ListTenantIDs devuelve los tenants con registros de evento.
func (r *EventRecordRepo) ListTenantIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT tenant_id FROM event_records ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("list tenant ids: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
