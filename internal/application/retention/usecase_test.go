package retention_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/retention"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

// memEventRecords almacén de registros en memoria con la misma semántica de
// retención del adaptador PostgreSQL: el borrado y la seudonimización solo
// cuentan filas realmente afectadas.
type memEventRecords struct {
	mu   sync.Mutex
	recs map[string]*entity.EventRecord
}

func newMemEventRecords() *memEventRecords {
	return &memEventRecords{recs: make(map[string]*entity.EventRecord)}
}

func (r *memEventRecords) add(eventID, tenantID string, occurredOn time.Time, extensions map[string]any) {
	r.recs[eventID] = &entity.EventRecord{
		EventID:    eventID,
		TenantID:   tenantID,
		OccurredOn: occurredOn,
		Extensions: extensions,
	}
}

func (r *memEventRecords) Insert(_ context.Context, rec *entity.EventRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[rec.EventID]; ok {
		return false, nil
	}
	cp := *rec
	r.recs[rec.EventID] = &cp
	return true, nil
}

func (r *memEventRecords) Get(_ context.Context, eventID string) (*entity.EventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[eventID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *memEventRecords) MarkDelivered(context.Context, string, int, time.Time) error { return nil }
func (r *memEventRecords) UpdateAttempts(context.Context, string, int) error           { return nil }

func (r *memEventRecords) DeleteOlderThan(_ context.Context, tenantID string, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, rec := range r.recs {
		if rec.TenantID == tenantID && rec.OccurredOn.Before(cutoff) {
			delete(r.recs, id)
			n++
		}
	}
	return n, nil
}

func (r *memEventRecords) AnonymizeOlderThan(_ context.Context, tenantID string, cutoff time.Time, keys []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.recs {
		if rec.TenantID != tenantID || !rec.OccurredOn.Before(cutoff) || rec.Extensions == nil {
			continue
		}
		touched := false
		for _, k := range keys {
			if _, ok := rec.Extensions[k]; ok {
				delete(rec.Extensions, k)
				touched = true
			}
		}
		if touched {
			n++
		}
	}
	return n, nil
}

func (r *memEventRecords) ListTenantIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, rec := range r.recs {
		if !seen[rec.TenantID] {
			seen[rec.TenantID] = true
			out = append(out, rec.TenantID)
		}
	}
	return out, nil
}

// fakeLocker simula el advisory lock: held hace que el lock no se adquiera.
type fakeLocker struct {
	held bool
	keys []string
}

func (l *fakeLocker) TryWithLock(ctx context.Context, key string, fn func(context.Context) error) (bool, error) {
	l.keys = append(l.keys, key)
	if l.held {
		return false, nil
	}
	return true, fn(ctx)
}

// ──────────────────────────────────────────────────────────────────────────────
// EnforceRetention
// ──────────────────────────────────────────────────────────────────────────────

var testRetentionCfg = retention.Config{
	RetentionDays:      365,
	AnonymizeAfterDays: 90,
	AnonymizeKeys:      []string{"operator", "contact"},
}

func TestEnforceRetention_BorraYSeudonimizaPorHorizonte(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	records := newMemEventRecords()
	// Más antiguo que la retención: se borra.
	records.add("ev-old", "t1", now.AddDate(0, 0, -400), map[string]any{"operator": "ana"})
	// Dentro de retención pero pasado el horizonte corto: se seudonimiza.
	records.add("ev-mid", "t1", now.AddDate(0, 0, -120), map[string]any{"operator": "ana", "bizStep": "receiving"})
	// Reciente: intacto.
	records.add("ev-new", "t1", now.AddDate(0, 0, -10), map[string]any{"operator": "ana"})
	// Otro tenant: el barrido de t1 no lo toca.
	records.add("ev-other", "t2", now.AddDate(0, 0, -400), nil)

	uc := retention.NewEnforceUseCase(records, &fakeLocker{}, testRetentionCfg, logger.Nop())
	retention.SetNow(uc, func() time.Time { return now })

	res, err := uc.EnforceRetention(context.Background(), "t1")

	require.NoError(t, err)
	assert.Equal(t, int64(1), res.DeletedCount)
	assert.Equal(t, int64(1), res.AnonymizedCount)
	assert.False(t, res.Skipped)

	old, _ := records.Get(context.Background(), "ev-old")
	assert.Nil(t, old)

	mid, _ := records.Get(context.Background(), "ev-mid")
	require.NotNil(t, mid)
	assert.NotContains(t, mid.Extensions, "operator", "la llave sensible se elimina")
	assert.Contains(t, mid.Extensions, "bizStep", "las demás llaves permanecen")

	recent, _ := records.Get(context.Background(), "ev-new")
	require.NotNil(t, recent)
	assert.Contains(t, recent.Extensions, "operator")

	other, _ := records.Get(context.Background(), "ev-other")
	assert.NotNil(t, other, "el barrido por tenant no cruza tenants")
}

// Re-ejecutar el barrido sin registros nuevos es un no-op: los contadores
// vuelven en cero.
func TestEnforceRetention_Idempotente(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	records := newMemEventRecords()
	records.add("ev-old", "t1", now.AddDate(0, 0, -400), nil)
	records.add("ev-mid", "t1", now.AddDate(0, 0, -120), map[string]any{"operator": "ana"})

	uc := retention.NewEnforceUseCase(records, &fakeLocker{}, testRetentionCfg, logger.Nop())
	retention.SetNow(uc, func() time.Time { return now })

	first, err := uc.EnforceRetention(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), first.DeletedCount)
	require.Equal(t, int64(1), first.AnonymizedCount)

	second, err := uc.EnforceRetention(context.Background(), "t1")
	require.NoError(t, err)
	assert.Zero(t, second.DeletedCount)
	assert.Zero(t, second.AnonymizedCount)
}

// Si otro proceso sostiene el lock del tenant, el barrido se omite sin error.
func TestEnforceRetention_OmiteSiLockOcupado(t *testing.T) {
	records := newMemEventRecords()
	records.add("ev-old", "t1", time.Now().AddDate(-2, 0, 0), nil)

	uc := retention.NewEnforceUseCase(records, &fakeLocker{held: true}, testRetentionCfg, logger.Nop())

	res, err := uc.EnforceRetention(context.Background(), "t1")

	require.NoError(t, err)
	assert.True(t, res.Skipped)
	rec, _ := records.Get(context.Background(), "ev-old")
	assert.NotNil(t, rec, "sin lock no se toca nada")
}

// EnforceAll recorre todos los tenants con registros, cada uno bajo su lock.
func TestEnforceAll_BarreTodosLosTenants(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	records := newMemEventRecords()
	records.add("ev-1", "t1", now.AddDate(0, 0, -400), nil)
	records.add("ev-2", "t2", now.AddDate(0, 0, -400), nil)

	locker := &fakeLocker{}
	uc := retention.NewEnforceUseCase(records, locker, testRetentionCfg, logger.Nop())
	retention.SetNow(uc, func() time.Time { return now })

	require.NoError(t, uc.EnforceAll(context.Background()))

	assert.Len(t, locker.keys, 2)
	assert.Contains(t, locker.keys, "retention:t1")
	assert.Contains(t, locker.keys, "retention:t2")
	ids, _ := records.ListTenantIDs(context.Background())
	assert.Empty(t, ids, "todos los registros vencidos borrados")
}
