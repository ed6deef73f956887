package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/application/retention"
)

var _ retention.Locker = (*AdvisoryLocker)(nil)

// AdvisoryLocker serializa trabajos entre instancias con advisory locks de
// sesión de PostgreSQL. El lock vive atado a una conexión dedicada del pool,
// así que se libera también si el proceso muere.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLocker(pool *pgxpool.Pool) *AdvisoryLocker {
	return &AdvisoryLocker{pool: pool}
}

// TryWithLock intenta tomar el lock identificado por key y, si lo consigue,
// ejecuta fn manteniéndolo. Devuelve acquired=false sin error cuando otra
// sesión ya lo posee.
func (l *AdvisoryLocker) TryWithLock(ctx context.Context, key string, fn func(context.Context) error) (bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire conn for advisory lock: %w", err)
	}
	defer conn.Release()

	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&acquired); err != nil {
		return false, fmt.Errorf("try advisory lock %q: %w", key, err)
	}
	if !acquired {
		return false, nil
	}
	defer func() {
		// Liberar con la misma conexión; si falla, cerrar la conexión basta
		// porque el lock es de sesión.
		var released bool
		_ = conn.QueryRow(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, key).Scan(&released)
	}()

	if err := fn(ctx); err != nil {
		return true, err
	}
	return true, nil
}
