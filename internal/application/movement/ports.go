package movement

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el coordinador:
// o todas las escrituras de la operación quedan visibles, o ninguna.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockItemRepository,
		txnRepo repository.InventoryTransactionRepository,
		lotRepo repository.LotRepository,
	) error) error
}

// EventPublisher puerto hacia el pipeline de publicación (dedup, breaker,
// limiter). Allow se consulta en la entrada de la operación; Publish solo
// después del commit, y su error nunca revierte la mutación del libro.
type EventPublisher interface {
	Allow(callerKey string) error
	Publish(ctx context.Context, ev events.Event) error
}
