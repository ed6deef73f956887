package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockItemRepository define el puerto del libro de saldos. Las variantes ForUpdate
// bloquean la fila (SELECT ... FOR UPDATE) y solo tienen sentido dentro de la
// transacción abierta por el coordinador de movimientos: el lock se adquiere al
// resolver el ítem, se mantiene durante la mutación y se libera en el commit.
type StockItemRepository interface {
	// GetOrCreateForUpdate resuelve la fila única por (warehouse, location, lot),
	// creándola en cero si no existe, y la bloquea.
	GetOrCreateForUpdate(ctx context.Context, tenantID, warehouseID, locationID, lotID string) (*entity.StockItem, error)
	// GetForUpdateByID carga y bloquea un ítem existente. Nil si no existe.
	GetForUpdateByID(ctx context.Context, tenantID, id string) (*entity.StockItem, error)
	// FindForUpdateByLot resuelve el ítem por bodega+lote; locationID vacío admite
	// cualquier ubicación y desempata determinísticamente por created_at, id
	// ascendente (primera fila por orden de creación). Nil si no hay coincidencia.
	FindForUpdateByLot(ctx context.Context, tenantID, warehouseID, locationID, lotID string) (*entity.StockItem, error)
	// UpdateQuantity persiste la nueva cantidad del ítem bloqueado.
	UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error
}
