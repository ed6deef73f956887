package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryTransactionRepository define el puerto del log append-only de
// transacciones de inventario. No hay Update ni Delete.
type InventoryTransactionRepository interface {
	Append(ctx context.Context, tx *entity.InventoryTransaction) error
	// ListByLot devuelve todas las transacciones que tocaron cualquier StockItem
	// del lote, en todas las bodegas, ordenadas por created_at ascendente.
	ListByLot(ctx context.Context, tenantID, lotID string) ([]*entity.InventoryTransaction, error)
	ListByStockItem(ctx context.Context, tenantID, stockItemID string, limit, offset int) ([]*entity.InventoryTransaction, error)
}
