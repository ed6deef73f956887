package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.InventoryTransactionRepository = (*InventoryTransactionRepo)(nil)

// InventoryTransactionRepo implementación del log append-only sobre PostgreSQL.
// No expone Update ni Delete: el log es historia operativa inmutable.
type InventoryTransactionRepo struct {
	q Querier
}

// NewInventoryTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryTransactionRepository(q Querier) *InventoryTransactionRepo {
	return &InventoryTransactionRepo{q: q}
}

// Append persiste una transacción del libro.
func (r *InventoryTransactionRepo) Append(ctx context.Context, txn *entity.InventoryTransaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO inventory_transactions (id, tenant_id, stock_item_id, type, quantity, reference, from_location_id, to_location_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		txn.ID, txn.TenantID, txn.StockItemID, txn.Type, txn.Quantity,
		txn.Reference, txn.FromLocationID, txn.ToLocationID, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append inventory transaction: %w", err)
	}
	return nil
}

// ListByLot devuelve las transacciones de todos los ítems del lote, en todas
// las bodegas, ordenadas por created_at ascendente (cadena de custodia).
func (r *InventoryTransactionRepo) ListByLot(ctx context.Context, tenantID, lotID string) ([]*entity.InventoryTransaction, error) {
	query := `
		SELECT t.id, t.tenant_id, t.stock_item_id, t.type, t.quantity, t.reference, t.from_location_id, t.to_location_id, t.created_at
		FROM inventory_transactions t
		JOIN stock_items s ON s.id = t.stock_item_id
		WHERE t.tenant_id = $1 AND s.lot_id = $2
		ORDER BY t.created_at, t.id`
	rows, err := r.q.Query(ctx, query, tenantID, lotID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by lot: %w", err)
	}
	defer rows.Close()
	return r.scanRows(rows)
}

// ListByStockItem lista transacciones de un ítem con paginación, más recientes primero.
func (r *InventoryTransactionRepo) ListByStockItem(ctx context.Context, tenantID, stockItemID string, limit, offset int) ([]*entity.InventoryTransaction, error) {
	query := `
		SELECT id, tenant_id, stock_item_id, type, quantity, reference, from_location_id, to_location_id, created_at
		FROM inventory_transactions
		WHERE tenant_id = $1 AND stock_item_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, tenantID, stockItemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions by stock item: %w", err)
	}
	defer rows.Close()
	return r.scanRows(rows)
}

func (r *InventoryTransactionRepo) scanRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*entity.InventoryTransaction, error) {
	var list []*entity.InventoryTransaction
	for rows.Next() {
		var t entity.InventoryTransaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.StockItemID, &t.Type, &t.Quantity,
			&t.Reference, &t.FromLocationID, &t.ToLocationID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
