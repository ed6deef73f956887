package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

const stockItemColumns = `id, tenant_id, warehouse_id, location_id, lot_id, quantity, reserved_quantity, created_at, updated_at`

// StockItemRepo implementación del libro de saldos sobre PostgreSQL. Las
// variantes ForUpdate emiten SELECT ... FOR UPDATE y solo tienen sentido con un
// Querier atado a la transacción del coordinador.
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

// GetOrCreateForUpdate resuelve la fila única por (warehouse, location, lot),
// creándola en cero si no existe, y la bloquea. El insert con ON CONFLICT DO
// NOTHING cubre la carrera de dos get-or-create concurrentes; el SELECT FOR
// UPDATE posterior serializa a los dos callers sobre la misma fila.
func (r *StockItemRepo) GetOrCreateForUpdate(ctx context.Context, tenantID, warehouseID, locationID, lotID string) (*entity.StockItem, error) {
	insert := `
		INSERT INTO stock_items (id, tenant_id, warehouse_id, location_id, lot_id, quantity, reserved_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, 0, now(), now())
		ON CONFLICT (warehouse_id, location_id, lot_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, uuid.New().String(), tenantID, warehouseID, locationID, lotID); err != nil {
		return nil, fmt.Errorf("insert stock item: %w", err)
	}
	query := `
		SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE tenant_id = $1 AND warehouse_id = $2 AND location_id = $3 AND lot_id = $4
		FOR UPDATE`
	item, err := r.scanOne(r.q.QueryRow(ctx, query, tenantID, warehouseID, locationID, lotID))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("stock item (%s,%s,%s) desapareció tras insertar", warehouseID, locationID, lotID)
	}
	return item, nil
}

// GetForUpdateByID carga y bloquea un ítem existente. Nil si no existe.
func (r *StockItemRepo) GetForUpdateByID(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	query := `
		SELECT ` + stockItemColumns + `
		FROM stock_items WHERE tenant_id = $1 AND id = $2
		FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, tenantID, id))
}

// FindForUpdateByLot resuelve el ítem por bodega+lote y lo bloquea. Con
// locationID vacío desempata por created_at, id ascendente: primera fila por
// orden de creación, nunca una elección arbitraria.
func (r *StockItemRepo) FindForUpdateByLot(ctx context.Context, tenantID, warehouseID, locationID, lotID string) (*entity.StockItem, error) {
	query := `
		SELECT ` + stockItemColumns + `
		FROM stock_items
		WHERE tenant_id = $1 AND warehouse_id = $2 AND lot_id = $3`
	args := []any{tenantID, warehouseID, lotID}
	if locationID != "" {
		query += ` AND location_id = $4`
		args = append(args, locationID)
	}
	query += `
		ORDER BY created_at, id
		LIMIT 1
		FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, args...))
}

// UpdateQuantity persiste la nueva cantidad del ítem bloqueado.
func (r *StockItemRepo) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	query := `UPDATE stock_items SET quantity = $2, updated_at = now() WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("update stock item quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("stock item %s no existe", id)
	}
	return nil
}

func (r *StockItemRepo) scanOne(row pgx.Row) (*entity.StockItem, error) {
	var s entity.StockItem
	err := row.Scan(&s.ID, &s.TenantID, &s.WarehouseID, &s.LocationID, &s.LotID,
		&s.Quantity, &s.ReservedQuantity, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return &s, nil
}
