package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación del catálogo de lotes sobre PostgreSQL.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// GetOrCreate resuelve por (tenant, sku, lot_number) y crea en la primera
// referencia. ON CONFLICT DO NOTHING + relectura cubre la carrera de dos
// creaciones concurrentes del mismo lote.
func (r *LotRepo) GetOrCreate(ctx context.Context, tenantID, sku, lotNumber string, productionDate, expiryDate *time.Time) (*entity.Lot, error) {
	existing, err := r.GetBySKUAndNumber(ctx, tenantID, sku, lotNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	query := `
		INSERT INTO lots (id, tenant_id, sku, lot_number, production_date, expiry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (tenant_id, sku, lot_number) DO NOTHING`
	_, err = r.q.Exec(ctx, query, uuid.New().String(), tenantID, sku, lotNumber, productionDate, expiryDate)
	if err != nil {
		return nil, fmt.Errorf("insert lot: %w", err)
	}
	lot, err := r.GetBySKUAndNumber(ctx, tenantID, sku, lotNumber)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("lot %s/%s desapareció tras insertar", sku, lotNumber)
	}
	return lot, nil
}

// GetByID obtiene un lote por ID dentro del tenant.
func (r *LotRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Lot, error) {
	query := `
		SELECT id, tenant_id, sku, lot_number, production_date, expiry_date, created_at
		FROM lots WHERE tenant_id = $1 AND id = $2`
	return r.scanOne(r.q.QueryRow(ctx, query, tenantID, id))
}

// GetBySKUAndNumber obtiene un lote por su llave natural.
func (r *LotRepo) GetBySKUAndNumber(ctx context.Context, tenantID, sku, lotNumber string) (*entity.Lot, error) {
	query := `
		SELECT id, tenant_id, sku, lot_number, production_date, expiry_date, created_at
		FROM lots WHERE tenant_id = $1 AND sku = $2 AND lot_number = $3`
	return r.scanOne(r.q.QueryRow(ctx, query, tenantID, sku, lotNumber))
}

// List lista lotes; search filtra por SKU o número de lote (prefijo/contiene).
func (r *LotRepo) List(ctx context.Context, tenantID, search string, limit, offset int) ([]*entity.Lot, error) {
	query := `
		SELECT id, tenant_id, sku, lot_number, production_date, expiry_date, created_at
		FROM lots WHERE tenant_id = $1`
	args := []any{tenantID}
	pos := 2
	if search != "" {
		query += fmt.Sprintf(" AND (sku ILIKE $%d OR lot_number ILIKE $%d)", pos, pos)
		args = append(args, "%"+search+"%")
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		var l entity.Lot
		if err := rows.Scan(&l.ID, &l.TenantID, &l.SKU, &l.LotNumber, &l.ProductionDate, &l.ExpiryDate, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// ListArticles agrupa por SKU con conteo de lotes y cantidad total en stock.
func (r *LotRepo) ListArticles(ctx context.Context, tenantID, search string, limit, offset int) ([]*repository.ArticleSummary, error) {
	query := `
		SELECT l.sku, COUNT(DISTINCT l.id), COALESCE(SUM(s.quantity), 0)
		FROM lots l
		LEFT JOIN stock_items s ON s.lot_id = l.id
		WHERE l.tenant_id = $1`
	args := []any{tenantID}
	pos := 2
	if search != "" {
		query += fmt.Sprintf(" AND l.sku ILIKE $%d", pos)
		args = append(args, "%"+search+"%")
		pos++
	}
	query += fmt.Sprintf(" GROUP BY l.sku ORDER BY l.sku LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()
	var list []*repository.ArticleSummary
	for rows.Next() {
		var a repository.ArticleSummary
		if err := rows.Scan(&a.SKU, &a.LotCount, &a.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

func (r *LotRepo) scanOne(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(&l.ID, &l.TenantID, &l.SKU, &l.LotNumber, &l.ProductionDate, &l.ExpiryDate, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return &l, nil
}
