package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ArticleSummary resumen por SKU para listados: cantidad total y lotes activos.
type ArticleSummary struct {
	SKU           string
	LotCount      int64
	TotalQuantity decimal.Decimal
}

// LotRepository define el puerto del catálogo de lotes. Los atributos de un lote
// son write-once: no hay Update; una corrección requiere un lote nuevo.
type LotRepository interface {
	// GetOrCreate resuelve el lote por (tenant, sku, lotNumber) y lo crea en la
	// primera referencia. Las fechas solo aplican en la creación.
	GetOrCreate(ctx context.Context, tenantID, sku, lotNumber string, productionDate, expiryDate *time.Time) (*entity.Lot, error)
	GetByID(ctx context.Context, tenantID, id string) (*entity.Lot, error)
	GetBySKUAndNumber(ctx context.Context, tenantID, sku, lotNumber string) (*entity.Lot, error)
	// List lista lotes del tenant; search filtra por SKU o número de lote.
	List(ctx context.Context, tenantID, search string, limit, offset int) ([]*entity.Lot, error)
	// ListArticles agrupa por SKU con cantidad total en stock.
	ListArticles(ctx context.Context, tenantID, search string, limit, offset int) ([]*ArticleSummary, error)
}
