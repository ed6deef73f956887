package catalog

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// LotUseCase consultas de solo lectura sobre el catálogo de lotes y artículos.
type LotUseCase struct {
	lotRepo repository.LotRepository
}

// NewLotUseCase construye el caso de uso.
func NewLotUseCase(lotRepo repository.LotRepository) *LotUseCase {
	return &LotUseCase{lotRepo: lotRepo}
}

// ListLots lista lotes del tenant; search filtra por SKU o número de lote.
func (uc *LotUseCase) ListLots(ctx context.Context, tenantID, search string, limit, offset int) ([]*entity.Lot, error) {
	return uc.lotRepo.List(ctx, tenantID, search, limit, offset)
}

// ListArticles lista resúmenes por SKU (lotes y cantidad total en stock).
func (uc *LotUseCase) ListArticles(ctx context.Context, tenantID, search string, limit, offset int) ([]*repository.ArticleSummary, error) {
	return uc.lotRepo.ListArticles(ctx, tenantID, search, limit, offset)
}
