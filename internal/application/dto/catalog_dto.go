package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// CreateWarehouseRequest body para POST /api/warehouses.
type CreateWarehouseRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// WarehouseResponse proyección de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToWarehouseResponse mapea la entidad a la respuesta HTTP.
func ToWarehouseResponse(w *entity.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
	}
}

// CreateLocationRequest body para POST /api/warehouses/:id/locations.
type CreateLocationRequest struct {
	Code          string `json:"code"`
	Type          string `json:"type"` // shelf, dock, bulk
	CapacityUnits *int64 `json:"capacity_units,omitempty"`
}

// LocationResponse proyección de una ubicación.
type LocationResponse struct {
	ID            string `json:"id"`
	WarehouseID   string `json:"warehouse_id"`
	Code          string `json:"code"`
	Type          string `json:"type"`
	CapacityUnits *int64 `json:"capacity_units,omitempty"`
}

// ToLocationResponse mapea la entidad a la respuesta HTTP.
func ToLocationResponse(l *entity.Location) LocationResponse {
	return LocationResponse{
		ID:            l.ID,
		WarehouseID:   l.WarehouseID,
		Code:          l.Code,
		Type:          l.Type,
		CapacityUnits: l.CapacityUnits,
	}
}

// LotResponse proyección de un lote del catálogo.
type LotResponse struct {
	ID             string     `json:"id"`
	SKU            string     `json:"sku"`
	LotNumber      string     `json:"lot_number"`
	ProductionDate *time.Time `json:"production_date,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToLotResponse mapea la entidad a la respuesta HTTP.
func ToLotResponse(l *entity.Lot) LotResponse {
	return LotResponse{
		ID:             l.ID,
		SKU:            l.SKU,
		LotNumber:      l.LotNumber,
		ProductionDate: l.ProductionDate,
		ExpiryDate:     l.ExpiryDate,
		CreatedAt:      l.CreatedAt,
	}
}

// ArticleResponse agregado por SKU: lotes registrados y cantidad total en stock.
type ArticleResponse struct {
	SKU           string          `json:"sku"`
	LotCount      int64           `json:"lot_count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// ToArticleResponse mapea el resumen del repositorio a la respuesta HTTP.
func ToArticleResponse(a *repository.ArticleSummary) ArticleResponse {
	return ArticleResponse{
		SKU:           a.SKU,
		LotCount:      a.LotCount,
		TotalQuantity: a.TotalQuantity,
	}
}
