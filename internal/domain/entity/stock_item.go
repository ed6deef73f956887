package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem representa la cantidad de un lote en una ubicación de una bodega.
// La tripleta (WarehouseID, LocationID, LotID) es la llave natural: existe a lo
// sumo una fila por tripleta. Quantity solo la muta el coordinador de movimientos.
//
// Invariantes: Quantity >= 0 y ReservedQuantity <= Quantity.
type StockItem struct {
	ID               string
	TenantID         string
	WarehouseID      string
	LocationID       string
	LotID            string
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
