package entity

import "time"

// Tipos de ubicación dentro de una bodega.
const (
	LocationTypeShelf = "shelf"
	LocationTypeDock  = "dock"
	LocationTypeBulk  = "bulk"
)

// Location representa un slot físico o lógico dentro de una bodega donde
// reside cantidad de stock. Code es único dentro de la bodega.
type Location struct {
	ID            string
	WarehouseID   string
	Code          string
	Type          string // shelf, dock, bulk
	CapacityUnits *int64 // opcional
	CreatedAt     time.Time
}
