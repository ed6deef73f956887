package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
// Se inactiva con Active=false; nunca se elimina mientras existan ítems de stock
// que la referencien.
type Warehouse struct {
	ID        string
	TenantID  string
	Code      string // único por tenant
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
