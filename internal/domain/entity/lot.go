package entity

import "time"

// Lot representa un batch específico de un artículo, identificado por SKU + número
// de lote. Único por (tenant, sku, lot_number); inmutable una vez creado — una
// corrección requiere un lote nuevo.
type Lot struct {
	ID             string
	TenantID       string
	SKU            string
	LotNumber      string
	ProductionDate *time.Time
	ExpiryDate     *time.Time
	CreatedAt      time.Time
}
