package events

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento emitidos al bus externo.
const (
	TypeWarehouseCreated  = "inventory.warehouse.created"
	TypeLocationCreated   = "inventory.location.created"
	TypeGoodsReceived     = "inventory.goods.received"
	TypeStockTransferred  = "inventory.stock.transferred"
	TypeStockIssued       = "inventory.stock.issued"
	TypeStockAdjusted     = "inventory.stock.adjusted"
	TypeLotTraceRequested = "inventory.lot.trace.requested"
)

// Event es el sobre de un evento de dominio tal como viaja al bus.
// Data lleva los campos fijos de la operación; Extensions es el punto de
// extensión de esquema abierto (estilo EPCIS) para atributos adicionales.
type Event struct {
	EventID       string         `json:"eventId"`
	EventType     string         `json:"eventType"`
	AggregateID   string         `json:"aggregateId"`
	AggregateType string         `json:"aggregateType"`
	EventVersion  int64          `json:"eventVersion"`
	OccurredOn    time.Time      `json:"occurredOn"`
	TenantID      string         `json:"tenantId"`
	Data          map[string]any `json:"data"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// KeyFields campos EPCIS que determinan la llave de idempotencia cuando el
// caller no la suministra. Dos envíos con los mismos campos derivan el mismo
// EventID y por tanto deduplican.
type KeyFields struct {
	Type      string
	Time      time.Time
	BizStep   string
	ReadPoint string
	LotID     string
	SKU       string
	Quantity  decimal.Decimal
}

// DeriveEventID calcula la llave de idempotencia determinística (SHA-256 hex)
// a partir de los campos EPCIS del evento.
func DeriveEventID(f KeyFields) string {
	s := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s",
		f.Type, f.Time.UTC().Format(time.RFC3339Nano),
		f.BizStep, f.ReadPoint, f.LotID, f.SKU, f.Quantity.String(),
	)
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// keyFieldsFromEvent reconstruye los campos de derivación desde el sobre.
func keyFieldsFromEvent(ev Event) KeyFields {
	f := KeyFields{Type: ev.EventType, Time: ev.OccurredOn}
	if v, ok := ev.Extensions["bizStep"].(string); ok {
		f.BizStep = v
	}
	if v, ok := ev.Extensions["readPoint"].(string); ok {
		f.ReadPoint = v
	}
	if v, ok := ev.Data["lotId"].(string); ok {
		f.LotID = v
	}
	if v, ok := ev.Data["sku"].(string); ok {
		f.SKU = v
	}
	switch q := ev.Data["quantity"].(type) {
	case decimal.Decimal:
		f.Quantity = q
	case string:
		f.Quantity, _ = decimal.NewFromString(q)
	}
	return f
}
