package entity

import "time"

// EventRecord es el registro durable de un evento de dominio emitido al bus.
// EventID es la llave de idempotencia: un segundo intento con la misma llave no
// genera una nueva fila ni una nueva publicación si ya está Delivered.
// Es también el objetivo del barrido de retención (borrado / seudonimización);
// las InventoryTransaction quedan fuera por ser historia operativa.
type EventRecord struct {
	EventID       string
	TenantID      string
	EventType     string
	AggregateID   string
	AggregateType string
	EventVersion  int64 // monotónico por (tenant, aggregate)
	OccurredOn    time.Time
	Payload       map[string]any
	Extensions    map[string]any // extensiones de esquema abierto (estilo EPCIS)
	AttemptCount  int
	Delivered     bool
	DeliveredAt   *time.Time
	CreatedAt     time.Time
}
