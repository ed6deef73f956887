package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción del libro de inventario.
const (
	TransactionTypeRECEIPT    = "RECEIPT"
	TransactionTypeISSUE      = "ISSUE"
	TransactionTypeTRANSFER   = "TRANSFER"
	TransactionTypeADJUSTMENT = "ADJUSTMENT"
)

// InventoryTransaction es una entrada append-only del libro: cada mutación de
// Quantity en un StockItem escribe exactamente una fila, en la misma transacción
// de BD. Quantity se registra siempre positiva; la dirección la implica Type.
// Nunca se actualiza ni se elimina.
type InventoryTransaction struct {
	ID             string
	TenantID       string
	StockItemID    string
	Type           string // RECEIPT, ISSUE, TRANSFER, ADJUSTMENT
	Quantity       decimal.Decimal
	Reference      string // documento u orden que origina el movimiento
	FromLocationID *string
	ToLocationID   *string
	CreatedAt      time.Time
}
