package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReceiveRequest body para POST /api/movements/receipts.
type ReceiveRequest struct {
	WarehouseID    string          `json:"warehouse_id"`
	LocationID     string          `json:"location_id"`
	SKU            string          `json:"sku"`
	LotNumber      string          `json:"lot_number"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reference      string          `json:"reference"`
	ProductionDate *time.Time      `json:"production_date,omitempty"`
	ExpiryDate     *time.Time      `json:"expiry_date,omitempty"`
	EventID        string          `json:"event_id,omitempty"` // llave de idempotencia opcional
}

// TransferRequest body para POST /api/movements/transfers. El origen va por
// source_stock_item_id o por la tripleta (bodega, ubicación, lote).
type TransferRequest struct {
	SourceStockItemID string          `json:"source_stock_item_id,omitempty"`
	SourceWarehouseID string          `json:"source_warehouse_id,omitempty"`
	SourceLocationID  string          `json:"source_location_id,omitempty"`
	LotID             string          `json:"lot_id,omitempty"`
	DestWarehouseID   string          `json:"dest_warehouse_id"`
	DestLocationID    string          `json:"dest_location_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	Reference         string          `json:"reference"`
	EventID           string          `json:"event_id,omitempty"`
}

// IssueRequest body para POST /api/movements/issues. El lote va por lot_id o
// por (sku, lot_number); location_id desambigua si el lote reside en varias
// ubicaciones de la bodega.
type IssueRequest struct {
	WarehouseID string          `json:"warehouse_id"`
	LocationID  string          `json:"location_id,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	LotID       string          `json:"lot_id,omitempty"`
	LotNumber   string          `json:"lot_number,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reference   string          `json:"reference"`
	EventID     string          `json:"event_id,omitempty"`
}

// AdjustRequest body para POST /api/movements/adjustments. Quantity es la
// magnitud a descontar; el saldo se fija en cero si la excede.
type AdjustRequest struct {
	WarehouseID string          `json:"warehouse_id"`
	LocationID  string          `json:"location_id,omitempty"`
	SKU         string          `json:"sku,omitempty"`
	LotID       string          `json:"lot_id,omitempty"`
	LotNumber   string          `json:"lot_number,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reference   string          `json:"reference"`
	EventID     string          `json:"event_id,omitempty"`
}

// StockItemResponse proyección de un ítem de stock.
type StockItemResponse struct {
	ID               string          `json:"id"`
	WarehouseID      string          `json:"warehouse_id"`
	LocationID       string          `json:"location_id"`
	LotID            string          `json:"lot_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReservedQuantity decimal.Decimal `json:"reserved_quantity"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToStockItemResponse mapea la entidad a la respuesta HTTP.
func ToStockItemResponse(item *entity.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:               item.ID,
		WarehouseID:      item.WarehouseID,
		LocationID:       item.LocationID,
		LotID:            item.LotID,
		Quantity:         item.Quantity,
		ReservedQuantity: item.ReservedQuantity,
		UpdatedAt:        item.UpdatedAt,
	}
}

// TransactionResponse una entrada del libro en la traza de un lote.
type TransactionResponse struct {
	ID             string          `json:"id"`
	StockItemID    string          `json:"stock_item_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	Reference      string          `json:"reference"`
	FromLocationID *string         `json:"from_location_id,omitempty"`
	ToLocationID   *string         `json:"to_location_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TraceResponse respuesta de GET /api/lots/:id/trace: el historial completo del
// lote en orden cronológico ascendente.
type TraceResponse struct {
	LotID        string                `json:"lot_id"`
	Transactions []TransactionResponse `json:"transactions"`
}

// ToTraceResponse mapea el historial a la respuesta HTTP.
func ToTraceResponse(lotID string, txns []*entity.InventoryTransaction) TraceResponse {
	out := TraceResponse{LotID: lotID, Transactions: make([]TransactionResponse, 0, len(txns))}
	for _, t := range txns {
		out.Transactions = append(out.Transactions, TransactionResponse{
			ID:             t.ID,
			StockItemID:    t.StockItemID,
			Type:           t.Type,
			Quantity:       t.Quantity,
			Reference:      t.Reference,
			FromLocationID: t.FromLocationID,
			ToLocationID:   t.ToLocationID,
			CreatedAt:      t.CreatedAt,
		})
	}
	return out
}
