package movement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MovementUseCase es el coordinador transaccional de movimientos de stock:
// Receive, Transfer, Issue y Adjust. Cada operación corre como una única
// transacción de BD con bloqueo de fila (SELECT FOR UPDATE) adquirido al
// resolver el ítem y liberado en el commit. Tras el commit entrega el evento de
// dominio al publisher sin bloquear la respuesta exitosa del caller.
type MovementUseCase struct {
	txRunner      TxRunner
	warehouseRepo repository.WarehouseRepository
	locationRepo  repository.LocationRepository
	publisher     EventPublisher
	log           *logger.Logger
}

// NewMovementUseCase construye el coordinador.
func NewMovementUseCase(
	txRunner TxRunner,
	warehouseRepo repository.WarehouseRepository,
	locationRepo repository.LocationRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *MovementUseCase {
	return &MovementUseCase{
		txRunner:      txRunner,
		warehouseRepo: warehouseRepo,
		locationRepo:  locationRepo,
		publisher:     publisher,
		log:           log,
	}
}

// ReceiveInput entrada para una recepción de mercancía.
type ReceiveInput struct {
	TenantID       string
	WarehouseID    string
	LocationID     string
	SKU            string
	LotNumber      string
	Quantity       decimal.Decimal
	Reference      string
	ProductionDate *time.Time
	ExpiryDate     *time.Time
	EventID        string // llave de idempotencia opcional del caller
}

// TransferInput entrada para un traslado. El origen se referencia por
// SourceStockItemID o por la tripleta (bodega, ubicación, lote).
type TransferInput struct {
	TenantID          string
	SourceStockItemID string
	SourceWarehouseID string
	SourceLocationID  string
	LotID             string
	DestWarehouseID   string
	DestLocationID    string
	Quantity          decimal.Decimal
	Reference         string
	EventID           string
}

// IssueInput entrada para una salida. El lote se referencia por LotID o por
// (SKU, LotNumber); LocationID es opcional y desambigua cuando el lote reside
// en varias ubicaciones de la bodega.
type IssueInput struct {
	TenantID    string
	WarehouseID string
	LocationID  string
	SKU         string
	LotID       string
	LotNumber   string
	Quantity    decimal.Decimal
	Reference   string
	EventID     string
}

// AdjustInput entrada para un ajuste de reconciliación. Quantity es la magnitud
// a descontar; el resultado se fija en cero si la magnitud excede el saldo.
type AdjustInput struct {
	TenantID    string
	WarehouseID string
	LocationID  string
	SKU         string
	LotID       string
	LotNumber   string
	Quantity    decimal.Decimal
	Reference   string
	EventID     string
}

// Receive registra una entrada: resuelve el lote, obtiene-o-crea el ítem de
// stock destino, incrementa la cantidad y anota la transacción RECEIPT, todo en
// una transacción. Emite inventory.goods.received tras el commit.
func (uc *MovementUseCase) Receive(ctx context.Context, in ReceiveInput) (*entity.StockItem, error) {
	if err := uc.publisher.Allow(in.TenantID); err != nil {
		return nil, err
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	if in.SKU == "" || in.LotNumber == "" || in.Reference == "" {
		return nil, domain.ErrInvalidInput
	}
	wh, loc, err := uc.resolveDestination(ctx, in.TenantID, in.WarehouseID, in.LocationID)
	if err != nil {
		return nil, err
	}

	var (
		item *entity.StockItem
		lot  *entity.Lot
	)
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		txnRepo repository.InventoryTransactionRepository,
		lotRepo repository.LotRepository,
	) error {
		lot, err = lotRepo.GetOrCreate(ctx, in.TenantID, in.SKU, in.LotNumber, in.ProductionDate, in.ExpiryDate)
		if err != nil {
			return err
		}
		item, err = stockRepo.GetOrCreateForUpdate(ctx, in.TenantID, wh.ID, loc.ID, lot.ID)
		if err != nil {
			return err
		}
		newQty := item.Quantity.Add(in.Quantity)
		if err := uc.applyQuantity(ctx, stockRepo, item, newQty); err != nil {
			return err
		}
		return txnRepo.Append(ctx, &entity.InventoryTransaction{
			TenantID:     in.TenantID,
			StockItemID:  item.ID,
			Type:         entity.TransactionTypeRECEIPT,
			Quantity:     in.Quantity,
			Reference:    in.Reference,
			ToLocationID: &loc.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.emit(ctx, events.Event{
		EventID:       in.EventID,
		EventType:     events.TypeGoodsReceived,
		AggregateID:   item.ID,
		AggregateType: "StockItem",
		TenantID:      in.TenantID,
		Data: map[string]any{
			"stockItemId": item.ID,
			"warehouseId": wh.ID,
			"locationId":  loc.ID,
			"lotId":       lot.ID,
			"sku":         lot.SKU,
			"lotNumber":   lot.LotNumber,
			"quantity":    in.Quantity.String(),
			"reference":   in.Reference,
		},
	})
	return item, nil
}

// Transfer mueve cantidad entre ítems de stock del mismo lote. El decremento en
// origen y el incremento en destino se aplican en la misma transacción: un
// crash entre ambos no deja visible ninguno de los dos (todo o nada). La suma
// retirada del origen es idéntica a la añadida al destino (conservación).
func (uc *MovementUseCase) Transfer(ctx context.Context, in TransferInput) (*entity.StockItem, error) {
	if err := uc.publisher.Allow(in.TenantID); err != nil {
		return nil, err
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Reference == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.SourceStockItemID == "" && (in.SourceWarehouseID == "" || in.LotID == "") {
		return nil, domain.ErrInvalidInput
	}
	destWh, destLoc, err := uc.resolveDestination(ctx, in.TenantID, in.DestWarehouseID, in.DestLocationID)
	if err != nil {
		return nil, err
	}

	var source, dest *entity.StockItem
	err = uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		txnRepo repository.InventoryTransactionRepository,
		_ repository.LotRepository,
	) error {
		if in.SourceStockItemID != "" {
			source, err = stockRepo.GetForUpdateByID(ctx, in.TenantID, in.SourceStockItemID)
		} else {
			source, err = stockRepo.FindForUpdateByLot(ctx, in.TenantID, in.SourceWarehouseID, in.SourceLocationID, in.LotID)
		}
		if err != nil {
			return err
		}
		if source == nil {
			return domain.ErrSourceNotFound
		}
		if source.Quantity.LessThan(in.Quantity) {
			return domain.ErrInsufficientQuantity
		}
		dest, err = stockRepo.GetOrCreateForUpdate(ctx, in.TenantID, destWh.ID, destLoc.ID, source.LotID)
		if err != nil {
			return err
		}
		if dest.ID == source.ID {
			return domain.ErrInvalidInput
		}
		if err := uc.applyQuantity(ctx, stockRepo, source, source.Quantity.Sub(in.Quantity)); err != nil {
			return err
		}
		if err := uc.applyQuantity(ctx, stockRepo, dest, dest.Quantity.Add(in.Quantity)); err != nil {
			return err
		}
		fromLoc := source.LocationID
		return txnRepo.Append(ctx, &entity.InventoryTransaction{
			TenantID:       in.TenantID,
			StockItemID:    source.ID,
			Type:           entity.TransactionTypeTRANSFER,
			Quantity:       in.Quantity,
			Reference:      in.Reference,
			FromLocationID: &fromLoc,
			ToLocationID:   &destLoc.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.emit(ctx, events.Event{
		EventID:       in.EventID,
		EventType:     events.TypeStockTransferred,
		AggregateID:   source.ID,
		AggregateType: "StockItem",
		TenantID:      in.TenantID,
		Data: map[string]any{
			"sourceStockItemId":      source.ID,
			"destinationStockItemId": dest.ID,
			"lotId":                  source.LotID,
			"fromLocationId":         source.LocationID,
			"toLocationId":           destLoc.ID,
			"quantity":               in.Quantity.String(),
			"reference":              in.Reference,
		},
	})
	return dest, nil
}

// Issue registra una salida: resuelve el ítem por bodega+lote, verifica saldo
// suficiente, decrementa y anota la transacción ISSUE.
func (uc *MovementUseCase) Issue(ctx context.Context, in IssueInput) (*entity.StockItem, error) {
	if err := uc.publisher.Allow(in.TenantID); err != nil {
		return nil, err
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Reference == "" {
		return nil, domain.ErrInvalidInput
	}

	var item *entity.StockItem
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		txnRepo repository.InventoryTransactionRepository,
		lotRepo repository.LotRepository,
	) error {
		var err error
		item, err = uc.resolveItemForUpdate(ctx, stockRepo, lotRepo, in.TenantID, in.WarehouseID, in.LocationID, in.SKU, in.LotID, in.LotNumber)
		if err != nil {
			return err
		}
		if item.Quantity.LessThan(in.Quantity) {
			return domain.ErrInsufficientQuantity
		}
		if err := uc.applyQuantity(ctx, stockRepo, item, item.Quantity.Sub(in.Quantity)); err != nil {
			return err
		}
		fromLoc := item.LocationID
		return txnRepo.Append(ctx, &entity.InventoryTransaction{
			TenantID:       in.TenantID,
			StockItemID:    item.ID,
			Type:           entity.TransactionTypeISSUE,
			Quantity:       in.Quantity,
			Reference:      in.Reference,
			FromLocationID: &fromLoc,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.emit(ctx, events.Event{
		EventID:       in.EventID,
		EventType:     events.TypeStockIssued,
		AggregateID:   item.ID,
		AggregateType: "StockItem",
		TenantID:      in.TenantID,
		Data: map[string]any{
			"stockItemId": item.ID,
			"warehouseId": item.WarehouseID,
			"locationId":  item.LocationID,
			"lotId":       item.LotID,
			"sku":         in.SKU,
			"quantity":    in.Quantity.String(),
			"reference":   in.Reference,
		},
	})
	return item, nil
}

// Adjust es la primitiva de reconciliación por conteo físico: descuenta la
// magnitud indicada pero fija el resultado en cero en lugar de fallar — una
// corrección de conteo nunca levanta cantidad insuficiente, a diferencia de
// Issue. Anota la transacción ADJUSTMENT con la magnitud efectivamente aplicada.
func (uc *MovementUseCase) Adjust(ctx context.Context, in AdjustInput) (*entity.StockItem, error) {
	if err := uc.publisher.Allow(in.TenantID); err != nil {
		return nil, err
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	if in.Reference == "" {
		return nil, domain.ErrInvalidInput
	}

	var (
		item    *entity.StockItem
		applied decimal.Decimal
	)
	err := uc.txRunner.Run(ctx, func(
		stockRepo repository.StockItemRepository,
		txnRepo repository.InventoryTransactionRepository,
		lotRepo repository.LotRepository,
	) error {
		var err error
		item, err = uc.resolveItemForUpdate(ctx, stockRepo, lotRepo, in.TenantID, in.WarehouseID, in.LocationID, in.SKU, in.LotID, in.LotNumber)
		if err != nil {
			return err
		}
		applied = in.Quantity
		if applied.GreaterThan(item.Quantity) {
			applied = item.Quantity // clamp en cero
		}
		if err := uc.applyQuantity(ctx, stockRepo, item, item.Quantity.Sub(applied)); err != nil {
			return err
		}
		fromLoc := item.LocationID
		return txnRepo.Append(ctx, &entity.InventoryTransaction{
			TenantID:       in.TenantID,
			StockItemID:    item.ID,
			Type:           entity.TransactionTypeADJUSTMENT,
			Quantity:       applied,
			Reference:      in.Reference,
			FromLocationID: &fromLoc,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.emit(ctx, events.Event{
		EventID:       in.EventID,
		EventType:     events.TypeStockAdjusted,
		AggregateID:   item.ID,
		AggregateType: "StockItem",
		TenantID:      in.TenantID,
		Data: map[string]any{
			"stockItemId":       item.ID,
			"warehouseId":       item.WarehouseID,
			"locationId":        item.LocationID,
			"lotId":             item.LotID,
			"sku":               in.SKU,
			"requestedQuantity": in.Quantity.String(),
			"quantity":          applied.String(),
			"reference":         in.Reference,
		},
	})
	return item, nil
}

// resolveDestination valida bodega activa del tenant y ubicación perteneciente a ella.
func (uc *MovementUseCase) resolveDestination(ctx context.Context, tenantID, warehouseID, locationID string) (*entity.Warehouse, *entity.Location, error) {
	wh, err := uc.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, nil, err
	}
	if wh == nil || wh.TenantID != tenantID || !wh.Active {
		return nil, nil, domain.ErrWarehouseNotFound
	}
	loc, err := uc.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, nil, err
	}
	if loc == nil || loc.WarehouseID != wh.ID {
		return nil, nil, domain.ErrLocationNotFound
	}
	return wh, loc, nil
}

// resolveItemForUpdate resuelve y bloquea el ítem por bodega+lote. Si el caller
// entrega lotNumber en lugar de lotId, se resuelve por (sku, lotNumber) en el
// catálogo. Con locationID vacío el desempate es determinístico: primera fila
// por orden de creación (created_at, id).
func (uc *MovementUseCase) resolveItemForUpdate(
	ctx context.Context,
	stockRepo repository.StockItemRepository,
	lotRepo repository.LotRepository,
	tenantID, warehouseID, locationID, sku, lotID, lotNumber string,
) (*entity.StockItem, error) {
	if lotID == "" {
		if sku == "" || lotNumber == "" {
			return nil, domain.ErrInvalidInput
		}
		lot, err := lotRepo.GetBySKUAndNumber(ctx, tenantID, sku, lotNumber)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, domain.ErrStockItemNotFound
		}
		lotID = lot.ID
	}
	item, err := stockRepo.FindForUpdateByLot(ctx, tenantID, warehouseID, locationID, lotID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrStockItemNotFound
	}
	return item, nil
}

// applyQuantity persiste la nueva cantidad verificando antes los invariantes del
// libro. Una violación aquí no es condición de negocio sino defecto de
// programación o de control de concurrencia: aborta la transacción y se loggea
// con severidad por encima de los errores de conflicto.
func (uc *MovementUseCase) applyQuantity(ctx context.Context, stockRepo repository.StockItemRepository, item *entity.StockItem, newQty decimal.Decimal) error {
	if newQty.IsNegative() {
		uc.log.Error().
			Str("stock_item_id", item.ID).
			Str("quantity", newQty.String()).
			Msg("invariante violado: cantidad negativa en stock_item")
		return fmt.Errorf("cantidad resultante negativa en %s: %w", item.ID, domain.ErrConflict)
	}
	if item.ReservedQuantity.GreaterThan(newQty) {
		uc.log.Error().
			Str("stock_item_id", item.ID).
			Str("quantity", newQty.String()).
			Str("reserved", item.ReservedQuantity.String()).
			Msg("invariante violado: reservado mayor que cantidad")
		return fmt.Errorf("reservado excede cantidad en %s: %w", item.ID, domain.ErrConflict)
	}
	if err := stockRepo.UpdateQuantity(ctx, item.ID, newQty); err != nil {
		return err
	}
	item.Quantity = newQty
	return nil
}

// emit entrega el evento al publisher tras el commit. La entrega es best effort:
// una falla se loggea y se deriva a operaciones dentro del publisher, pero nunca
// afecta la mutación ya confirmada.
func (uc *MovementUseCase) emit(ctx context.Context, ev events.Event) {
	ev.OccurredOn = time.Now().UTC()
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Warn().
			Err(err).
			Str("event_type", ev.EventType).
			Str("aggregate_id", ev.AggregateID).
			Msg("entrega de evento fallida; el libro permanece confirmado")
	}
}
