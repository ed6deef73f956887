package movement

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// TraceUseCase reconstruye la cadena de custodia de un lote: todas las
// transacciones que tocaron cualquier ítem de stock del lote, en todas las
// bodegas, ordenadas por fecha ascendente. Solo lectura sobre el libro; dispara
// un evento informativo de auditoría.
type TraceUseCase struct {
	lotRepo   repository.LotRepository
	txnRepo   repository.InventoryTransactionRepository
	publisher EventPublisher
	log       *logger.Logger
}

// NewTraceUseCase construye el servicio de trazabilidad.
func NewTraceUseCase(
	lotRepo repository.LotRepository,
	txnRepo repository.InventoryTransactionRepository,
	publisher EventPublisher,
	log *logger.Logger,
) *TraceUseCase {
	return &TraceUseCase{lotRepo: lotRepo, txnRepo: txnRepo, publisher: publisher, log: log}
}

// Trace devuelve el historial ordenado del lote. ErrLotNotFound si el id no
// existe para el tenant. Emite inventory.lot.trace.requested sin mutar el libro.
func (uc *TraceUseCase) Trace(ctx context.Context, tenantID, lotID string) ([]*entity.InventoryTransaction, error) {
	lot, err := uc.lotRepo.GetByID(ctx, tenantID, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrLotNotFound
	}
	list, err := uc.txnRepo.ListByLot(ctx, tenantID, lotID)
	if err != nil {
		return nil, err
	}

	ev := events.Event{
		EventType:     events.TypeLotTraceRequested,
		AggregateID:   lot.ID,
		AggregateType: "Lot",
		TenantID:      tenantID,
		OccurredOn:    time.Now().UTC(),
		Data: map[string]any{
			"lotId":            lot.ID,
			"sku":              lot.SKU,
			"lotNumber":        lot.LotNumber,
			"transactionCount": len(list),
		},
	}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("lot_id", lot.ID).Msg("evento de auditoría de trazabilidad sin entregar")
	}
	return list, nil
}
