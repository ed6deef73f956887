package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/events"
	"github.com/jhoicas/stock-ledger/internal/application/movement"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// WarehouseUseCase operaciones administrativas de bodegas y ubicaciones.
type WarehouseUseCase struct {
	warehouseRepo repository.WarehouseRepository
	locationRepo  repository.LocationRepository
	publisher     movement.EventPublisher
	log           *logger.Logger
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(
	warehouseRepo repository.WarehouseRepository,
	locationRepo repository.LocationRepository,
	publisher movement.EventPublisher,
	log *logger.Logger,
) *WarehouseUseCase {
	return &WarehouseUseCase{
		warehouseRepo: warehouseRepo,
		locationRepo:  locationRepo,
		publisher:     publisher,
		log:           log,
	}
}

// CreateWarehouse crea una bodega con código único por tenant y emite
// inventory.warehouse.created.
func (uc *WarehouseUseCase) CreateWarehouse(ctx context.Context, tenantID, code, name, address string) (*entity.Warehouse, error) {
	if code == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.warehouseRepo.GetByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	wh := &entity.Warehouse{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		Address:   address,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.warehouseRepo.Create(ctx, wh); err != nil {
		return nil, err
	}
	uc.emit(ctx, events.Event{
		EventType:     events.TypeWarehouseCreated,
		AggregateID:   wh.ID,
		AggregateType: "Warehouse",
		TenantID:      tenantID,
		Data: map[string]any{
			"warehouseId": wh.ID,
			"code":        wh.Code,
			"name":        wh.Name,
		},
	})
	return wh, nil
}

// ListWarehouses lista bodegas del tenant con paginación.
func (uc *WarehouseUseCase) ListWarehouses(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Warehouse, error) {
	return uc.warehouseRepo.ListByTenant(ctx, tenantID, limit, offset)
}

// DeactivateWarehouse inactiva la bodega (soft delete; los ítems de stock que la
// referencian permanecen).
func (uc *WarehouseUseCase) DeactivateWarehouse(ctx context.Context, tenantID, id string) error {
	wh, err := uc.warehouseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wh == nil || wh.TenantID != tenantID {
		return domain.ErrWarehouseNotFound
	}
	return uc.warehouseRepo.Deactivate(ctx, tenantID, id)
}

// CreateLocation crea una ubicación dentro de una bodega del tenant y emite
// inventory.location.created.
func (uc *WarehouseUseCase) CreateLocation(ctx context.Context, tenantID, warehouseID, code, locType string, capacityUnits *int64) (*entity.Location, error) {
	if code == "" {
		return nil, domain.ErrInvalidInput
	}
	switch locType {
	case entity.LocationTypeShelf, entity.LocationTypeDock, entity.LocationTypeBulk:
	default:
		return nil, domain.ErrInvalidInput
	}
	wh, err := uc.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.TenantID != tenantID || !wh.Active {
		return nil, domain.ErrWarehouseNotFound
	}
	loc := &entity.Location{
		ID:            uuid.New().String(),
		WarehouseID:   wh.ID,
		Code:          code,
		Type:          locType,
		CapacityUnits: capacityUnits,
		CreatedAt:     time.Now(),
	}
	if err := uc.locationRepo.Create(ctx, loc); err != nil {
		return nil, err
	}
	uc.emit(ctx, events.Event{
		EventType:     events.TypeLocationCreated,
		AggregateID:   loc.ID,
		AggregateType: "Location",
		TenantID:      tenantID,
		Data: map[string]any{
			"locationId":  loc.ID,
			"warehouseId": wh.ID,
			"code":        loc.Code,
			"type":        loc.Type,
		},
	})
	return loc, nil
}

// ListLocations lista ubicaciones de una bodega del tenant.
func (uc *WarehouseUseCase) ListLocations(ctx context.Context, tenantID, warehouseID string, limit, offset int) ([]*entity.Location, error) {
	wh, err := uc.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil || wh.TenantID != tenantID {
		return nil, domain.ErrWarehouseNotFound
	}
	return uc.locationRepo.ListByWarehouse(ctx, warehouseID, limit, offset)
}

func (uc *WarehouseUseCase) emit(ctx context.Context, ev events.Event) {
	ev.OccurredOn = time.Now().UTC()
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Warn().Err(err).Str("event_type", ev.EventType).Msg("entrega de evento fallida")
	}
}
