package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/movement"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// MovementHandler maneja las peticiones HTTP de movimientos de stock y la traza
// de lotes (protegido).
type MovementHandler struct {
	uc    *movement.MovementUseCase
	trace *movement.TraceUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *movement.MovementUseCase, trace *movement.TraceUseCase) *MovementHandler {
	return &MovementHandler{uc: uc, trace: trace}
}

// Receive godoc
// @Summary      Registrar recepción de mercancía
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "warehouse_id, location_id, sku, lot_number, quantity, reference"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/movements/receipts [post]
func (h *MovementHandler) Receive(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReceiveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.Receive(c.Context(), movement.ReceiveInput{
		TenantID:       tenantID,
		WarehouseID:    in.WarehouseID,
		LocationID:     in.LocationID,
		SKU:            in.SKU,
		LotNumber:      in.LotNumber,
		Quantity:       in.Quantity,
		Reference:      in.Reference,
		ProductionDate: in.ProductionDate,
		ExpiryDate:     in.ExpiryDate,
		EventID:        in.EventID,
	})
	if err != nil {
		return movementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockItemResponse(item))
}

// Transfer godoc
// @Summary      Trasladar stock entre ubicaciones
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "origen (source_stock_item_id o tripleta), destino, quantity, reference"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/movements/transfers [post]
func (h *MovementHandler) Transfer(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.Transfer(c.Context(), movement.TransferInput{
		TenantID:          tenantID,
		SourceStockItemID: in.SourceStockItemID,
		SourceWarehouseID: in.SourceWarehouseID,
		SourceLocationID:  in.SourceLocationID,
		LotID:             in.LotID,
		DestWarehouseID:   in.DestWarehouseID,
		DestLocationID:    in.DestLocationID,
		Quantity:          in.Quantity,
		Reference:         in.Reference,
		EventID:           in.EventID,
	})
	if err != nil {
		return movementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockItemResponse(item))
}

// Issue godoc
// @Summary      Registrar salida de stock
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueRequest  true  "warehouse_id, lot_id (o sku+lot_number), quantity, reference"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/movements/issues [post]
func (h *MovementHandler) Issue(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.IssueRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.Issue(c.Context(), movement.IssueInput{
		TenantID:    tenantID,
		WarehouseID: in.WarehouseID,
		LocationID:  in.LocationID,
		SKU:         in.SKU,
		LotID:       in.LotID,
		LotNumber:   in.LotNumber,
		Quantity:    in.Quantity,
		Reference:   in.Reference,
		EventID:     in.EventID,
	})
	if err != nil {
		return movementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockItemResponse(item))
}

// Adjust godoc
// @Summary      Registrar ajuste por conteo físico
// @Description  Descuenta la magnitud indicada; si excede el saldo, el resultado
//
//	se fija en cero en lugar de fallar.
//
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "warehouse_id, lot_id (o sku+lot_number), quantity, reference"
// @Success      201   {object}  dto.StockItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/movements/adjustments [post]
func (h *MovementHandler) Adjust(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	item, err := h.uc.Adjust(c.Context(), movement.AdjustInput{
		TenantID:    tenantID,
		WarehouseID: in.WarehouseID,
		LocationID:  in.LocationID,
		SKU:         in.SKU,
		LotID:       in.LotID,
		LotNumber:   in.LotNumber,
		Quantity:    in.Quantity,
		Reference:   in.Reference,
		EventID:     in.EventID,
	})
	if err != nil {
		return movementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToStockItemResponse(item))
}

// Trace godoc
// @Summary      Traza completa de un lote
// @Description  Historial de transacciones del lote en orden cronológico ascendente.
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.TraceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/trace [get]
func (h *MovementHandler) Trace(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	lotID := c.Params("id")
	txns, err := h.trace.Trace(c.Context(), tenantID, lotID)
	if err != nil {
		return movementError(c, err)
	}
	return c.JSON(dto.ToTraceResponse(lotID, txns))
}

// movementError traduce errores de dominio a códigos HTTP.
func movementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "la cantidad debe ser positiva"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas peticiones"})
	case errors.Is(err, domain.ErrWarehouseNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "WAREHOUSE_NOT_FOUND", Message: "bodega no encontrada o inactiva"})
	case errors.Is(err, domain.ErrLocationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "LOCATION_NOT_FOUND", Message: "ubicación no encontrada"})
	case errors.Is(err, domain.ErrLotNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "LOT_NOT_FOUND", Message: "lote no encontrado"})
	case errors.Is(err, domain.ErrSourceNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "SOURCE_NOT_FOUND", Message: "ítem de stock origen no encontrado"})
	case errors.Is(err, domain.ErrStockItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "STOCK_ITEM_NOT_FOUND", Message: "ítem de stock no encontrado"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_QUANTITY", Message: "cantidad insuficiente en origen"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "recurso duplicado"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de estado"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
