package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrWarehouseNotFound    = errors.New("bodega no encontrada")
	ErrLocationNotFound     = errors.New("ubicación no encontrada")
	ErrLotNotFound          = errors.New("lote no encontrado")
	ErrStockItemNotFound    = errors.New("ítem de stock no encontrado")
	ErrSourceNotFound       = errors.New("ítem de stock origen no encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrInvalidQuantity      = errors.New("cantidad inválida")
	ErrInsufficientQuantity = errors.New("cantidad insuficiente")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrRateLimited          = errors.New("límite de peticiones excedido")
	ErrUnauthorized         = errors.New("no autorizado")
)
