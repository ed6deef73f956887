package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/catalog"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

// LotHandler maneja las consultas del catálogo de lotes y artículos (protegido).
type LotHandler struct {
	uc *catalog.LotUseCase
}

// NewLotHandler construye el handler.
func NewLotHandler(uc *catalog.LotUseCase) *LotHandler {
	return &LotHandler{uc: uc}
}

// List godoc
// @Summary      Listar lotes del tenant
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        search  query  string  false  "filtro por SKU o número de lote"
// @Param        limit   query  int     false  "máximo de filas (default 20)"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {array}  dto.LotResponse
// @Router       /api/lots [get]
func (h *LotHandler) List(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de página inválidos"})
	}
	page.DefaultPage()
	list, err := h.uc.ListLots(c.Context(), tenantID, c.Query("search"), page.Limit, page.Offset)
	if err != nil {
		return movementError(c, err)
	}
	out := make([]dto.LotResponse, 0, len(list))
	for _, l := range list {
		out = append(out, dto.ToLotResponse(l))
	}
	return c.JSON(fiber.Map{"lots": out, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// ListArticles godoc
// @Summary      Listar artículos (agregado por SKU)
// @Description  Devuelve por SKU el número de lotes registrados y la cantidad
//
//	total en stock.
//
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        search  query  string  false  "filtro por SKU"
// @Success      200  {array}  dto.ArticleResponse
// @Router       /api/articles [get]
func (h *LotHandler) ListArticles(c *fiber.Ctx) error {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de página inválidos"})
	}
	page.DefaultPage()
	list, err := h.uc.ListArticles(c.Context(), tenantID, c.Query("search"), page.Limit, page.Offset)
	if err != nil {
		return movementError(c, err)
	}
	out := make([]dto.ArticleResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.ToArticleResponse(a))
	}
	return c.JSON(fiber.Map{"articles": out, "page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}
