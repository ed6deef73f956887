package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/catalog"
	"github.com/jhoicas/stock-ledger/internal/application/movement"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MovementUC  *movement.MovementUseCase
	TraceUC     *movement.TraceUseCase
	WarehouseUC *catalog.WarehouseUseCase
	LotUC       *catalog.LotUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Warehouses y ubicaciones (protegido)
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Delete("/:id", warehouseHandler.Deactivate)
	warehouses.Post("/:id/locations", warehouseHandler.CreateLocation)
	warehouses.Get("/:id/locations", warehouseHandler.ListLocations)

	// Movimientos de stock (protegido)
	movements := protected.Group("/movements")
	movementHandler := NewMovementHandler(deps.MovementUC, deps.TraceUC)
	movements.Post("/receipts", movementHandler.Receive)
	movements.Post("/transfers", movementHandler.Transfer)
	movements.Post("/issues", movementHandler.Issue)
	movements.Post("/adjustments", movementHandler.Adjust)

	// Catálogo de lotes y traza (protegido)
	lots := protected.Group("/lots")
	lotHandler := NewLotHandler(deps.LotUC)
	lots.Get("/", lotHandler.List)
	lots.Get("/:id/trace", movementHandler.Trace)

	protected.Get("/articles", lotHandler.ListArticles)
}
