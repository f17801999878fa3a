package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Inventory *InventoryHandler
	Products  *ProductHandler
	MLSync    *MLSyncHandler
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Libro de stock
	inventory := api.Group("/inventory")
	inventory.Post("/movements", deps.Inventory.RegisterMovement)
	inventory.Get("/movements", deps.Inventory.ListMovements)
	inventory.Get("/stock/:product_id", deps.Inventory.GetStock)

	// Productos
	products := api.Group("/products")
	products.Post("/", deps.Products.Create)
	products.Get("/", deps.Products.List)
	products.Get("/:id", deps.Products.GetByID)
	products.Put("/:id", deps.Products.Update)

	// MercadoLibre: OAuth, sincronización y webhook
	ml := api.Group("/ml")
	ml.Get("/connect", deps.MLSync.Connect)
	ml.Get("/callback", deps.MLSync.Callback)
	ml.Get("/status", deps.MLSync.Status)
	ml.Post("/sync/stock", deps.MLSync.SyncStock)
	ml.Post("/sync/orders", deps.MLSync.SyncOrders)
	ml.Post("/webhook", deps.MLSync.Webhook)
}
