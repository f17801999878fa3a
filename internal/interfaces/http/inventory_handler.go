package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stockml/internal/application/dto"
	"github.com/tu-usuario/stockml/internal/application/ledger"
	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del libro de stock.
type InventoryHandler struct {
	uc        *ledger.UseCase
	movements repository.StockMovementRepository
	stocks    repository.StockRepository
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *ledger.UseCase, movements repository.StockMovementRepository, stocks repository.StockRepository) *InventoryHandler {
	return &InventoryHandler{uc: uc, movements: movements, stocks: stocks}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de stock
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-Actor  header  string  false  "Actor que origina el movimiento"
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, warehouse_id (o from/to para TRANSFER), type, quantity, unit_cost (entradas)"
// @Success      201   {object}  dto.MovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	actor := actorFrom(c)
	ctx := c.Context()

	var movement *entity.StockMovement
	var err error
	switch in.Type {
	case entity.MovementTypeEntry:
		entryIn := ledger.EntryInput{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
			VATPercent:  in.VATPercent,
			Actor:       actor,
			Reference:   in.Reference,
			SupplierID:  in.SupplierID,
		}
		if in.UnitCost != nil {
			entryIn.UnitCost = *in.UnitCost
		}
		movement, err = h.uc.Entry(ctx, entryIn)
	case entity.MovementTypeExit:
		movement, err = h.uc.Exit(ctx, ledger.ExitInput{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
			Actor:       actor,
			Reference:   in.Reference,
			SalePrice:   in.SalePrice,
			VATPercent:  in.VATPercent,
		})
	case entity.MovementTypeTransfer:
		movement, err = h.uc.Transfer(ctx, ledger.TransferInput{
			ProductID:       in.ProductID,
			FromWarehouseID: in.FromWarehouseID,
			ToWarehouseID:   in.ToWarehouseID,
			Quantity:        in.Quantity,
			Actor:           actor,
			Reference:       in.Reference,
		})
	case entity.MovementTypeAdjustment:
		movement, err = h.uc.Adjustment(ctx, ledger.AdjustmentInput{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			Quantity:    in.Quantity,
			Actor:       actor,
			Reference:   in.Reference,
			UnitCost:    in.UnitCost,
		})
	default:
		err = domain.ErrInvalidMovement
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromMovement(movement))
}

// ListMovements godoc
// @Summary      Listar movimientos de stock
// @Tags         inventory
// @Produce      json
// @Param        product_id    query  string  false  "Filtrar por producto"
// @Param        warehouse_id  query  string  false  "Filtrar por bodega (origen o destino)"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Success      200  {array}   dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (RFC3339)"})
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (RFC3339)"})
	}

	var movements []*entity.StockMovement
	switch {
	case c.Query("product_id") != "":
		movements, err = h.movements.ListByProduct(c.Query("product_id"), from, to, page.Limit, page.Offset)
	case c.Query("warehouse_id") != "":
		movements, err = h.movements.ListByWarehouse(c.Query("warehouse_id"), from, to, page.Limit, page.Offset)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "se requiere product_id o warehouse_id"})
	}
	if err != nil {
		return writeError(c, err)
	}

	out := make([]dto.MovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.FromMovement(m))
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Stock de un producto en todas las bodegas
// @Tags         inventory
// @Produce      json
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {array}  dto.StockDTO
// @Router       /api/inventory/stock/{product_id} [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	stocks, err := h.stocks.ListByProduct(c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockDTO, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, dto.StockDTO{
			ProductID:   s.ProductID,
			WarehouseID: s.WarehouseID,
			Quantity:    s.Quantity,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	return c.JSON(out)
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
