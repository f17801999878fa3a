package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/application/dto"
	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

// ProductHandler maneja el CRUD de productos. El costo base y el stock no se
// editan por acá: solo los mueve el libro.
type ProductHandler struct {
	products repository.ProductRepository
}

// NewProductHandler construye el handler.
func NewProductHandler(products repository.ProductRepository) *ProductHandler {
	return &ProductHandler{products: products}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Accept       json
// @Produce      json
// @Success      201  {object}  dto.ProductDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.ProductRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "name es obligatorio"})
	}
	now := time.Now()
	product := &entity.Product{
		ID:                  uuid.New().String(),
		SKU:                 in.SKU,
		Name:                in.Name,
		Group:               in.Group,
		AvgCost:             decimal.Zero,
		VATPercent:          decimal.Zero,
		MLCommissionPercent: in.MLCommissionPercent,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if in.VATPercent != nil {
		product.VATPercent = *in.VATPercent
	}
	if err := h.products.Create(product); err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromProduct(product))
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Produce      json
// @Success      200  {array}  dto.ProductDTO
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.products.List()
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, dto.FromProduct(p))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	product, err := h.products.GetByID(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if product == nil {
		return writeError(c, domain.ErrNotFound)
	}
	return c.JSON(dto.FromProduct(product))
}

// Update godoc
// @Summary      Actualizar producto
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	product, err := h.products.GetByID(c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if product == nil {
		return writeError(c, domain.ErrNotFound)
	}
	var in dto.ProductRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Name != "" {
		product.Name = in.Name
	}
	product.SKU = in.SKU
	product.Group = in.Group
	product.MLCommissionPercent = in.MLCommissionPercent
	if err := h.products.Update(product); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromProduct(product))
}
