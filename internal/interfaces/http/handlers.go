package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stockml/internal/application/dto"
	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/infrastructure/mercadolibre"
)

// actorFrom resuelve la identidad del actor desde el header X-Actor.
// No hay stack de autenticación: la identidad es declarativa y se usa solo
// para auditoría de movimientos.
func actorFrom(c *fiber.Ctx) string {
	if actor := c.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}

// writeError mapea errores de dominio y de la API de MercadoLibre a
// respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidMovement):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrMissingWarehouse):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrNegativeStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	}
	var apiErr *mercadolibre.APIError
	if errors.As(err, &apiErr) {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "ML_UPSTREAM", Message: apiErr.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
