package repository

import (
	"time"

	"github.com/tu-usuario/stockml/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de movimientos.
// Solo inserta y lista: los movimientos nunca se actualizan ni se borran.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}
