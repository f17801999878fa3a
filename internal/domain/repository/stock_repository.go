package repository

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stockml/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por
// producto+bodega. Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Get(productID, warehouseID string) (*entity.Stock, error)
	Upsert(stock *entity.Stock) error
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(productID, warehouseID string) (*entity.Stock, error)
	// TotalQuantityForUpdate bloquea todas las filas de stock del producto y
	// devuelve la cantidad total entre bodegas, consistente con la escritura
	// que sigue en la misma transacción.
	TotalQuantityForUpdate(productID string) (decimal.Decimal, error)
	ListByProduct(productID string) ([]*entity.Stock, error)
}
