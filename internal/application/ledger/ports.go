package ledger

import (
	"context"

	"github.com/tu-usuario/stockml/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el libro de stock:
// los bloqueos de fila tomados por fn se liberan recién en el Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
		supplierRepo repository.SupplierRepository,
	) error) error
}
