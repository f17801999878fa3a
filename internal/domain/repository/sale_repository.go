package repository

import "github.com/tu-usuario/stockml/internal/domain/entity"

// SaleRepository define el puerto de persistencia para ventas.
type SaleRepository interface {
	// Create persiste la venta y sus líneas.
	Create(sale *entity.Sale, items []*entity.SaleItem) error
	// ExistsByReference indica si ya hay una venta con esa referencia
	// (clave de idempotencia de la ingesta de órdenes).
	ExistsByReference(reference string) (bool, error)
}
