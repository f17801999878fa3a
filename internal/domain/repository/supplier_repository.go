package repository

import "github.com/tu-usuario/stockml/internal/domain/entity"

// SupplierRepository define el puerto de persistencia para proveedores y
// su vínculo de último costo por producto.
type SupplierRepository interface {
	GetByID(id string) (*entity.Supplier, error)
	// UpsertSupplierProduct inserta o actualiza el último costo de compra
	// del par (proveedor, producto).
	UpsertSupplierProduct(link *entity.SupplierProduct) error
}
