package repository

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/stockml/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	UpdateCost(productID string, cost decimal.Decimal) error
	UpdateVATPercent(productID string, vatPercent decimal.Decimal) error
	SetDefaultSupplier(productID, supplierID string) error
	List() ([]*entity.Product, error)
}
