package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier representa un proveedor.
type Supplier struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// SupplierProduct vincula proveedor y producto con el último costo de compra.
// Las entradas de stock lo actualizan (upsert) cuando informan proveedor.
type SupplierProduct struct {
	SupplierID     string
	ProductID      string
	LastCost       decimal.Decimal
	LastPurchaseAt *time.Time
}
