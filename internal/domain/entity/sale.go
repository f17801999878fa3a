package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale representa una venta. Para ventas ingeridas desde MercadoLibre,
// Reference lleva la clave de idempotencia ("ML ORDER <id>") y los totales
// de comisión e impuestos vienen del sub-recurso de pagos de la orden.
type Sale struct {
	ID                string
	WarehouseID       string
	Total             decimal.Decimal
	Reference         string
	MLOrderID         string
	MLCommissionTotal decimal.Decimal
	MLTaxTotal        decimal.Decimal
	CreatedBy         string
	CreatedAt         time.Time
}

// SaleItem es una línea de venta.
type SaleItem struct {
	ID             string
	SaleID         string
	ProductID      string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	FinalUnitPrice decimal.Decimal
	LineTotal      decimal.Decimal
	VATPercent     decimal.Decimal
}
