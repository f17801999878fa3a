package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del inventario.
// AvgCost es el costo base vigente (sin IVA, 2 decimales): se fija al costo de la
// última compra en las entradas y se recalcula como promedio ponderado en los
// ajustes positivos. El stock vive por bodega en Stock.
type Product struct {
	ID                  string
	SKU                 string // opcional; único cuando no está vacío
	Name                string
	Group               string // marca o grupo, usado como filtro duro en el matcher
	AvgCost             decimal.Decimal
	VATPercent          decimal.Decimal
	MLCommissionPercent *decimal.Decimal
	DefaultSupplierID   *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
