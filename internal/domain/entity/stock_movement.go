package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock (conjunto cerrado).
const (
	MovementTypeEntry      = "ENTRY"
	MovementTypeExit       = "EXIT"
	MovementTypeTransfer   = "TRANSFER"
	MovementTypeAdjustment = "ADJUSTMENT"
)

// StockMovement es una entrada inmutable del libro de movimientos.
// La cantidad se registra siempre positiva; el tipo determina qué lado de
// bodega va informado: ENTRY escribe solo destino, EXIT solo origen,
// TRANSFER ambos y ADJUSTMENT el lado que cambió. El libro nunca actualiza
// ni borra movimientos; las reversas son movimientos compensatorios.
type StockMovement struct {
	ID              string
	ProductID       string
	SaleID          *string
	PurchaseID      *string
	Type            string
	FromWarehouseID *string
	ToWarehouseID   *string
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	SalePrice       decimal.Decimal
	VATPercent      decimal.Decimal
	CreatedBy       string // actor que originó el movimiento
	Reference       string // texto libre para auditoría
	CreatedAt       time.Time
}
