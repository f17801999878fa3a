package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa la cantidad actual de un producto en una bodega.
// Se crea perezosamente con el primer movimiento que toca el par
// (producto, bodega); nunca se borra, solo se lleva a cero.
type Stock struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	UpdatedAt   time.Time
}
