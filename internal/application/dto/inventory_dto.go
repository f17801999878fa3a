package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Según Type: ENTRY usa WarehouseID + UnitCost (+ VATPercent, SupplierID);
// EXIT usa WarehouseID (+ SalePrice); TRANSFER usa FromWarehouseID y
// ToWarehouseID; ADJUSTMENT usa WarehouseID con Quantity con signo.
type RegisterMovementRequest struct {
	ProductID       string           `json:"product_id"`
	WarehouseID     string           `json:"warehouse_id,omitempty"`
	FromWarehouseID string           `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   string           `json:"to_warehouse_id,omitempty"`
	Type            string           `json:"type"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	VATPercent      *decimal.Decimal `json:"vat_percent,omitempty"`
	SalePrice       *decimal.Decimal `json:"sale_price,omitempty"`
	SupplierID      *string          `json:"supplier_id,omitempty"`
	Reference       string           `json:"reference,omitempty"`
}

// MovementDTO representa un movimiento del libro en respuestas.
type MovementDTO struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Type            string          `json:"type"`
	FromWarehouseID *string         `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   *string         `json:"to_warehouse_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	VATPercent      decimal.Decimal `json:"vat_percent"`
	CreatedBy       string          `json:"created_by"`
	Reference       string          `json:"reference,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// FromMovement mapea la entidad al DTO de respuesta.
func FromMovement(m *entity.StockMovement) MovementDTO {
	return MovementDTO{
		ID:              m.ID,
		ProductID:       m.ProductID,
		Type:            m.Type,
		FromWarehouseID: m.FromWarehouseID,
		ToWarehouseID:   m.ToWarehouseID,
		Quantity:        m.Quantity,
		UnitCost:        m.UnitCost,
		SalePrice:       m.SalePrice,
		VATPercent:      m.VATPercent,
		CreatedBy:       m.CreatedBy,
		Reference:       m.Reference,
		CreatedAt:       m.CreatedAt,
	}
}

// StockDTO cantidad de un producto en una bodega.
type StockDTO struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductRequest body para crear o actualizar un producto.
type ProductRequest struct {
	SKU                 string           `json:"sku,omitempty"`
	Name                string           `json:"name"`
	Group               string           `json:"group,omitempty"`
	VATPercent          *decimal.Decimal `json:"vat_percent,omitempty"`
	MLCommissionPercent *decimal.Decimal `json:"ml_commission_percent,omitempty"`
}

// ProductDTO representa un producto en respuestas.
type ProductDTO struct {
	ID                  string           `json:"id"`
	SKU                 string           `json:"sku,omitempty"`
	Name                string           `json:"name"`
	Group               string           `json:"group,omitempty"`
	AvgCost             decimal.Decimal  `json:"avg_cost"`
	VATPercent          decimal.Decimal  `json:"vat_percent"`
	MLCommissionPercent *decimal.Decimal `json:"ml_commission_percent,omitempty"`
	DefaultSupplierID   *string          `json:"default_supplier_id,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
}

// FromProduct mapea la entidad al DTO de respuesta.
func FromProduct(p *entity.Product) ProductDTO {
	return ProductDTO{
		ID:                  p.ID,
		SKU:                 p.SKU,
		Name:                p.Name,
		Group:               p.Group,
		AvgCost:             p.AvgCost,
		VATPercent:          p.VATPercent,
		MLCommissionPercent: p.MLCommissionPercent,
		DefaultSupplierID:   p.DefaultSupplierID,
		CreatedAt:           p.CreatedAt,
	}
}
