package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool
// o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta y sus líneas. La referencia es única: una segunda
// venta con la misma referencia devuelve ErrDuplicate (clave de idempotencia
// de la ingesta de órdenes).
func (r *SaleRepo) Create(sale *entity.Sale, items []*entity.SaleItem) error {
	ctx := context.Background()
	query := `
		INSERT INTO sales (id, warehouse_id, total, reference, ml_order_id,
			ml_commission_total, ml_tax_total, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		sale.ID, sale.WarehouseID, sale.Total, sale.Reference, sale.MLOrderID,
		sale.MLCommissionTotal, sale.MLTaxTotal, sale.CreatedBy, sale.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	itemQuery := `
		INSERT INTO sale_items (id, sale_id, product_id, quantity, unit_price,
			final_unit_price, line_total, vat_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if _, err := r.q.Exec(ctx, itemQuery,
			item.ID, sale.ID, item.ProductID, item.Quantity, item.UnitPrice,
			item.FinalUnitPrice, item.LineTotal, item.VATPercent,
		); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}

// ExistsByReference indica si ya hay una venta con esa referencia.
func (r *SaleRepo) ExistsByReference(reference string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM sales WHERE reference = $1)`, reference,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sale reference: %w", err)
	}
	return exists, nil
}
