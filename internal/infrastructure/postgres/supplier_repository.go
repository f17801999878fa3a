package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementación de SupplierRepository sobre PostgreSQL
// (usable con pool o tx).
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador de proveedores.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// GetByID obtiene un proveedor por ID.
func (r *SupplierRepo) GetByID(id string) (*entity.Supplier, error) {
	query := `SELECT id, name, phone, created_at FROM suppliers WHERE id = $1`
	var s entity.Supplier
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&s.ID, &s.Name, &s.Phone, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}

// UpsertSupplierProduct inserta o actualiza el vínculo proveedor-producto con
// el último costo de compra. Lo escriben las entradas de stock.
func (r *SupplierRepo) UpsertSupplierProduct(link *entity.SupplierProduct) error {
	query := `
		INSERT INTO supplier_products (supplier_id, product_id, last_cost, last_purchase_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (supplier_id, product_id)
		DO UPDATE SET last_cost = EXCLUDED.last_cost, last_purchase_at = EXCLUDED.last_purchase_at`
	_, err := r.q.Exec(context.Background(), query,
		link.SupplierID, link.ProductID, link.LastCost, link.LastPurchaseAt,
	)
	if err != nil {
		return fmt.Errorf("upsert supplier product: %w", err)
	}
	return nil
}
