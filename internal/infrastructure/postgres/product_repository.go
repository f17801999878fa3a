package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, product_group, avg_cost, vat_percent,
	ml_commission_percent, default_supplier_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Group, &p.AvgCost, &p.VATPercent,
		&p.MLCommissionPercent, &p.DefaultSupplierID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. AvgCost inicia en 0.
func (r *ProductRepo) Create(product *entity.Product) error {
	query := `
		INSERT INTO products (id, sku, name, product_group, avg_cost, vat_percent,
			ml_commission_percent, default_supplier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.SKU, product.Name, product.Group, product.AvgCost,
		product.VATPercent, product.MLCommissionPercent, product.DefaultSupplierID,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	p, err := scanProduct(r.q.QueryRow(context.Background(), query, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}
	return p, nil
}

// Update actualiza los datos del producto. No toca AvgCost ni el stock:
// esos se mueven únicamente a través del libro.
func (r *ProductRepo) Update(product *entity.Product) error {
	query := `
		UPDATE products SET sku = $2, name = $3, product_group = $4,
			ml_commission_percent = $5, updated_at = now()
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		product.ID, product.SKU, product.Name, product.Group, product.MLCommissionPercent,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// UpdateCost actualiza solo el costo base del producto (usado por el libro de stock).
func (r *ProductRepo) UpdateCost(productID string, cost decimal.Decimal) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE products SET avg_cost = $2, updated_at = now() WHERE id = $1`,
		productID, cost,
	)
	if err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	return nil
}

// UpdateVATPercent actualiza el IVA vigente del producto.
func (r *ProductRepo) UpdateVATPercent(productID string, vatPercent decimal.Decimal) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE products SET vat_percent = $2, updated_at = now() WHERE id = $1`,
		productID, vatPercent,
	)
	if err != nil {
		return fmt.Errorf("update product vat: %w", err)
	}
	return nil
}

// SetDefaultSupplier asigna el proveedor por defecto del producto.
func (r *ProductRepo) SetDefaultSupplier(productID, supplierID string) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE products SET default_supplier_id = $2, updated_at = now() WHERE id = $1`,
		productID, supplierID,
	)
	if err != nil {
		return fmt.Errorf("set default supplier: %w", err)
	}
	return nil
}

// List lista todos los productos ordenados por nombre.
func (r *ProductRepo) List() ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
