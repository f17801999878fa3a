package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación de StockMovementRepository sobre PostgreSQL
// (usable con pool o tx). Los movimientos son inmutables: solo INSERT y SELECT.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador del libro de movimientos.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, sale_id, purchase_id, type,
	from_warehouse_id, to_warehouse_id, quantity, unit_cost, sale_price,
	vat_percent, created_by, reference, created_at`

// Create persiste un movimiento. Genera el ID si viene vacío.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, product_id, sale_id, purchase_id, type,
			from_warehouse_id, to_warehouse_id, quantity, unit_cost, sale_price,
			vat_percent, created_by, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.ProductID, m.SaleID, m.PurchaseID, m.Type,
		m.FromWarehouseID, m.ToWarehouseID, m.Quantity, m.UnitCost, m.SalePrice,
		m.VATPercent, m.CreatedBy, m.Reference, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListByProduct lista movimientos de un producto, opcionalmente acotados por
// fecha, del más reciente al más viejo.
func (r *StockMovementRepo) ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE product_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	return r.list(query, productID, from, to, limit, offset)
}

// ListByWarehouse lista movimientos que tocan una bodega (como origen o destino).
func (r *StockMovementRepo) ListByWarehouse(warehouseID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE (from_warehouse_id = $1 OR to_warehouse_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`
	return r.list(query, warehouseID, from, to, limit, offset)
}

func (r *StockMovementRepo) list(query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(
			&m.ID, &m.ProductID, &m.SaleID, &m.PurchaseID, &m.Type,
			&m.FromWarehouseID, &m.ToWarehouseID, &m.Quantity, &m.UnitCost, &m.SalePrice,
			&m.VATPercent, &m.CreatedBy, &m.Reference, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
