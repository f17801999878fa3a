package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

var _ repository.MLItemRepository = (*MLItemRepo)(nil)

// MLItemRepo implementación de MLItemRepository sobre PostgreSQL.
type MLItemRepo struct {
	q Querier
}

// NewMLItemRepository construye el adaptador de publicaciones espejadas.
func NewMLItemRepository(q Querier) *MLItemRepo {
	return &MLItemRepo{q: q}
}

const mlItemColumns = `item_id, title, status, permalink, available_quantity,
	product_id, matched_name, units_sold_30d, last_sold_at, last_synced`

// GetByItemID devuelve la publicación o nil si no existe.
func (r *MLItemRepo) GetByItemID(itemID string) (*entity.MLItem, error) {
	query := `SELECT ` + mlItemColumns + ` FROM ml_items WHERE item_id = $1`
	var it entity.MLItem
	err := r.q.QueryRow(context.Background(), query, itemID).Scan(
		&it.ItemID, &it.Title, &it.Status, &it.Permalink, &it.AvailableQuantity,
		&it.ProductID, &it.MatchedName, &it.UnitsSold30d, &it.LastSoldAt, &it.LastSynced,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ml item: %w", err)
	}
	return &it, nil
}

// Upsert inserta o actualiza la publicación por ItemID.
func (r *MLItemRepo) Upsert(item *entity.MLItem) error {
	query := `
		INSERT INTO ml_items (item_id, title, status, permalink, available_quantity,
			product_id, matched_name, units_sold_30d, last_sold_at, last_synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (item_id) DO UPDATE SET
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			permalink = EXCLUDED.permalink,
			available_quantity = EXCLUDED.available_quantity,
			product_id = EXCLUDED.product_id,
			matched_name = EXCLUDED.matched_name,
			last_synced = EXCLUDED.last_synced`
	_, err := r.q.Exec(context.Background(), query,
		item.ItemID, item.Title, item.Status, item.Permalink, item.AvailableQuantity,
		item.ProductID, item.MatchedName, item.UnitsSold30d, item.LastSoldAt, item.LastSynced,
	)
	if err != nil {
		return fmt.Errorf("upsert ml item: %w", err)
	}
	return nil
}

// UpdateSalesMetrics actualiza la velocidad de venta de 30 días.
func (r *MLItemRepo) UpdateSalesMetrics(itemID string, unitsSold30d int, lastSoldAt *time.Time) error {
	_, err := r.q.Exec(context.Background(),
		`UPDATE ml_items SET units_sold_30d = $2, last_sold_at = $3 WHERE item_id = $1`,
		itemID, unitsSold30d, lastSoldAt,
	)
	if err != nil {
		return fmt.Errorf("update ml item metrics: %w", err)
	}
	return nil
}

// List lista publicaciones, las de mayor rotación primero.
func (r *MLItemRepo) List(limit int) ([]*entity.MLItem, error) {
	query := `SELECT ` + mlItemColumns + `
		FROM ml_items ORDER BY units_sold_30d DESC, item_id LIMIT $1`
	rows, err := r.q.Query(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("list ml items: %w", err)
	}
	defer rows.Close()
	var list []*entity.MLItem
	for rows.Next() {
		var it entity.MLItem
		if err := rows.Scan(
			&it.ItemID, &it.Title, &it.Status, &it.Permalink, &it.AvailableQuantity,
			&it.ProductID, &it.MatchedName, &it.UnitsSold30d, &it.LastSoldAt, &it.LastSynced,
		); err != nil {
			return nil, fmt.Errorf("scan ml item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}
