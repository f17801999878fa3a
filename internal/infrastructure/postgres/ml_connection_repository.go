package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

var _ repository.MLConnectionRepository = (*MLConnectionRepo)(nil)

// MLConnectionRepo implementación de MLConnectionRepository sobre PostgreSQL.
type MLConnectionRepo struct {
	q Querier
}

// NewMLConnectionRepository construye el adaptador de conexiones OAuth.
func NewMLConnectionRepository(q Querier) *MLConnectionRepo {
	return &MLConnectionRepo{q: q}
}

const connectionColumns = `id, user_id, access_token, refresh_token, expires_at,
	ml_user_id, nickname, last_sync_at, last_metrics, last_metrics_at,
	connected_at, updated_at`

func scanConnection(row pgx.Row) (*entity.MLConnection, error) {
	var c entity.MLConnection
	err := row.Scan(
		&c.ID, &c.UserID, &c.AccessToken, &c.RefreshToken, &c.ExpiresAt,
		&c.MLUserID, &c.Nickname, &c.LastSyncAt, &c.LastMetrics, &c.LastMetricsAt,
		&c.ConnectedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByUserID obtiene la conexión del actor local, o nil si no existe.
func (r *MLConnectionRepo) GetByUserID(userID string) (*entity.MLConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM ml_connections WHERE user_id = $1`
	c, err := scanConnection(r.q.QueryRow(context.Background(), query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ml connection: %w", err)
	}
	return c, nil
}

// GetByMLUserID obtiene la conexión por el id del vendedor en MercadoLibre.
func (r *MLConnectionRepo) GetByMLUserID(mlUserID string) (*entity.MLConnection, error) {
	query := `SELECT ` + connectionColumns + ` FROM ml_connections WHERE ml_user_id = $1`
	c, err := scanConnection(r.q.QueryRow(context.Background(), query, mlUserID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ml connection by seller: %w", err)
	}
	return c, nil
}

// First devuelve la conexión más antigua con token, o nil si no hay. La usan
// el scheduler y la CLI, que operan sobre la única conexión esperada.
func (r *MLConnectionRepo) First() (*entity.MLConnection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM ml_connections WHERE access_token <> ''
		ORDER BY connected_at LIMIT 1`
	c, err := scanConnection(r.q.QueryRow(context.Background(), query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get first ml connection: %w", err)
	}
	return c, nil
}

// Upsert inserta o actualiza la conexión por UserID.
func (r *MLConnectionRepo) Upsert(conn *entity.MLConnection) error {
	query := `
		INSERT INTO ml_connections (id, user_id, access_token, refresh_token,
			expires_at, ml_user_id, nickname, last_sync_at, last_metrics,
			last_metrics_at, connected_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			ml_user_id = EXCLUDED.ml_user_id,
			nickname = EXCLUDED.nickname,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(context.Background(), query,
		conn.ID, conn.UserID, conn.AccessToken, conn.RefreshToken,
		conn.ExpiresAt, conn.MLUserID, conn.Nickname, conn.LastSyncAt,
		conn.LastMetrics, conn.LastMetricsAt, conn.ConnectedAt, conn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert ml connection: %w", err)
	}
	return nil
}

// Save persiste todos los campos mutables de una conexión existente.
func (r *MLConnectionRepo) Save(conn *entity.MLConnection) error {
	query := `
		UPDATE ml_connections SET
			access_token = $2, refresh_token = $3, expires_at = $4,
			ml_user_id = $5, nickname = $6, last_sync_at = $7,
			last_metrics = $8, last_metrics_at = $9, updated_at = $10
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		conn.ID, conn.AccessToken, conn.RefreshToken, conn.ExpiresAt,
		conn.MLUserID, conn.Nickname, conn.LastSyncAt,
		conn.LastMetrics, conn.LastMetricsAt, conn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save ml connection: %w", err)
	}
	return nil
}
