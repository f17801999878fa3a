package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

var _ repository.MLNotificationRepository = (*MLNotificationRepo)(nil)

// MLNotificationRepo persiste las notificaciones del webhook para auditoría.
type MLNotificationRepo struct {
	q Querier
}

// NewMLNotificationRepository construye el adaptador de notificaciones.
func NewMLNotificationRepository(q Querier) *MLNotificationRepo {
	return &MLNotificationRepo{q: q}
}

// Create persiste una notificación recibida. Genera el ID si viene vacío.
func (r *MLNotificationRepo) Create(n *entity.MLNotification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	query := `
		INSERT INTO ml_notifications (id, topic, resource, ml_user_id, application_id, raw_payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		n.ID, n.Topic, n.Resource, n.MLUserID, n.ApplicationID, n.RawPayload, n.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ml notification: %w", err)
	}
	return nil
}
