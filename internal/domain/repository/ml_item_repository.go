package repository

import (
	"time"

	"github.com/tu-usuario/stockml/internal/domain/entity"
)

// MLItemRepository define el puerto de persistencia para las publicaciones
// espejadas de MercadoLibre.
type MLItemRepository interface {
	// GetByItemID devuelve la publicación o nil si no existe.
	GetByItemID(itemID string) (*entity.MLItem, error)
	// Upsert inserta o actualiza la publicación por ItemID.
	Upsert(item *entity.MLItem) error
	// UpdateSalesMetrics actualiza la velocidad de venta de 30 días.
	UpdateSalesMetrics(itemID string, unitsSold30d int, lastSoldAt *time.Time) error
	List(limit int) ([]*entity.MLItem, error)
}
