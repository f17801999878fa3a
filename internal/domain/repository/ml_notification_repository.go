package repository

import "github.com/tu-usuario/stockml/internal/domain/entity"

// MLNotificationRepository define el puerto para auditar notificaciones
// del webhook de MercadoLibre.
type MLNotificationRepository interface {
	Create(notification *entity.MLNotification) error
}
