package entity

import "time"

// MLNotification registra una notificación recibida por el webhook de
// MercadoLibre, con el payload crudo para auditoría.
type MLNotification struct {
	ID            string
	Topic         string
	Resource      string
	MLUserID      string
	ApplicationID string
	RawPayload    string
	ReceivedAt    time.Time
}
