package entity

import (
	"encoding/json"
	"time"
)

// MLConnection guarda las credenciales OAuth de MercadoLibre de un actor
// local, junto con el resultado de la última sincronización. El par de
// tokens se refresca en el lugar cuando está por vencer.
type MLConnection struct {
	ID            string
	UserID        string // actor local dueño de la conexión (una por actor)
	AccessToken   string
	RefreshToken  string
	ExpiresAt     *time.Time
	MLUserID      string
	Nickname      string
	LastSyncAt    *time.Time
	LastMetrics   json.RawMessage
	LastMetricsAt *time.Time
	ConnectedAt   time.Time
	UpdatedAt     time.Time
}
