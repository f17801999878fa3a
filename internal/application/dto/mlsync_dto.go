package dto

import (
	"encoding/json"
	"time"
)

// ConnectResponse respuesta de GET /api/ml/connect.
type ConnectResponse struct {
	AuthorizeURL string `json:"authorize_url"`
}

// ConnectionStatusResponse respuesta de GET /api/ml/status.
type ConnectionStatusResponse struct {
	Connected     bool            `json:"connected"`
	MLUserID      string          `json:"ml_user_id,omitempty"`
	Nickname      string          `json:"nickname,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	LastSyncAt    *time.Time      `json:"last_sync_at,omitempty"`
	LastMetrics   json.RawMessage `json:"last_metrics,omitempty"`
	LastMetricsAt *time.Time      `json:"last_metrics_at,omitempty"`
}

// SyncOrdersResponse respuesta de POST /api/ml/sync/orders: resultados por motivo.
type SyncOrdersResponse struct {
	Counters map[string]int `json:"counters"`
}

// WebhookRequest payload de las notificaciones push de MercadoLibre.
type WebhookRequest struct {
	Topic         string `json:"topic"`
	Resource      string `json:"resource"`
	UserID        int64  `json:"user_id"`
	ApplicationID int64  `json:"application_id"`
}
