package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tu-usuario/stockml/internal/application/dto"
	"github.com/tu-usuario/stockml/internal/application/mlsync"
	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/repository"
	"github.com/tu-usuario/stockml/internal/infrastructure/mercadolibre"
	"github.com/tu-usuario/stockml/pkg/mlstate"
)

// MLSyncHandler maneja el flujo OAuth, las sincronizaciones manuales y el
// webhook de MercadoLibre.
type MLSyncHandler struct {
	engine        *mlsync.Engine
	client        *mercadolibre.Client
	connRepo      repository.MLConnectionRepository
	notifications repository.MLNotificationRepository
	state         *mlstate.Signer

	itemCap    int
	windowDays int
}

// NewMLSyncHandler construye el handler.
func NewMLSyncHandler(
	engine *mlsync.Engine,
	client *mercadolibre.Client,
	connRepo repository.MLConnectionRepository,
	notifications repository.MLNotificationRepository,
	state *mlstate.Signer,
	itemCap, windowDays int,
) *MLSyncHandler {
	return &MLSyncHandler{
		engine:        engine,
		client:        client,
		connRepo:      connRepo,
		notifications: notifications,
		state:         state,
		itemCap:       itemCap,
		windowDays:    windowDays,
	}
}

// Connect godoc
// @Summary      Iniciar autorización OAuth con MercadoLibre
// @Tags         mercadolibre
// @Produce      json
// @Param        X-Actor  header  string  false  "Actor local dueño de la conexión"
// @Success      200  {object}  dto.ConnectResponse
// @Router       /api/ml/connect [get]
func (h *MLSyncHandler) Connect(c *fiber.Ctx) error {
	state, err := h.state.Sign(actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ConnectResponse{AuthorizeURL: h.client.AuthorizeURL(state)})
}

// Callback godoc
// @Summary      Callback OAuth de MercadoLibre
// @Tags         mercadolibre
// @Produce      json
// @Param        code   query  string  true  "Code de autorización"
// @Param        state  query  string  true  "State firmado emitido por /ml/connect"
// @Success      200  {object}  dto.ConnectionStatusResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ml/callback [get]
func (h *MLSyncHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "falta el parámetro code"})
	}
	userID, err := h.state.Verify(c.Query("state"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	}
	conn, err := h.engine.Connect(c.Context(), userID, code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(statusOf(conn))
}

// Status godoc
// @Summary      Estado de la conexión con MercadoLibre
// @Tags         mercadolibre
// @Produce      json
// @Success      200  {object}  dto.ConnectionStatusResponse
// @Router       /api/ml/status [get]
func (h *MLSyncHandler) Status(c *fiber.Ctx) error {
	conn, err := h.connRepo.GetByUserID(actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(statusOf(conn))
}

// SyncStock godoc
// @Summary      Sincronizar catálogo y stock desde MercadoLibre
// @Tags         mercadolibre
// @Produce      json
// @Success      200  {object}  mlsync.CatalogSyncResult
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/ml/sync/stock [post]
func (h *MLSyncHandler) SyncStock(c *fiber.Ctx) error {
	conn, err := h.requireConnection(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.engine.SyncCatalogAndStock(c.Context(), conn, actorFrom(c), h.itemCap)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// SyncOrders godoc
// @Summary      Ingerir órdenes recientes de MercadoLibre
// @Tags         mercadolibre
// @Produce      json
// @Param        days  query  int  false  "Ventana hacia atrás en días"
// @Success      200  {object}  dto.SyncOrdersResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/ml/sync/orders [post]
func (h *MLSyncHandler) SyncOrders(c *fiber.Ctx) error {
	conn, err := h.requireConnection(c)
	if err != nil {
		return writeError(c, err)
	}
	days := h.windowDays
	if q := c.Query("days"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			days = n
		}
	}
	counters, err := h.engine.SyncRecentOrders(c.Context(), conn, actorFrom(c), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SyncOrdersResponse{Counters: counters})
}

// Webhook godoc
// @Summary      Webhook de notificaciones push de MercadoLibre
// @Description  Registra la notificación y, para el tópico orders, dispara la
//
//	ingesta de la orden. Siempre responde 200: MercadoLibre
//	reintenta ante cualquier otro status.
//
// @Tags         mercadolibre
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/ml/webhook [post]
func (h *MLSyncHandler) Webhook(c *fiber.Ctx) error {
	var in dto.WebhookRequest
	if err := c.BodyParser(&in); err != nil {
		log.Warn().Err(err).Msg("webhook ML con cuerpo inválido")
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	notification := &entity.MLNotification{
		Topic:         in.Topic,
		Resource:      in.Resource,
		MLUserID:      strconv.FormatInt(in.UserID, 10),
		ApplicationID: strconv.FormatInt(in.ApplicationID, 10),
		RawPayload:    string(c.Body()),
		ReceivedAt:    time.Now(),
	}
	if err := h.notifications.Create(notification); err != nil {
		log.Error().Err(err).Msg("persistir notificación ML")
	}

	if strings.HasPrefix(in.Topic, "orders") {
		orderID := orderIDFromResource(in.Resource)
		if orderID == "" {
			return c.JSON(fiber.Map{"status": "ignored"})
		}
		conn, err := h.connRepo.GetByMLUserID(notification.MLUserID)
		if err == nil && conn == nil {
			conn, err = h.connRepo.First()
		}
		if err != nil || conn == nil {
			log.Warn().Str("resource", in.Resource).Msg("webhook ML sin conexión asociada")
			return c.JSON(fiber.Map{"status": "ignored"})
		}
		outcome, err := h.engine.SyncOrder(c.Context(), conn, orderID, "ml-webhook")
		if err != nil {
			log.Error().Err(err).Str("order_id", orderID).Msg("ingesta por webhook falló")
			return c.JSON(fiber.Map{"status": "error"})
		}
		return c.JSON(fiber.Map{"status": outcome})
	}
	return c.JSON(fiber.Map{"status": "stored"})
}

// requireConnection resuelve la conexión del actor, con fallback a la única
// conexión existente.
func (h *MLSyncHandler) requireConnection(c *fiber.Ctx) (*entity.MLConnection, error) {
	conn, err := h.connRepo.GetByUserID(actorFrom(c))
	if err != nil {
		return nil, err
	}
	if conn == nil {
		conn, err = h.connRepo.First()
		if err != nil {
			return nil, err
		}
	}
	if conn == nil {
		return nil, domain.ErrNotFound
	}
	return conn, nil
}

// orderIDFromResource extrae el id de orden de un resource tipo "/orders/123".
func orderIDFromResource(resource string) string {
	parts := strings.Split(strings.Trim(resource, "/"), "/")
	if len(parts) != 2 || parts[0] != "orders" {
		return ""
	}
	return parts[1]
}

func statusOf(conn *entity.MLConnection) dto.ConnectionStatusResponse {
	if conn == nil {
		return dto.ConnectionStatusResponse{Connected: false}
	}
	return dto.ConnectionStatusResponse{
		Connected:     conn.AccessToken != "",
		MLUserID:      conn.MLUserID,
		Nickname:      conn.Nickname,
		ExpiresAt:     conn.ExpiresAt,
		LastSyncAt:    conn.LastSyncAt,
		LastMetrics:   conn.LastMetrics,
		LastMetricsAt: conn.LastMetricsAt,
	}
}
