package mlsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/application/ledger"
	"github.com/tu-usuario/stockml/internal/domain"
	"github.com/tu-usuario/stockml/internal/domain/entity"
	"github.com/tu-usuario/stockml/internal/domain/matcher"
	"github.com/tu-usuario/stockml/internal/domain/repository"
)

// Resultados de la ingesta de una orden. Los estados de negocio (ya procesada,
// cancelada, sin matches, sin token) son resultados normales, no errores:
// el lote de sincronización los cuenta y sigue.
const (
	OutcomeOK                 = "ok"
	OutcomeAlreadyProcessed   = "already_processed"
	OutcomeIgnoredStatus      = "ignored_status"
	OutcomeNoMatches          = "no_matches"
	OutcomeMissingAccessToken = "missing_access_token"
	OutcomeError              = "error"
)

// ErrMissingAccessToken indica que la conexión no tiene access token.
var ErrMissingAccessToken = errors.New("mlsync: la conexión no tiene access token")

const (
	// Margen de anticipación para refrescar el token antes de que venza.
	refreshWindow = 2 * time.Minute
	// Ventana de las métricas de velocidad de venta.
	metricsWindowDays = 30
)

// orderReference arma la clave de idempotencia de una orden ingerida.
func orderReference(orderID string) string { return "ML ORDER " + orderID }

// Engine reconcilia el estado local con MercadoLibre: espeja el catálogo y
// su stock en la bodega MERCADOLIBRE e ingiere órdenes como ventas con sus
// salidas de stock, de forma idempotente por orden.
type Engine struct {
	api         MarketplaceAPI
	ledger      *ledger.UseCase
	saleTx      SaleTxRunner
	connRepo    repository.MLConnectionRepository
	itemRepo    repository.MLItemRepository
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	stockRepo   repository.StockRepository

	mlWarehouseID string

	// Serializa el refresco de token por conexión: dos sincronizaciones
	// concurrentes no deben gastar el mismo refresh token dos veces.
	mu        sync.Mutex
	refreshMu map[string]*sync.Mutex
}

// NewEngine construye el motor de reconciliación. mlWarehouseID es la bodega
// de tipo MERCADOLIBRE donde se espeja el stock remoto.
func NewEngine(
	api MarketplaceAPI,
	ledgerUC *ledger.UseCase,
	saleTx SaleTxRunner,
	connRepo repository.MLConnectionRepository,
	itemRepo repository.MLItemRepository,
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
	stockRepo repository.StockRepository,
	mlWarehouseID string,
) *Engine {
	return &Engine{
		api:           api,
		ledger:        ledgerUC,
		saleTx:        saleTx,
		connRepo:      connRepo,
		itemRepo:      itemRepo,
		productRepo:   productRepo,
		saleRepo:      saleRepo,
		stockRepo:     stockRepo,
		mlWarehouseID: mlWarehouseID,
		refreshMu:     map[string]*sync.Mutex{},
	}
}

func (e *Engine) connMutex(connID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.refreshMu[connID]
	if !ok {
		m = &sync.Mutex{}
		e.refreshMu[connID] = m
	}
	return m
}

// Connect intercambia el code OAuth del callback por tokens, resuelve el
// perfil del vendedor y crea o actualiza la conexión del actor.
func (e *Engine) Connect(ctx context.Context, userID, code string) (*entity.MLConnection, error) {
	tok, err := e.api.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("intercambiar code OAuth: %w", err)
	}
	profile, err := e.api.GetUserProfile(ctx, tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("resolver perfil del vendedor: %w", err)
	}

	now := time.Now()
	conn, err := e.connRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		conn = &entity.MLConnection{ID: uuid.New().String(), UserID: userID, ConnectedAt: now}
	}
	expiresAt := now.Add(time.Duration(tok.ExpiresIn) * time.Second)
	conn.AccessToken = tok.AccessToken
	conn.RefreshToken = tok.RefreshToken
	conn.ExpiresAt = &expiresAt
	conn.MLUserID = profile.ID
	conn.Nickname = profile.Nickname
	conn.UpdatedAt = now
	if err := e.connRepo.Upsert(conn); err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("ml_user_id", profile.ID).
		Str("nickname", profile.Nickname).Msg("conexión MercadoLibre establecida")
	return conn, nil
}

// ValidAccessToken devuelve un access token vigente para la conexión,
// refrescándolo (y persistiendo el par nuevo) cuando vence dentro de los
// próximos dos minutos. En el primer uso resuelve y guarda el ml_user_id y
// nickname del vendedor si la conexión no los tiene.
func (e *Engine) ValidAccessToken(ctx context.Context, conn *entity.MLConnection) (string, error) {
	if conn.AccessToken == "" {
		return "", ErrMissingAccessToken
	}
	m := e.connMutex(conn.ID)
	m.Lock()
	defer m.Unlock()

	if conn.ExpiresAt != nil && time.Until(*conn.ExpiresAt) <= refreshWindow {
		tok, err := e.api.RefreshToken(ctx, conn.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("refrescar token: %w", err)
		}
		now := time.Now()
		expiresAt := now.Add(time.Duration(tok.ExpiresIn) * time.Second)
		conn.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			conn.RefreshToken = tok.RefreshToken
		}
		conn.ExpiresAt = &expiresAt
		conn.UpdatedAt = now
		if err := e.connRepo.Save(conn); err != nil {
			return "", err
		}
		log.Debug().Str("ml_user_id", conn.MLUserID).Msg("token de MercadoLibre refrescado")
	}

	if conn.MLUserID == "" {
		profile, err := e.api.GetUserProfile(ctx, conn.AccessToken)
		if err != nil {
			return "", fmt.Errorf("resolver perfil del vendedor: %w", err)
		}
		conn.MLUserID = profile.ID
		conn.Nickname = profile.Nickname
		conn.UpdatedAt = time.Now()
		if err := e.connRepo.Save(conn); err != nil {
			return "", err
		}
	}
	return conn.AccessToken, nil
}

// CatalogSyncResult resume una pasada de sincronización de catálogo y stock.
type CatalogSyncResult struct {
	ItemsSeen      int  `json:"items_seen"`
	ItemsMatched   int  `json:"items_matched"`
	ItemsUnmatched int  `json:"items_unmatched"`
	StockAdjusted  int  `json:"stock_adjusted"`
	Truncated      bool `json:"truncated"`
}

// SyncCatalogAndStock espeja el catálogo remoto: lista las publicaciones del
// vendedor (hasta itemCap si > 0), matchea las no mapeadas contra los
// productos locales y alinea la bodega MERCADOLIBRE con available_quantity
// vía ajustes del libro. Al final recalcula las métricas de venta de 30 días
// y las guarda en la conexión. Un ítem que falla se loguea y no corta la
// pasada.
func (e *Engine) SyncCatalogAndStock(ctx context.Context, conn *entity.MLConnection, actor string, itemCap int) (*CatalogSyncResult, error) {
	token, err := e.ValidAccessToken(ctx, conn)
	if err != nil {
		return nil, err
	}
	ids, truncated, err := e.api.GetItemIDs(ctx, conn.MLUserID, token, itemCap)
	if err != nil {
		return nil, fmt.Errorf("listar catálogo: %w", err)
	}
	index, err := e.buildIndex()
	if err != nil {
		return nil, err
	}

	res := &CatalogSyncResult{Truncated: truncated}
	for _, id := range ids {
		detail, err := e.api.GetItem(ctx, id, token)
		if err != nil {
			log.Warn().Err(err).Str("item_id", id).Msg("detalle de publicación falló, se omite")
			continue
		}
		item, err := e.mirrorItem(detail, index)
		if err != nil {
			log.Warn().Err(err).Str("item_id", id).Msg("persistir publicación falló, se omite")
			continue
		}
		res.ItemsSeen++
		if item.ProductID == nil {
			res.ItemsUnmatched++
			continue
		}
		res.ItemsMatched++
		adjusted, err := e.mirrorStock(ctx, item.ItemID, *item.ProductID, detail.AvailableQuantity, actor)
		if err != nil {
			log.Warn().Err(err).Str("item_id", id).Msg("ajuste de stock espejado falló")
			continue
		}
		if adjusted {
			res.StockAdjusted++
		}
	}

	if err := e.refreshSalesMetrics(ctx, conn, token); err != nil {
		log.Warn().Err(err).Msg("métricas de venta de 30 días fallaron")
	}
	now := time.Now()
	conn.LastSyncAt = &now
	conn.UpdatedAt = now
	if err := e.connRepo.Save(conn); err != nil {
		return nil, err
	}
	log.Info().Int("items", res.ItemsSeen).Int("matched", res.ItemsMatched).
		Int("adjusted", res.StockAdjusted).Bool("truncated", res.Truncated).
		Msg("catálogo MercadoLibre sincronizado")
	return res, nil
}

// buildIndex precomputa los candidatos del matcher con todos los productos.
func (e *Engine) buildIndex() ([]matcher.Candidate, error) {
	products, err := e.productRepo.List()
	if err != nil {
		return nil, fmt.Errorf("listar productos para matching: %w", err)
	}
	return matcher.BuildIndex(products), nil
}

// mirrorItem actualiza la copia local de una publicación. Solo intenta
// matchear publicaciones sin producto asignado: un mapeo existente (manual o
// de una pasada anterior) nunca se pisa.
func (e *Engine) mirrorItem(detail ItemDetail, index []matcher.Candidate) (*entity.MLItem, error) {
	item, err := e.itemRepo.GetByItemID(detail.ID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item = &entity.MLItem{ItemID: detail.ID}
	}
	item.Title = detail.Title
	item.Status = detail.Status
	item.Permalink = detail.Permalink
	item.AvailableQuantity = detail.AvailableQuantity
	item.LastSynced = time.Now()
	if item.ProductID == nil {
		if r, ok := matcher.Match(detail.Title, index); ok {
			pid := r.Product.ID
			item.ProductID = &pid
			item.MatchedName = r.Product.Name
		}
	}
	if err := e.itemRepo.Upsert(item); err != nil {
		return nil, err
	}
	return item, nil
}

// mirrorStock alinea la bodega MERCADOLIBRE con la cantidad remota mediante
// un ajuste (permitiendo negativo: la verdad del stock remoto la tiene ML).
func (e *Engine) mirrorStock(ctx context.Context, itemID, productID string, remoteQty int, actor string) (bool, error) {
	stock, err := e.stockRepo.Get(productID, e.mlWarehouseID)
	if err != nil {
		return false, err
	}
	delta := decimal.NewFromInt(int64(remoteQty)).Sub(stock.Quantity)
	if delta.IsZero() {
		return false, nil
	}
	_, err = e.ledger.Adjustment(ctx, ledger.AdjustmentInput{
		ProductID:     productID,
		WarehouseID:   e.mlWarehouseID,
		Quantity:      delta,
		Actor:         actor,
		Reference:     "ML SYNC " + itemID,
		AllowNegative: true,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// metricsSummary es el resumen de 30 días que se guarda en la conexión.
type metricsSummary struct {
	WindowDays     int       `json:"window_days"`
	Orders         int       `json:"orders"`
	Units          int       `json:"units"`
	ItemsWithSales int       `json:"items_with_sales"`
	ComputedAt     time.Time `json:"computed_at"`
}

// refreshSalesMetrics recalcula la velocidad de venta de los últimos 30 días
// a partir del buscador de órdenes: unidades y última venta por publicación,
// más un resumen agregado en la conexión.
func (e *Engine) refreshSalesMetrics(ctx context.Context, conn *entity.MLConnection, token string) error {
	from := time.Now().AddDate(0, 0, -metricsWindowDays)
	orders, err := e.api.SearchOrders(ctx, conn.MLUserID, token, from)
	if err != nil {
		return fmt.Errorf("buscar órdenes de 30 días: %w", err)
	}

	type itemAgg struct {
		units int
		last  time.Time
	}
	perItem := map[string]*itemAgg{}
	summary := metricsSummary{WindowDays: metricsWindowDays, ComputedAt: time.Now()}
	for _, o := range orders {
		if ignoredStatus(o.Status) {
			continue
		}
		summary.Orders++
		for _, line := range o.Lines {
			summary.Units += line.Quantity
			agg, ok := perItem[line.ItemID]
			if !ok {
				agg = &itemAgg{}
				perItem[line.ItemID] = agg
			}
			agg.units += line.Quantity
			if o.DateCreated.After(agg.last) {
				agg.last = o.DateCreated
			}
		}
	}
	summary.ItemsWithSales = len(perItem)

	for itemID, agg := range perItem {
		last := agg.last
		if err := e.itemRepo.UpdateSalesMetrics(itemID, agg.units, &last); err != nil {
			log.Warn().Err(err).Str("item_id", itemID).Msg("métricas de publicación fallaron")
		}
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	now := time.Now()
	conn.LastMetrics = raw
	conn.LastMetricsAt = &now
	return nil
}

// ignoredStatus indica órdenes que no deben ingerirse como ventas.
func ignoredStatus(status string) bool {
	switch strings.ToLower(status) {
	case "cancelled", "expired":
		return true
	}
	return false
}

type resolvedLine struct {
	product *entity.Product
	line    OrderLine
}

// SyncOrder ingiere una orden como venta local. Devuelve el resultado de
// negocio; error solo ante fallas reales (red, BD). La idempotencia se
// verifica por referencia antes de tocar la API: re-procesar una orden ya
// ingerida no genera llamadas ni escrituras.
func (e *Engine) SyncOrder(ctx context.Context, conn *entity.MLConnection, orderID, actor string) (string, error) {
	ref := orderReference(orderID)
	exists, err := e.saleRepo.ExistsByReference(ref)
	if err != nil {
		return "", err
	}
	if exists {
		return OutcomeAlreadyProcessed, nil
	}

	token, err := e.ValidAccessToken(ctx, conn)
	if errors.Is(err, ErrMissingAccessToken) {
		return OutcomeMissingAccessToken, nil
	}
	if err != nil {
		return "", err
	}

	order, err := e.api.GetOrder(ctx, orderID, token)
	if err != nil {
		return "", fmt.Errorf("leer orden %s: %w", orderID, err)
	}
	if ignoredStatus(order.Status) {
		return OutcomeIgnoredStatus, nil
	}

	resolved := e.resolveLines(ctx, order.Lines, token)
	if len(resolved) == 0 {
		return OutcomeNoMatches, nil
	}

	totals, err := e.api.GetOrderTotals(ctx, orderID, token)
	if err != nil {
		return "", fmt.Errorf("leer pagos de la orden %s: %w", orderID, err)
	}

	now := time.Now()
	sale := &entity.Sale{
		ID:                uuid.New().String(),
		WarehouseID:       e.mlWarehouseID,
		Total:             order.TotalAmount,
		Reference:         ref,
		MLOrderID:         orderID,
		MLCommissionTotal: totals.Commission,
		MLTaxTotal:        totals.Taxes,
		CreatedBy:         actor,
		CreatedAt:         now,
	}
	items := make([]*entity.SaleItem, 0, len(resolved))
	for _, rl := range resolved {
		qty := decimal.NewFromInt(int64(rl.line.Quantity))
		items = append(items, &entity.SaleItem{
			ID:             uuid.New().String(),
			SaleID:         sale.ID,
			ProductID:      rl.product.ID,
			Quantity:       qty,
			UnitPrice:      rl.line.UnitPrice,
			FinalUnitPrice: rl.line.UnitPrice,
			LineTotal:      rl.line.UnitPrice.Mul(qty),
			VATPercent:     rl.product.VATPercent,
		})
	}

	// Venta, líneas y salidas de stock en una sola transacción: la referencia
	// única de la venta hace atómica la idempotencia frente a concurrentes.
	err = e.saleTx.RunSale(ctx, func(
		saleRepo repository.SaleRepository,
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := saleRepo.Create(sale, items); err != nil {
			return err
		}
		for _, rl := range resolved {
			price := rl.line.UnitPrice
			vat := rl.product.VATPercent
			_, err := e.ledger.ExitInTx(movRepo, stockRepo, productRepo, ledger.ExitInput{
				ProductID:     rl.product.ID,
				WarehouseID:   e.mlWarehouseID,
				Quantity:      decimal.NewFromInt(int64(rl.line.Quantity)),
				Actor:         actor,
				Reference:     ref,
				SalePrice:     &price,
				VATPercent:    &vat,
				AllowNegative: true,
				SaleID:        &sale.ID,
			}, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			// Otro proceso ingirió la misma orden entre el chequeo y el commit.
			return OutcomeAlreadyProcessed, nil
		}
		return "", err
	}
	log.Info().Str("order_id", orderID).Int("lines", len(resolved)).
		Str("total", order.TotalAmount.StringFixed(2)).Msg("orden MercadoLibre ingerida")
	return OutcomeOK, nil
}

// resolveLines mapea líneas de orden a productos locales vía la caché de
// publicaciones, con fallback a detalle + matcher para publicaciones aún no
// vistas (el resultado queda cacheado). Las líneas sin producto se omiten.
func (e *Engine) resolveLines(ctx context.Context, lines []OrderLine, token string) []resolvedLine {
	var index []matcher.Candidate
	indexBuilt := false

	var resolved []resolvedLine
	for _, line := range lines {
		item, err := e.itemRepo.GetByItemID(line.ItemID)
		if err != nil {
			log.Warn().Err(err).Str("item_id", line.ItemID).Msg("leer caché de publicación falló")
			continue
		}
		if item == nil || item.ProductID == nil {
			detail, err := e.api.GetItem(ctx, line.ItemID, token)
			if err != nil {
				log.Warn().Err(err).Str("item_id", line.ItemID).Msg("detalle de publicación falló")
				continue
			}
			if !indexBuilt {
				index, err = e.buildIndex()
				if err != nil {
					log.Warn().Err(err).Msg("índice de matching falló")
					continue
				}
				indexBuilt = true
			}
			item, err = e.mirrorItem(detail, index)
			if err != nil {
				log.Warn().Err(err).Str("item_id", line.ItemID).Msg("cachear publicación falló")
				continue
			}
		}
		if item.ProductID == nil {
			continue
		}
		product, err := e.productRepo.GetByID(*item.ProductID)
		if err != nil || product == nil {
			continue
		}
		resolved = append(resolved, resolvedLine{product: product, line: line})
	}
	return resolved
}

// SyncRecentOrders ingiere las órdenes de la ventana de días indicada y
// acumula resultados por motivo. Una orden que falla se cuenta como error y
// no aborta el lote.
func (e *Engine) SyncRecentOrders(ctx context.Context, conn *entity.MLConnection, actor string, windowDays int) (map[string]int, error) {
	counters := map[string]int{}
	token, err := e.ValidAccessToken(ctx, conn)
	if errors.Is(err, ErrMissingAccessToken) {
		counters[OutcomeMissingAccessToken]++
		return counters, nil
	}
	if err != nil {
		return nil, err
	}

	from := time.Now().AddDate(0, 0, -windowDays)
	orders, err := e.api.SearchOrders(ctx, conn.MLUserID, token, from)
	if err != nil {
		return nil, fmt.Errorf("buscar órdenes recientes: %w", err)
	}
	for _, o := range orders {
		outcome, err := e.SyncOrder(ctx, conn, o.ID, actor)
		if err != nil {
			counters[OutcomeError]++
			log.Error().Err(err).Str("order_id", o.ID).Msg("ingesta de orden falló")
			continue
		}
		counters[outcome]++
	}
	log.Info().Interface("counters", counters).Int("window_days", windowDays).
		Msg("órdenes recientes sincronizadas")
	return counters, nil
}
