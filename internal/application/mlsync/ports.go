package mlsync

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/domain/repository"
)

// Tipos de transporte neutros: el adaptador HTTP de MercadoLibre traduce su
// protocolo a estas estructuras, y el motor de reconciliación no conoce
// nada del wire format.

// Token es un par de credenciales OAuth con su vida útil en segundos.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Profile identifica al vendedor en MercadoLibre.
type Profile struct {
	ID       string
	Nickname string
}

// ItemDetail es el detalle de una publicación del catálogo remoto.
type ItemDetail struct {
	ID                string
	Title             string
	Status            string
	Permalink         string
	AvailableQuantity int
}

// OrderLine es una línea de orden remota.
type OrderLine struct {
	ItemID    string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order es una orden de venta remota.
type Order struct {
	ID          string
	Status      string
	DateCreated time.Time
	TotalAmount decimal.Decimal
	Lines       []OrderLine
}

// OrderTotals agrega comisiones e impuestos del sub-recurso de pagos.
type OrderTotals struct {
	Commission decimal.Decimal
	Taxes      decimal.Decimal
}

// MarketplaceAPI es el puerto hacia la API de MercadoLibre. La implementación
// vive en internal/infrastructure/mercadolibre.
type MarketplaceAPI interface {
	ExchangeCode(ctx context.Context, code string) (Token, error)
	RefreshToken(ctx context.Context, refreshToken string) (Token, error)
	GetUserProfile(ctx context.Context, accessToken string) (Profile, error)
	// GetItemIDs pagina el scan del catálogo del vendedor. itemCap > 0 corta
	// la lectura en esa cantidad; el booleano indica si quedó truncada.
	GetItemIDs(ctx context.Context, mlUserID, accessToken string, itemCap int) ([]string, bool, error)
	GetItem(ctx context.Context, itemID, accessToken string) (ItemDetail, error)
	GetOrder(ctx context.Context, orderID, accessToken string) (Order, error)
	GetOrderTotals(ctx context.Context, orderID, accessToken string) (OrderTotals, error)
	// SearchOrders devuelve las órdenes del vendedor creadas desde from.
	SearchOrders(ctx context.Context, mlUserID, accessToken string, from time.Time) ([]Order, error)
}

// SaleTxRunner ejecuta la ingesta de una orden (venta, líneas y salidas de
// stock) dentro de una única transacción de BD.
type SaleTxRunner interface {
	RunSale(ctx context.Context, fn func(
		saleRepo repository.SaleRepository,
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}
