package mercadolibre

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stockml/internal/application/mlsync"
)

// Verificar en tiempo de compilación que Client implementa MarketplaceAPI.
var _ mlsync.MarketplaceAPI = (*Client)(nil)

const (
	defaultAPIBase  = "https://api.mercadolibre.com"
	defaultAuthBase = "https://auth.mercadolibre.com.ar"

	// Tamaño de página de los buscadores de ítems y órdenes.
	defaultPageSize = 50
)

// APIError es una respuesta no-2xx (o con cuerpo malformado) de la API de
// MercadoLibre. Se devuelve sin reintentos: la decisión queda en el llamador.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ML: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client adaptador que implementa MarketplaceAPI contra la API REST de
// MercadoLibre usando net/http de la librería estándar; no requiere SDK.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string

	apiBase    string
	authBase   string
	pageSize   int
	httpClient *http.Client
}

// NewClient construye el adaptador con las credenciales de la aplicación
// registrada en MercadoLibre.
func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		apiBase:      defaultAPIBase,
		authBase:     defaultAuthBase,
		pageSize:     defaultPageSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AuthorizeURL arma la URL del consentimiento OAuth con el state firmado.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("state", state)
	return c.authBase + "/authorization?" + q.Encode()
}

// ExchangeCode canjea el code del callback OAuth por un par de tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (mlsync.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	return c.postToken(ctx, form)
}

// RefreshToken canjea un refresh token por un par nuevo. MercadoLibre invalida
// el refresh token usado, así que el par devuelto debe persistirse siempre.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (mlsync.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("refresh_token", refreshToken)
	return c.postToken(ctx, form)
}

func (c *Client) postToken(ctx context.Context, form url.Values) (mlsync.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return mlsync.Token{}, fmt.Errorf("ML: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var tok tokenResponse
	if err := c.do(req, &tok); err != nil {
		return mlsync.Token{}, err
	}
	return mlsync.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
	}, nil
}

// GetUserProfile resuelve el vendedor dueño del access token.
func (c *Client) GetUserProfile(ctx context.Context, accessToken string) (mlsync.Profile, error) {
	var user userResponse
	if err := c.getJSON(ctx, c.apiBase+"/users/me", accessToken, &user); err != nil {
		return mlsync.Profile{}, err
	}
	return mlsync.Profile{
		ID:       strconv.FormatInt(user.ID, 10),
		Nickname: user.Nickname,
	}, nil
}

// GetItemIDs pagina el scan del catálogo del vendedor de a 50 ids. La lectura
// termina cuando una página trae menos ids que el tamaño pedido (el scan no
// garantiza paging.total). itemCap > 0 corta en esa cantidad y reporta el
// truncamiento.
func (c *Client) GetItemIDs(ctx context.Context, mlUserID, accessToken string, itemCap int) ([]string, bool, error) {
	var ids []string
	offset := 0
	for {
		endpoint := fmt.Sprintf("%s/users/%s/items/search?search_type=scan&limit=%d&offset=%d",
			c.apiBase, url.PathEscape(mlUserID), c.pageSize, offset)
		var page itemSearchResponse
		if err := c.getJSON(ctx, endpoint, accessToken, &page); err != nil {
			return nil, false, err
		}
		for _, id := range page.Results {
			if itemCap > 0 && len(ids) >= itemCap {
				return ids, true, nil
			}
			ids = append(ids, id)
		}
		if len(page.Results) < c.pageSize {
			break
		}
		offset += len(page.Results)
	}
	return ids, false, nil
}

// GetItem lee el detalle de una publicación.
func (c *Client) GetItem(ctx context.Context, itemID, accessToken string) (mlsync.ItemDetail, error) {
	var item itemResponse
	endpoint := c.apiBase + "/items/" + url.PathEscape(itemID)
	if err := c.getJSON(ctx, endpoint, accessToken, &item); err != nil {
		return mlsync.ItemDetail{}, err
	}
	return mlsync.ItemDetail{
		ID:                item.ID,
		Title:             item.Title,
		Status:            item.Status,
		Permalink:         item.Permalink,
		AvailableQuantity: item.AvailableQuantity,
	}, nil
}

// GetOrder lee una orden por id.
func (c *Client) GetOrder(ctx context.Context, orderID, accessToken string) (mlsync.Order, error) {
	var o orderResponse
	endpoint := c.apiBase + "/orders/" + url.PathEscape(orderID)
	if err := c.getJSON(ctx, endpoint, accessToken, &o); err != nil {
		return mlsync.Order{}, err
	}
	return toOrder(o), nil
}

// GetOrderTotals suma comisiones (sale_fee) e impuestos del sub-recurso de
// pagos de la orden.
func (c *Client) GetOrderTotals(ctx context.Context, orderID, accessToken string) (mlsync.OrderTotals, error) {
	var payments []paymentResponse
	endpoint := c.apiBase + "/orders/" + url.PathEscape(orderID) + "/payments"
	if err := c.getJSON(ctx, endpoint, accessToken, &payments); err != nil {
		return mlsync.OrderTotals{}, err
	}
	totals := mlsync.OrderTotals{Commission: decimal.Zero, Taxes: decimal.Zero}
	for _, p := range payments {
		totals.Commission = totals.Commission.Add(p.SaleFee)
		totals.Taxes = totals.Taxes.Add(p.Taxes.Amount)
	}
	return totals, nil
}

// SearchOrders pagina las órdenes del vendedor creadas desde from, de la más
// reciente a la más vieja; termina cuando una página llega incompleta.
func (c *Client) SearchOrders(ctx context.Context, mlUserID, accessToken string, from time.Time) ([]mlsync.Order, error) {
	var orders []mlsync.Order
	offset := 0
	for {
		q := url.Values{}
		q.Set("seller", mlUserID)
		q.Set("order.date_created.from", from.UTC().Format(time.RFC3339))
		q.Set("sort", "date_desc")
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("offset", strconv.Itoa(offset))
		var page orderSearchResponse
		if err := c.getJSON(ctx, c.apiBase+"/orders/search?"+q.Encode(), accessToken, &page); err != nil {
			return nil, err
		}
		for _, o := range page.Results {
			orders = append(orders, toOrder(o))
		}
		if len(page.Results) < c.pageSize {
			break
		}
		offset += len(page.Results)
	}
	return orders, nil
}

func toOrder(o orderResponse) mlsync.Order {
	order := mlsync.Order{
		ID:          strconv.FormatInt(o.ID, 10),
		Status:      o.Status,
		DateCreated: o.DateCreated,
		TotalAmount: o.TotalAmount,
	}
	for _, li := range o.OrderItems {
		order.Lines = append(order.Lines, mlsync.OrderLine{
			ItemID:    li.Item.ID,
			Title:     li.Item.Title,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
		})
	}
	return order
}

func (c *Client) getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("ML: crear HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return c.do(req, out)
}

// do ejecuta la request y deserializa la respuesta. Un status no-2xx o un
// cuerpo malformado se reportan como *APIError; un cuerpo vacío deja el
// destino en su valor cero.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return fmt.Errorf("ML: timeout o cancelación: %w", req.Context().Err())
		}
		return fmt.Errorf("ML: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return fmt.Errorf("ML: leer respuesta: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(rawBody)}
	}
	body := strings.TrimSpace(string(rawBody))
	if body == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	return nil
}
