package mercadolibre

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estructuras del wire format de la API de MercadoLibre. Solo los campos que
// el motor de reconciliación consume; el resto del payload se ignora.

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	UserID       int64  `json:"user_id"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}

type itemSearchResponse struct {
	Results []string `json:"results"`
}

type itemResponse struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Status            string `json:"status"`
	Permalink         string `json:"permalink"`
	AvailableQuantity int    `json:"available_quantity"`
}

type orderItemResponse struct {
	Item struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"item"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderResponse struct {
	ID          int64               `json:"id"`
	Status      string              `json:"status"`
	DateCreated time.Time           `json:"date_created"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	OrderItems  []orderItemResponse `json:"order_items"`
}

type orderSearchResponse struct {
	Results []orderResponse `json:"results"`
}

type paymentResponse struct {
	Status  string          `json:"status"`
	SaleFee decimal.Decimal `json:"sale_fee"`
	Taxes   struct {
		Amount decimal.Decimal `json:"amount"`
	} `json:"taxes"`
}
