package entity

import "time"

// MLItem espeja una publicación del catálogo remoto de MercadoLibre.
// ProductID enlaza al producto local cuando el matcher encontró
// correspondencia; la ingesta de órdenes lo usa como caché para no
// re-matchear. UnitsSold30d y LastSoldAt llevan la velocidad de venta
// de los últimos 30 días.
type MLItem struct {
	ItemID            string
	Title             string
	Status            string
	Permalink         string
	AvailableQuantity int
	ProductID         *string
	MatchedName       string
	UnitsSold30d      int
	LastSoldAt        *time.Time
	LastSynced        time.Time
}
