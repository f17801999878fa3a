package entity

import "time"

// Tipos de bodega. Se espera exactamente una bodega por tipo: la física
// (COMUN) y el espejo de MercadoLibre (MERCADOLIBRE), resueltas por tipo
// al arrancar e inyectadas donde se necesiten.
const (
	WarehouseTypeComun        = "COMUN"
	WarehouseTypeMercadoLibre = "MERCADOLIBRE"
)

// Warehouse representa una ubicación lógica de stock. Inmutable una vez creada.
type Warehouse struct {
	ID        string
	Name      string
	Type      string // COMUN | MERCADOLIBRE (único por tipo)
	CreatedAt time.Time
}
