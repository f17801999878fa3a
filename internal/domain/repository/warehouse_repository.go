package repository

import "github.com/tu-usuario/stockml/internal/domain/entity"

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
// Las bodegas son inmutables una vez creadas; no hay Update ni Delete.
type WarehouseRepository interface {
	Create(warehouse *entity.Warehouse) error
	GetByID(id string) (*entity.Warehouse, error)
	// GetByType resuelve la bodega singleton de un tipo (COMUN | MERCADOLIBRE).
	GetByType(warehouseType string) (*entity.Warehouse, error)
	List() ([]*entity.Warehouse, error)
}
