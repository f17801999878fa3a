package repository

import "github.com/tu-usuario/stockml/internal/domain/entity"

// MLConnectionRepository define el puerto de persistencia para las
// conexiones OAuth de MercadoLibre (una por actor local).
type MLConnectionRepository interface {
	GetByUserID(userID string) (*entity.MLConnection, error)
	GetByMLUserID(mlUserID string) (*entity.MLConnection, error)
	// First devuelve la conexión más antigua con token, o nil si no hay.
	First() (*entity.MLConnection, error)
	// Upsert inserta o actualiza la conexión por UserID.
	Upsert(conn *entity.MLConnection) error
	// Save persiste todos los campos mutables de una conexión existente.
	Save(conn *entity.MLConnection) error
}
