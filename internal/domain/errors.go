package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrInvalidMovement  = errors.New("movimiento de stock inválido")
	ErrNegativeStock    = errors.New("el stock no puede quedar negativo")
	ErrMissingWarehouse = errors.New("bodega requerida no configurada")
)
