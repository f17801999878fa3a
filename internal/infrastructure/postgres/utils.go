package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE de unique_violation.
const uniqueViolationCode = "23505"

// isUniqueViolation reporta si err proviene de un constraint o índice UNIQUE.
// Sostiene la idempotencia por referencia de venta y los duplicados de SKU,
// que los repos traducen a domain.ErrDuplicate.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	// Fallback por si el error llega envuelto sin el tipo concreto del driver.
	return strings.Contains(err.Error(), uniqueViolationCode)
}
