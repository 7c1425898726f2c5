// README: Client-side errors from infrastructure libraries that must not trip a circuit.
package infra

import (
	"errors"

	"firebase.google.com/go/v4/messaging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"kwenda/internal/maps"
	"kwenda/internal/modules/notification"
)

// IsExpectedError reports errors caused by the request rather than by the
// dependency being unhealthy.
func IsExpectedError(err error) bool {
	switch {
	case errors.Is(err, pgx.ErrNoRows),
		errors.Is(err, redis.Nil),
		errors.Is(err, maps.ErrNoRoute),
		errors.Is(err, notification.ErrExpired):
		return true
	case messaging.IsInvalidArgument(err),
		messaging.IsUnregistered(err),
		messaging.IsSenderIDMismatch(err):
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 22 data exception, class 23 integrity constraint violation.
		return len(pgErr.Code) == 5 && (pgErr.Code[:2] == "22" || pgErr.Code[:2] == "23")
	}
	return false
}
