package infra

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"kwenda/internal/maps"
	"kwenda/internal/modules/notification"
)

func TestIsExpectedError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no rows", fmt.Errorf("lookup: %w", pgx.ErrNoRows), true},
		{"redis nil", redis.Nil, true},
		{"no route", maps.ErrNoRoute, true},
		{"expired offer", fmt.Errorf("push: %w", notification.ErrExpired), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"invalid text", &pgconn.PgError{Code: "22P02"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, false},
		{"deadline", context.DeadlineExceeded, false},
		{"network", errors.New("dial tcp: connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpectedError(tt.err))
		})
	}
}
