// README: Notification store backed by PostgreSQL; the primary dispatch sink and the relay's queue.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kwenda/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Send persists the batch in one round trip.
func (s *Store) Send(ctx context.Context, batch []Notification) error {
	if len(batch) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, n := range batch {
		b.Queue(`
            INSERT INTO driver_notifications (
                id, driver_id, booking_id, title, message, notification_type,
                wave, not_before, expires_at, metadata, created_at
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			n.ID.String(),
			string(n.DriverID),
			string(n.BookingID),
			n.Title,
			n.Message,
			string(n.Type),
			n.Wave,
			n.NotBefore,
			n.ExpiresAt,
			n.Metadata,
			n.CreatedAt,
		)
	}
	if err := s.db.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

// DuePending returns undelivered notifications whose wave is open at now.
func (s *Store) DuePending(ctx context.Context, now time.Time, limit int) ([]Notification, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id::text, driver_id, booking_id, title, message, notification_type,
               wave, not_before, expires_at, metadata, created_at
        FROM driver_notifications
        WHERE delivered_at IS NULL
          AND not_before <= $1
          AND expires_at > $1
        ORDER BY not_before ASC, wave ASC
        LIMIT $2`, now, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var (
			n                   Notification
			id, driver, booking string
			typ                 string
		)
		if err := rows.Scan(
			&id, &driver, &booking, &n.Title, &n.Message, &typ,
			&n.Wave, &n.NotBefore, &n.ExpiresAt, &n.Metadata, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		if n.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("notification id %q: %w", id, err)
		}
		n.DriverID = types.ID(driver)
		n.BookingID = types.ID(booking)
		n.Type = Type(typ)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkDelivered(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	_, err := s.db.Exec(ctx, `
        UPDATE driver_notifications
        SET delivered_at = $1
        WHERE id::text = ANY($2) AND delivered_at IS NULL`, at, keys,
	)
	return err
}
