// README: Postgres source of recent driver assignment times per city.
package waittime

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const recentAssignmentsSQL = `
SELECT created_at, assigned_at
FROM bookings
WHERE city = $1 AND assigned_at IS NOT NULL
ORDER BY created_at DESC
LIMIT $2`

func (s *Store) RecentAssignments(ctx context.Context, city string, limit int) ([]Assignment, error) {
	rows, err := s.db.Query(ctx, recentAssignmentsSQL, city, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.CreatedAt, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
