package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on the users and usage tables:
//
//	users(id text primary key, tier text)
//	usage(user_id text, day date, count int, primary key (user_id, day))
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a quota store backed by PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) UserTier(ctx context.Context, userID string) (Tier, error) {
	query := `SELECT tier FROM users WHERE id = $1;`
	var tier string
	if err := s.pool.QueryRow(ctx, query, userID).Scan(&tier); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TierFree, nil
		}
		return "", fmt.Errorf("quota: select tier: %w", err)
	}
	if tier == "" {
		return TierFree, nil
	}
	return Tier(tier), nil
}

func (s *PostgresStore) DailyUsage(ctx context.Context, userID, day string) (int, error) {
	query := `SELECT count FROM usage WHERE user_id = $1 AND day = $2;`
	var count int
	if err := s.pool.QueryRow(ctx, query, userID, day).Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("quota: select usage: %w", err)
	}
	return count, nil
}

// IncrementUsage is a single upsert so the read-modify-write is atomic under
// concurrent job completions.
func (s *PostgresStore) IncrementUsage(ctx context.Context, userID, day string) error {
	query := `
INSERT INTO usage (user_id, day, count)
VALUES ($1, $2, 1)
ON CONFLICT (user_id, day) DO UPDATE SET count = usage.count + 1;
`
	_, err := s.pool.Exec(ctx, query, userID, day)
	return err
}

var _ Store = (*PostgresStore)(nil)
