package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type friendRepo struct {
	pool *pgxpool.Pool
}

func NewFriendRepository(pool *pgxpool.Pool) FriendRepository {
	return &friendRepo{pool: pool}
}

func (r *friendRepo) Add(ctx context.Context, userID, friendID string, accepted bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO friends (user_id, friend_id, accepted)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, friend_id) DO UPDATE SET accepted = EXCLUDED.accepted`,
		userID, friendID, accepted,
	)
	return err
}

// AreFriends checks for an accepted friendship in either direction.
func (r *friendRepo) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM friends
		     WHERE accepted
		       AND ((user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1))
		 )`, userA, userB,
	).Scan(&ok)
	return ok, err
}
