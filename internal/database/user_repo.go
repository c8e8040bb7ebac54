package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (user_id, nickname, is_placeholder, created_at)
		 VALUES ($1, $2, $3, $4)`,
		user.UserID, user.Nickname, user.IsPlaceholder, user.CreatedAt,
	)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, nickname, is_placeholder, created_at
		 FROM users WHERE user_id = $1`, id,
	).Scan(&u.UserID, &u.Nickname, &u.IsPlaceholder, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepo) EnsurePlaceholder(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (user_id, nickname, is_placeholder, created_at)
		 VALUES ($1, '', TRUE, NOW())
		 ON CONFLICT (user_id) DO NOTHING`, id,
	)
	return err
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	return err
}
