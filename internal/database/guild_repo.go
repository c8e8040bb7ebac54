package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type guildRepo struct {
	pool *pgxpool.Pool
}

func NewGuildRepository(pool *pgxpool.Pool) GuildRepository {
	return &guildRepo{pool: pool}
}

func (r *guildRepo) Create(ctx context.Context, guild *models.Guild) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO guilds (guild_id, owner_id, name, created_at)
		 VALUES ($1, $2, $3, $4)`,
		guild.GuildID, guild.OwnerID, guild.Name, guild.CreatedAt,
	)
	return err
}

func (r *guildRepo) GetByID(ctx context.Context, id string) (*models.Guild, error) {
	g := &models.Guild{}
	err := r.pool.QueryRow(ctx,
		`SELECT guild_id, owner_id, name, created_at
		 FROM guilds WHERE guild_id = $1`, id,
	).Scan(&g.GuildID, &g.OwnerID, &g.Name, &g.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *guildRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM guilds WHERE guild_id = $1`, id)
	return err
}
