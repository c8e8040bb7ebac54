package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type channelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepository(pool *pgxpool.Pool) ChannelRepository {
	return &channelRepo{pool: pool}
}

func (r *channelRepo) Create(ctx context.Context, ch *models.Channel) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO channels (channel_id, guild_id, name, is_dm, version)
		 VALUES ($1, $2, $3, $4, $5)`,
		ch.ChannelID, ch.GuildID, ch.Name, ch.IsDM, ch.Version,
	)
	return err
}

func (r *channelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	ch := &models.Channel{}
	err := r.pool.QueryRow(ctx,
		`SELECT channel_id, guild_id, name, is_dm, version
		 FROM channels WHERE channel_id = $1`, id,
	).Scan(&ch.ChannelID, &ch.GuildID, &ch.Name, &ch.IsDM, &ch.Version)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return ch, err
}

func (r *channelRepo) EnsureDM(ctx context.Context, id string) (*models.Channel, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO channels (channel_id, guild_id, name, is_dm, version)
		 VALUES ($1, NULL, '', TRUE, 0)
		 ON CONFLICT (channel_id) DO NOTHING`, id,
	)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *channelRepo) GetIDsByGuild(ctx context.Context, guildID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT channel_id FROM channels WHERE guild_id = $1 ORDER BY channel_id`, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *channelRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE channel_id = $1`, id)
	return err
}
