package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type messageURLRepo struct {
	pool *pgxpool.Pool
}

func NewMessageURLRepository(pool *pgxpool.Pool) MessageURLRepository {
	return &messageURLRepo{pool: pool}
}

func (r *messageURLRepo) Merge(ctx context.Context, rec *models.MessageURL) ([]string, error) {
	var urls []string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO message_urls (message_id, channel_id, guild_id, user_id, urls, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (message_id) DO UPDATE
		 SET urls = message_urls.urls || ARRAY(
		     SELECT t.u FROM unnest(EXCLUDED.urls) WITH ORDINALITY AS t(u, ord)
		     WHERE NOT (t.u = ANY(message_urls.urls))
		     ORDER BY t.ord
		 )
		 RETURNING urls`,
		rec.MessageID, rec.ChannelID, rec.GuildID, rec.UserID, rec.URLs,
	).Scan(&urls)
	if err != nil {
		return nil, err
	}
	rec.URLs = urls
	return urls, nil
}

func (r *messageURLRepo) GetByMessageID(ctx context.Context, messageID string) (*models.MessageURL, error) {
	m := &models.MessageURL{}
	err := r.pool.QueryRow(ctx,
		`SELECT message_id, channel_id, guild_id, user_id, urls, created_at
		 FROM message_urls WHERE message_id = $1`, messageID,
	).Scan(&m.MessageID, &m.ChannelID, &m.GuildID, &m.UserID, &m.URLs, &m.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *messageURLRepo) ListReferencing(ctx context.Context, url string) ([]models.MessageURL, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT message_id, channel_id, guild_id, user_id, urls, created_at
		 FROM message_urls WHERE $1 = ANY(urls)
		 ORDER BY created_at`, url,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.MessageURL
	for rows.Next() {
		var m models.MessageURL
		if err := rows.Scan(&m.MessageID, &m.ChannelID, &m.GuildID, &m.UserID, &m.URLs, &m.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, m)
	}
	return recs, rows.Err()
}
