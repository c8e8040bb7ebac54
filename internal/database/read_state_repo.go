package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

const upsertReadStateSQL = `INSERT INTO user_channels (user_id, channel_id, last_read_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, channel_id)
		 DO UPDATE SET last_read_at = EXCLUDED.last_read_at`

type readStateRepo struct {
	pool *pgxpool.Pool
}

func NewReadStateRepository(pool *pgxpool.Pool) ReadStateRepository {
	return &readStateRepo{pool: pool}
}

func (r *readStateRepo) Get(ctx context.Context, userID, channelID string) (*models.ReadState, error) {
	s := &models.ReadState{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, channel_id, last_read_at
		 FROM user_channels
		 WHERE user_id = $1 AND channel_id = $2`,
		userID, channelID,
	).Scan(&s.UserID, &s.ChannelID, &s.LastRead)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	s.LastRead = s.LastRead.UTC()
	return s, err
}

func (r *readStateRepo) Upsert(ctx context.Context, userID, channelID string, lastRead time.Time) error {
	_, err := r.pool.Exec(ctx, upsertReadStateSQL, userID, channelID, lastRead.UTC())
	return err
}

func (r *readStateRepo) UpsertMany(ctx context.Context, userID string, states []models.ReadState) error {
	if len(states) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range states {
		batch.Queue(upsertReadStateSQL, userID, s.ChannelID, s.LastRead.UTC())
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *readStateRepo) LatestMessageDate(ctx context.Context, channelID string) (*time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(date) FROM messages WHERE channel_id = $1`, channelID,
	).Scan(&latest)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		t := latest.UTC()
		latest = &t
	}
	return latest, nil
}

func (r *readStateRepo) LatestMessageDatesByGuild(ctx context.Context, guildID string) ([]models.ReadState, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.channel_id, MAX(m.date)
		 FROM messages m
		 INNER JOIN channels c ON c.channel_id = m.channel_id
		 WHERE c.guild_id = $1
		 GROUP BY m.channel_id
		 ORDER BY m.channel_id`, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []models.ReadState
	for rows.Next() {
		var s models.ReadState
		if err := rows.Scan(&s.ChannelID, &s.LastRead); err != nil {
			return nil, err
		}
		s.LastRead = s.LastRead.UTC()
		states = append(states, s)
	}
	return states, rows.Err()
}

func (r *readStateRepo) CountUnread(ctx context.Context, userID, channelID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM messages m
		 LEFT JOIN user_channels uc ON uc.channel_id = m.channel_id AND uc.user_id = $1
		 WHERE m.channel_id = $2
		   AND m.user_id <> $1
		   AND (uc.last_read_at IS NULL OR m.date > uc.last_read_at)`,
		userID, channelID,
	).Scan(&n)
	return n, err
}

func (r *readStateRepo) GuildUnreadCounts(ctx context.Context, userID, guildID string) ([]models.UnreadCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.channel_id, COUNT(m.message_id)
		 FROM channels c
		 LEFT JOIN user_channels uc ON uc.channel_id = c.channel_id AND uc.user_id = $1
		 LEFT JOIN messages m ON m.channel_id = c.channel_id
		      AND m.user_id <> $1
		      AND (uc.last_read_at IS NULL OR m.date > uc.last_read_at)
		 WHERE c.guild_id = $2
		 GROUP BY c.channel_id
		 ORDER BY c.channel_id`,
		userID, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []models.UnreadCount{}
	for rows.Next() {
		var uc models.UnreadCount
		if err := rows.Scan(&uc.ChannelID, &uc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, uc)
	}
	return counts, rows.Err()
}
