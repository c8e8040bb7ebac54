package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type pinRepo struct {
	pool *pgxpool.Pool
}

func NewPinRepository(pool *pgxpool.Pool) PinRepository {
	return &pinRepo{pool: pool}
}

func (r *pinRepo) IsPinned(ctx context.Context, channelID, messageID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM channel_pinned_messages WHERE channel_id = $1 AND message_id = $2
		 )`, channelID, messageID,
	).Scan(&ok)
	return ok, err
}

func (r *pinRepo) PinWithNotification(ctx context.Context, pin *models.ChannelPinnedMessage, notification *models.Message) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO channel_pinned_messages (channel_id, message_id, pinned_by_user_id, pinned_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (channel_id, message_id) DO NOTHING`,
		pin.ChannelID, pin.MessageID, pin.PinnedByUserID, pin.PinnedAt.UTC(),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := insertMessage(ctx, tx, notification); err != nil {
		return false, err
	}
	if err := bumpVersion(ctx, tx, pin.ChannelID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (r *pinRepo) Unpin(ctx context.Context, channelID, messageID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM channel_pinned_messages WHERE channel_id = $1 AND message_id = $2`,
		channelID, messageID,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := bumpVersion(ctx, tx, channelID); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
