package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type attachmentRepo struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepo{pool: pool}
}

func (r *attachmentRepo) GetByMessageID(ctx context.Context, messageID string) ([]models.Attachment, error) {
	byMessage, err := loadAttachments(ctx, r.pool, []string{messageID})
	if err != nil {
		return nil, err
	}
	return byMessage[messageID], nil
}

func (r *attachmentRepo) ListMedia(ctx context.Context, guildID, channelID string, limit, offset int) ([]models.AttachmentListing, int, error) {
	const filter = ` FROM attachments a
		 INNER JOIN messages m ON m.message_id = a.message_id
		 INNER JOIN channels c ON c.channel_id = m.channel_id
		 WHERE c.guild_id = $1 AND m.channel_id = $2
		   AND (a.is_image_file OR a.is_video_file)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+filter, guildID, channelID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.file_id, a.message_id, a.file_name, a.file_size, a.is_image_file,
		        a.is_video_file, a.is_spoiler, a.is_proxy_file, a.proxy_url,
		        m.user_id, m.content, m.date`+filter+`
		 ORDER BY m.date DESC, a.file_id
		 LIMIT $3 OFFSET $4`,
		guildID, channelID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	listings := []models.AttachmentListing{}
	for rows.Next() {
		var l models.AttachmentListing
		a := &l.Attachment
		if err := rows.Scan(&a.FileID, &a.MessageID, &a.FileName, &a.FileSize, &a.IsImageFile,
			&a.IsVideoFile, &a.IsSpoiler, &a.IsProxyFile, &a.ProxyURL,
			&l.UserID, &l.Content, &l.Date); err != nil {
			return nil, 0, err
		}
		l.Date = l.Date.UTC()
		listings = append(listings, l)
	}
	return listings, total, rows.Err()
}

func (r *attachmentRepo) AddProxied(ctx context.Context, channelID string, a *models.Attachment) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO attachments (file_id, message_id, file_name, file_size, is_image_file,
		                          is_video_file, is_spoiler, is_proxy_file, proxy_url)
		 SELECT $1, $2, $3, $4, $5, $6, FALSE, TRUE, $7
		 WHERE NOT EXISTS (
		     SELECT 1 FROM attachments WHERE message_id = $2 AND proxy_url = $7
		 )`,
		a.FileID, a.MessageID, a.FileName, a.FileSize, a.IsImageFile, a.IsVideoFile, a.ProxyURL,
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
	a.IsProxyFile = true
	return true, tx.Commit(ctx)
}
