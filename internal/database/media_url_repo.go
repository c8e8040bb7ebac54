package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type mediaURLRepo struct {
	pool *pgxpool.Pool
}

func NewMediaURLRepository(pool *pgxpool.Pool) MediaURLRepository {
	return &mediaURLRepo{pool: pool}
}

func (r *mediaURLRepo) Upsert(ctx context.Context, m *models.MediaURL) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO media_urls (url, is_image, is_video, file_name, file_size, width, height)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (url) DO UPDATE
		 SET is_image = EXCLUDED.is_image, is_video = EXCLUDED.is_video,
		     file_name = EXCLUDED.file_name, file_size = EXCLUDED.file_size,
		     width = COALESCE(EXCLUDED.width, media_urls.width),
		     height = COALESCE(EXCLUDED.height, media_urls.height)`,
		m.URL, m.IsImage, m.IsVideo, m.FileName, m.FileSize, m.Width, m.Height,
	)
	return err
}

func (r *mediaURLRepo) GetByURL(ctx context.Context, url string) (*models.MediaURL, error) {
	m := &models.MediaURL{}
	err := r.pool.QueryRow(ctx,
		`SELECT url, is_image, is_video, file_name, file_size, width, height
		 FROM media_urls WHERE url = $1`, url,
	).Scan(&m.URL, &m.IsImage, &m.IsVideo, &m.FileName, &m.FileSize, &m.Width, &m.Height)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}
