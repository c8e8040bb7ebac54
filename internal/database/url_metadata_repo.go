package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type urlMetadataRepo struct {
	pool *pgxpool.Pool
}

func NewURLMetadataRepository(pool *pgxpool.Pool) URLMetadataRepository {
	return &urlMetadataRepo{pool: pool}
}

func (r *urlMetadataRepo) Exists(ctx context.Context, domain, routePath string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM url_metadata WHERE domain = $1 AND route_path = $2)`,
		domain, routePath,
	).Scan(&ok)
	return ok, err
}

func (r *urlMetadataRepo) CountDomainSince(ctx context.Context, domain string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM url_metadata WHERE domain = $1 AND created_at >= $2`,
		domain, since.UTC(),
	).Scan(&n)
	return n, err
}

func (r *urlMetadataRepo) Create(ctx context.Context, m *models.URLMetadata) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO url_metadata (domain, route_path, title, description, site_name, image,
		                           url, type, keywords, author, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		 RETURNING id, created_at`,
		m.Domain, m.RoutePath, m.Title, m.Description, m.SiteName, m.Image,
		m.URL, m.Type, m.Keywords, m.Author,
	).Scan(&m.ID, &m.CreatedAt)
}
