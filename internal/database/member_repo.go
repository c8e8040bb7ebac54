package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type memberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepo{pool: pool}
}

func (r *memberRepo) Create(ctx context.Context, member *models.Member) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO guild_members (guild_id, user_id, joined_at)
		 VALUES ($1, $2, $3)`,
		member.GuildID, member.UserID, member.JoinedAt,
	)
	return err
}

func (r *memberRepo) IsMember(ctx context.Context, guildID, userID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM guild_members WHERE guild_id = $1 AND user_id = $2)`,
		guildID, userID,
	).Scan(&ok)
	return ok, err
}

func (r *memberRepo) GetUserIDs(ctx context.Context, guildID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM guild_members WHERE guild_id = $1`, guildID,
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

func (r *memberRepo) GetGuildIDsByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT guild_id FROM guild_members WHERE user_id = $1 ORDER BY guild_id`, userID,
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

func (r *memberRepo) SharesGuild(ctx context.Context, userA, userB string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM guild_members a
		     INNER JOIN guild_members b ON b.guild_id = a.guild_id
		     WHERE a.user_id = $1 AND b.user_id = $2
		 )`, userA, userB,
	).Scan(&ok)
	return ok, err
}

func (r *memberRepo) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO member_roles (guild_id, user_id, role_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		guildID, userID, roleID,
	)
	return err
}
