package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/liventcord/LiventCord-sub002/internal/models"
)

type roleRepo struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepo{pool: pool}
}

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO roles (role_id, guild_id, name, permissions, is_default)
		 VALUES ($1, $2, $3, $4, $5)`,
		role.RoleID, role.GuildID, role.Name, role.Permissions, role.IsDefault,
	)
	return err
}

func (r *roleRepo) GetDefault(ctx context.Context, guildID string) (*models.Role, error) {
	role := &models.Role{}
	err := r.pool.QueryRow(ctx,
		`SELECT role_id, guild_id, name, permissions, is_default
		 FROM roles WHERE guild_id = $1 AND is_default`, guildID,
	).Scan(&role.RoleID, &role.GuildID, &role.Name, &role.Permissions, &role.IsDefault)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return role, err
}

func (r *roleRepo) GetByMember(ctx context.Context, guildID, userID string) ([]models.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT r.role_id, r.guild_id, r.name, r.permissions, r.is_default
		 FROM roles r
		 INNER JOIN member_roles mr ON mr.role_id = r.role_id
		 WHERE mr.guild_id = $1 AND mr.user_id = $2`,
		guildID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role.RoleID, &role.GuildID, &role.Name, &role.Permissions, &role.IsDefault); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
