package service

import (
	"context"

	"github.com/liventcord/LiventCord-sub002/internal/database"
	"github.com/liventcord/LiventCord-sub002/internal/permissions"
)

// PermissionChecker answers guild membership and permission questions for the
// message pipeline. Guild owners hold every permission.
type PermissionChecker struct {
	guilds  database.GuildRepository
	members database.MemberRepository
	roles   database.RoleRepository
	friends database.FriendRepository
}

// NewPermissionChecker creates a PermissionChecker.
func NewPermissionChecker(
	guilds database.GuildRepository,
	members database.MemberRepository,
	roles database.RoleRepository,
	friends database.FriendRepository,
) *PermissionChecker {
	return &PermissionChecker{
		guilds:  guilds,
		members: members,
		roles:   roles,
		friends: friends,
	}
}

// GuildPermissions resolves the user's permissions in a guild. A missing guild
// and a non-member both come back as 404 so guild existence is not leaked.
func (p *PermissionChecker) GuildPermissions(ctx context.Context, guildID, userID string) (permissions.Permission, error) {
	guild, err := p.guilds.GetByID(ctx, guildID)
	if err != nil {
		return 0, internalError("loading guild", err, "guildID", guildID)
	}
	if guild == nil {
		return 0, NotFound("UNKNOWN_GUILD", "guild not found")
	}
	if guild.OwnerID == userID {
		return permissions.PermAll, nil
	}

	isMember, err := p.members.IsMember(ctx, guildID, userID)
	if err != nil {
		return 0, internalError("checking membership", err, "guildID", guildID)
	}
	if !isMember {
		return 0, NotFound("UNKNOWN_GUILD", "guild not found")
	}

	everyone, err := p.roles.GetDefault(ctx, guildID)
	if err != nil {
		return 0, internalError("loading default role", err, "guildID", guildID)
	}
	memberRoles, err := p.roles.GetByMember(ctx, guildID, userID)
	if err != nil {
		return 0, internalError("loading member roles", err, "guildID", guildID)
	}
	return permissions.ComputeBasePermissions(everyone, memberRoles), nil
}

// RequireMember fails with 404 unless the user belongs to the guild.
func (p *PermissionChecker) RequireMember(ctx context.Context, guildID, userID string) error {
	_, err := p.GuildPermissions(ctx, guildID, userID)
	return err
}

// RequireGuildPermission fails with 404 for non-members and 403 when the
// member lacks perm.
func (p *PermissionChecker) RequireGuildPermission(ctx context.Context, guildID, userID string, perm permissions.Permission) (permissions.Permission, error) {
	perms, err := p.GuildPermissions(ctx, guildID, userID)
	if err != nil {
		return 0, err
	}
	if !perms.Has(perm) {
		return perms, Forbidden("MISSING_PERMISSIONS", "you do not have permission to perform this action")
	}
	return perms, nil
}

// CanDM reports whether two users may message each other: they are friends or
// share a guild.
func (p *PermissionChecker) CanDM(ctx context.Context, userID, peerID string) (bool, error) {
	friends, err := p.friends.AreFriends(ctx, userID, peerID)
	if err != nil {
		return false, internalError("checking friendship", err, "userID", userID)
	}
	if friends {
		return true, nil
	}
	shared, err := p.members.SharesGuild(ctx, userID, peerID)
	if err != nil {
		return false, internalError("checking shared guilds", err, "userID", userID)
	}
	return shared, nil
}

// RequireDM fails with 403 unless the two users may message each other.
func (p *PermissionChecker) RequireDM(ctx context.Context, userID, peerID string) error {
	if userID == peerID {
		return BadRequest("INVALID_RECIPIENT", "cannot message yourself")
	}
	ok, err := p.CanDM(ctx, userID, peerID)
	if err != nil {
		return err
	}
	if !ok {
		return Forbidden("DM_NOT_ALLOWED", "you can only message friends or users who share a guild")
	}
	return nil
}
