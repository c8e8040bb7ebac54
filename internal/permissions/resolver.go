package permissions

import "github.com/liventcord/LiventCord-sub002/internal/models"

// ComputeBasePermissions computes guild-level permissions for a member.
//  1. Start with the @everyone role permissions (if the guild has one).
//  2. OR all the member's assigned role permissions.
//  3. If the result includes ADMINISTRATOR, return PermAll.
func ComputeBasePermissions(everyoneRole *models.Role, memberRoles []models.Role) Permission {
	var perms Permission
	if everyoneRole != nil {
		perms = Permission(everyoneRole.Permissions)
	}

	for _, role := range memberRoles {
		perms = perms.Add(Permission(role.Permissions))
	}

	if perms.Has(PermAdministrator) {
		return PermAll
	}
	return perms
}

// CanDeleteMessage reports whether a member holding perms may delete a message.
// Authors delete their own messages while they can still send; anyone else
// needs MANAGE_MESSAGES.
func CanDeleteMessage(perms Permission, actorID, authorID string) bool {
	if perms.Has(PermManageMessages) {
		return true
	}
	return actorID == authorID && perms.Has(PermSendMessages)
}
