package permissions

import (
	"testing"

	"github.com/liventcord/LiventCord-sub002/internal/models"
)

func TestComputeBasePermissions(t *testing.T) {
	everyone := &models.Role{Permissions: int64(PermViewChannel), IsDefault: true}

	tests := []struct {
		name     string
		everyone *models.Role
		roles    []models.Role
		want     Permission
	}{
		{"everyone only", everyone, nil, PermViewChannel},
		{"no default role", nil, []models.Role{{Permissions: int64(PermSendMessages)}}, PermSendMessages},
		{
			"combined roles",
			everyone,
			[]models.Role{{Permissions: int64(PermSendMessages)}, {Permissions: int64(PermManageMessages)}},
			PermViewChannel | PermSendMessages | PermManageMessages,
		},
		{"administrator", everyone, []models.Role{{Permissions: int64(PermAdministrator)}}, PermAll},
		{"nothing", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeBasePermissions(tt.everyone, tt.roles); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanDeleteMessage(t *testing.T) {
	const author = "100000000000000001"
	const other = "100000000000000002"

	tests := []struct {
		name  string
		perms Permission
		actor string
		want  bool
	}{
		{"author with send", PermSendMessages, author, true},
		{"author without send", PermViewChannel, author, false},
		{"other with manage", PermManageMessages, other, true},
		{"other with send only", PermSendMessages, other, false},
		{"admin", PermAll, other, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanDeleteMessage(tt.perms, tt.actor, author); got != tt.want {
				t.Errorf("CanDeleteMessage = %v, want %v", got, tt.want)
			}
		})
	}
}
