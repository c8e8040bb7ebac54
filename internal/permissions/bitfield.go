package permissions

import (
	"sort"
	"strings"
)

// Permission is a bitfield representing a set of guild permissions.
type Permission int64

const (
	PermViewChannel        Permission = 1 << 0
	PermSendMessages       Permission = 1 << 1
	PermManageMessages     Permission = 1 << 2
	PermAttachFiles        Permission = 1 << 3
	PermReadMessageHistory Permission = 1 << 4
	PermMentionEveryone    Permission = 1 << 5
	PermManageChannels     Permission = 1 << 6
	PermAdministrator      Permission = 1 << 31 // bypasses all checks

	PermAll = Permission(0x7FFFFFFFFFFFFFFF)
)

// PermReadMessages is what a member needs to page through channel history.
const PermReadMessages = PermViewChannel | PermReadMessageHistory

// Has returns true if p contains all bits in perm.
func (p Permission) Has(perm Permission) bool { return p&perm == perm }

// Add returns p with the bits from perm set.
func (p Permission) Add(perm Permission) Permission { return p | perm }

// Remove returns p with the bits from perm cleared.
func (p Permission) Remove(perm Permission) Permission { return p &^ perm }

// DefaultEveryonePerms is the default permission set for the @everyone role.
var DefaultEveryonePerms = PermViewChannel | PermSendMessages | PermAttachFiles | PermReadMessageHistory

var permNames = map[Permission]string{
	PermViewChannel:        "VIEW_CHANNEL",
	PermSendMessages:       "SEND_MESSAGES",
	PermManageMessages:     "MANAGE_MESSAGES",
	PermAttachFiles:        "ATTACH_FILES",
	PermReadMessageHistory: "READ_MESSAGE_HISTORY",
	PermMentionEveryone:    "MENTION_EVERYONE",
	PermManageChannels:     "MANAGE_CHANNELS",
	PermAdministrator:      "ADMINISTRATOR",
}

// String lists the set permission names in sorted order, separated by " | ".
func (p Permission) String() string {
	if p == 0 {
		return "NONE"
	}

	var names []string
	for bit, name := range permNames {
		if p.Has(bit) {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return "UNKNOWN"
	}
	sort.Strings(names)
	return strings.Join(names, " | ")
}
