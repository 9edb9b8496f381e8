package permissions

import "strings"

// Permission is a bitfield of actions a user may take on a channel.
type Permission int64

const (
	PermViewChannel    Permission = 1 << 0 // details, history, standup status
	PermSendMessages   Permission = 1 << 1 // send, send later, standups
	PermInviteMembers  Permission = 1 << 2
	PermAddReactions   Permission = 1 << 3
	PermPinMessages    Permission = 1 << 4
	PermManageMessages Permission = 1 << 5 // edit or remove anyone's messages
	PermManageOwners   Permission = 1 << 6
	PermJoinPrivate    Permission = 1 << 7
	PermManageUsers    Permission = 1 << 8 // change global permission tiers

	// Tier sets.
	PermMember       = PermViewChannel | PermSendMessages | PermInviteMembers | PermAddReactions
	PermChannelOwner = PermPinMessages | PermManageMessages | PermManageOwners
	PermGlobalOwner  = PermManageMessages | PermManageOwners | PermJoinPrivate | PermManageUsers
	PermAll          = PermMember | PermChannelOwner | PermGlobalOwner
)

// Has returns true if p contains all bits in perm.
func (p Permission) Has(perm Permission) bool { return p&perm == perm }

// Add returns p with the bits from perm set.
func (p Permission) Add(perm Permission) Permission { return p | perm }

// Remove returns p with the bits from perm cleared.
func (p Permission) Remove(perm Permission) Permission { return p &^ perm }

// permNames lists individual bits in declaration order.
var permNames = []struct {
	bit  Permission
	name string
}{
	{PermViewChannel, "VIEW_CHANNEL"},
	{PermSendMessages, "SEND_MESSAGES"},
	{PermInviteMembers, "INVITE_MEMBERS"},
	{PermAddReactions, "ADD_REACTIONS"},
	{PermPinMessages, "PIN_MESSAGES"},
	{PermManageMessages, "MANAGE_MESSAGES"},
	{PermManageOwners, "MANAGE_OWNERS"},
	{PermJoinPrivate, "JOIN_PRIVATE"},
	{PermManageUsers, "MANAGE_USERS"},
}

// String lists the set permission names separated by " | ".
func (p Permission) String() string {
	if p == 0 {
		return "NONE"
	}

	var names []string
	for _, pn := range permNames {
		if p.Has(pn.bit) {
			names = append(names, pn.name)
		}
	}

	if len(names) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(names, " | ")
}
