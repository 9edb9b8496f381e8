package service

import (
	"context"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
)

// Access is a caller's resolved standing in one channel.
type Access struct {
	Channel *models.Channel
	User    *models.User
	Subject permissions.Subject
	Perms   permissions.Permission
}

// Require returns a Forbidden error unless the caller holds perm.
func (a *Access) Require(perm permissions.Permission) error {
	if a.Perms.Has(perm) {
		return nil
	}
	if !a.Subject.Member && !permissions.PermGlobalOwner.Has(perm) {
		return notAMember()
	}
	return missingPermissions("you do not have permission to perform this action")
}

// PermissionChecker resolves callers against channels.
type PermissionChecker struct {
	users    database.UserRepository
	channels database.ChannelRepository
	members  database.MemberRepository
}

// NewPermissionChecker creates a PermissionChecker.
func NewPermissionChecker(
	users database.UserRepository,
	channels database.ChannelRepository,
	members database.MemberRepository,
) *PermissionChecker {
	return &PermissionChecker{users: users, channels: channels, members: members}
}

// RequireUser loads a user or returns a NotFound error.
func (p *PermissionChecker) RequireUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return nil, internalError("users.GetByID", err)
	}
	if user == nil {
		return nil, unknownUser()
	}
	return user, nil
}

// Resolve loads the channel and the caller's standing in it. A missing
// channel is NotFound; a caller who is not a member still resolves.
func (p *PermissionChecker) Resolve(ctx context.Context, channelID, userID int64) (*Access, error) {
	channel, err := p.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, internalError("channels.GetByID", err)
	}
	if channel == nil {
		return nil, NotFound("UNKNOWN_CHANNEL", "channel not found")
	}

	user, err := p.RequireUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	member, err := p.members.Get(ctx, channelID, userID)
	if err != nil {
		return nil, internalError("members.Get", err)
	}

	subject := permissions.Subject{
		UserID:       userID,
		GlobalOwner:  user.IsGlobalOwner,
		Member:       member != nil,
		ChannelOwner: member != nil && member.IsOwner,
	}
	return &Access{
		Channel: channel,
		User:    user,
		Subject: subject,
		Perms:   permissions.Compute(subject),
	}, nil
}

// RequireChannelPermission resolves the caller and checks perm in one step.
func (p *PermissionChecker) RequireChannelPermission(ctx context.Context, channelID, userID int64, perm permissions.Permission) (*Access, error) {
	access, err := p.Resolve(ctx, channelID, userID)
	if err != nil {
		return nil, err
	}
	if err := access.Require(perm); err != nil {
		return nil, err
	}
	return access, nil
}
