package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
	"github.com/Ry1and/flockr/internal/snowflake"
)

// ChannelService handles channel lifecycle and membership.
type ChannelService struct {
	channels  database.ChannelRepository
	members   database.MemberRepository
	snowflake *snowflake.Generator
	gateway   gateway.Dispatcher
	perms     *PermissionChecker
	standups  *StandupService
}

// NewChannelService creates a ChannelService.
func NewChannelService(
	channels database.ChannelRepository,
	members database.MemberRepository,
	sf *snowflake.Generator,
	gw gateway.Dispatcher,
	perms *PermissionChecker,
	standups *StandupService,
) *ChannelService {
	return &ChannelService{
		channels:  channels,
		members:   members,
		snowflake: sf,
		gateway:   gw,
		perms:     perms,
		standups:  standups,
	}
}

// CreateChannel creates a channel with the caller as its only member and owner.
func (s *ChannelService) CreateChannel(ctx context.Context, userID int64, name string, isPublic bool) (*models.Channel, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < 1 || n > maxChannelName {
		return nil, BadRequest("INVALID_NAME", "channel name must be 1-20 characters")
	}

	channel := &models.Channel{
		ID:        s.snowflake.Generate().Int64(),
		Name:      name,
		IsPublic:  isPublic,
		CreatedAt: time.Now(),
	}
	if err := s.channels.Create(ctx, channel, userID); err != nil {
		return nil, internalError("channels.Create", err)
	}

	s.gateway.SubscribeToChannel(userID, channel.ID)
	s.gateway.DispatchToUser(userID, gateway.EventChannelCreate, channel)
	return channel, nil
}

// ListAll returns every channel, public and private.
func (s *ChannelService) ListAll(ctx context.Context) ([]models.Channel, error) {
	channels, err := s.channels.List(ctx)
	if err != nil {
		return nil, internalError("channels.List", err)
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	return channels, nil
}

// ListMine returns the channels the caller belongs to.
func (s *ChannelService) ListMine(ctx context.Context, userID int64) ([]models.Channel, error) {
	channels, err := s.channels.ListByMember(ctx, userID)
	if err != nil {
		return nil, internalError("channels.ListByMember", err)
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	return channels, nil
}

// GetDetails returns a channel with its owners and members in join order.
func (s *ChannelService) GetDetails(ctx context.Context, channelID, userID int64) (*models.ChannelDetails, error) {
	access, err := s.perms.RequireChannelPermission(ctx, channelID, userID, permissions.PermViewChannel)
	if err != nil {
		return nil, err
	}

	members, err := s.members.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, internalError("members.ListByChannel", err)
	}

	details := &models.ChannelDetails{
		Channel:      *access.Channel,
		OwnerMembers: []models.UserSummary{},
		AllMembers:   make([]models.UserSummary, 0, len(members)),
	}
	for _, m := range members {
		details.AllMembers = append(details.AllMembers, m.Summary())
		if m.IsOwner {
			details.OwnerMembers = append(details.OwnerMembers, m.Summary())
		}
	}
	return details, nil
}

// Join adds the caller to a channel. Joining twice is a no-op.
func (s *ChannelService) Join(ctx context.Context, channelID, userID int64) error {
	access, err := s.perms.Resolve(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if access.Subject.Member {
		return nil
	}
	if !permissions.CanJoin(access.Subject, access.Channel.IsPublic) {
		return Forbidden("PRIVATE_CHANNEL", "this channel is private")
	}

	return s.admit(ctx, access.Channel, userID, permissions.JoinsAsOwner(access.Subject.GlobalOwner))
}

// Invite adds another user to a channel the caller belongs to.
func (s *ChannelService) Invite(ctx context.Context, channelID, userID, inviteeID int64) error {
	access, err := s.perms.Resolve(ctx, channelID, userID)
	if err != nil {
		return err
	}
	invitee, err := s.perms.RequireUser(ctx, inviteeID)
	if err != nil {
		return err
	}
	if err := access.Require(permissions.PermInviteMembers); err != nil {
		return err
	}

	existing, err := s.members.Get(ctx, channelID, inviteeID)
	if err != nil {
		return internalError("members.Get", err)
	}
	if existing != nil {
		return nil
	}

	return s.admit(ctx, access.Channel, inviteeID, permissions.JoinsAsOwner(invitee.IsGlobalOwner))
}

func (s *ChannelService) admit(ctx context.Context, channel *models.Channel, userID int64, asOwner bool) error {
	added, err := s.members.Add(ctx, channel.ID, userID, asOwner)
	if err != nil {
		return internalError("members.Add", err)
	}
	if !added {
		return nil
	}

	s.gateway.DispatchToChannel(channel.ID, gateway.EventChannelMemberAdd, gateway.ChannelMemberData{
		ChannelID: channel.ID,
		UserID:    userID,
	})
	s.gateway.SubscribeToChannel(userID, channel.ID)
	s.gateway.DispatchToUser(userID, gateway.EventChannelCreate, channel)
	return nil
}

// Leave removes the caller from a channel. The last member leaving deletes
// the channel; the last owner leaving promotes the longest-standing member.
func (s *ChannelService) Leave(ctx context.Context, channelID, userID int64) error {
	access, err := s.perms.Resolve(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if !access.Subject.Member {
		return notAMember()
	}

	outcome, err := s.members.Leave(ctx, channelID, userID)
	if err != nil {
		return internalError("members.Leave", err)
	}
	if outcome == nil {
		return notAMember()
	}

	s.gateway.UnsubscribeFromChannel(userID, channelID)
	s.gateway.DispatchToUser(userID, gateway.EventChannelDelete, gateway.ChannelDeleteData{ID: channelID})

	if outcome.ChannelDeleted {
		s.standups.CancelChannel(channelID)
		s.gateway.DropChannel(channelID)
		return nil
	}

	s.gateway.DispatchToChannel(channelID, gateway.EventChannelMemberRemove, gateway.ChannelMemberData{
		ChannelID: channelID,
		UserID:    userID,
	})
	if outcome.PromotedUserID != nil {
		s.gateway.DispatchToChannel(channelID, gateway.EventChannelOwnerUpdate, gateway.ChannelOwnerData{
			ChannelID: channelID,
			UserID:    *outcome.PromotedUserID,
			IsOwner:   true,
		})
	}
	return nil
}

// AddOwner makes targetID an owner of the channel, adding them as a member
// first if needed.
func (s *ChannelService) AddOwner(ctx context.Context, channelID, userID, targetID int64) error {
	access, err := s.perms.Resolve(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if _, err := s.perms.RequireUser(ctx, targetID); err != nil {
		return err
	}

	target, err := s.members.Get(ctx, channelID, targetID)
	if err != nil {
		return internalError("members.Get", err)
	}
	if target != nil && target.IsOwner {
		return BadRequest("ALREADY_OWNER", "user is already an owner of this channel")
	}
	if err := access.Require(permissions.PermManageOwners); err != nil {
		return err
	}

	if target == nil {
		if err := s.admit(ctx, access.Channel, targetID, true); err != nil {
			return err
		}
	} else if err := s.members.SetOwner(ctx, channelID, targetID, true); err != nil {
		return internalError("members.SetOwner", err)
	}

	s.gateway.DispatchToChannel(channelID, gateway.EventChannelOwnerUpdate, gateway.ChannelOwnerData{
		ChannelID: channelID,
		UserID:    targetID,
		IsOwner:   true,
	})
	return nil
}

// RemoveOwner revokes targetID's ownership. Owners cannot demote themselves.
func (s *ChannelService) RemoveOwner(ctx context.Context, channelID, userID, targetID int64) error {
	access, err := s.perms.Resolve(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if _, err := s.perms.RequireUser(ctx, targetID); err != nil {
		return err
	}

	target, err := s.members.Get(ctx, channelID, targetID)
	if err != nil {
		return internalError("members.Get", err)
	}
	if target == nil || !target.IsOwner {
		return BadRequest("NOT_AN_OWNER", "user is not an owner of this channel")
	}
	if err := access.Require(permissions.PermManageOwners); err != nil {
		return err
	}
	if userID == targetID {
		return BadRequest("CANNOT_REMOVE_SELF", "you cannot remove your own ownership")
	}

	if err := s.members.SetOwner(ctx, channelID, targetID, false); err != nil {
		return internalError("members.SetOwner", err)
	}

	s.gateway.DispatchToChannel(channelID, gateway.EventChannelOwnerUpdate, gateway.ChannelOwnerData{
		ChannelID: channelID,
		UserID:    targetID,
		IsOwner:   false,
	})
	return nil
}
