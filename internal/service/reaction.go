package service

import (
	"context"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
)

// ReactionService handles adding and removing reactions on messages.
type ReactionService struct {
	messages  database.MessageRepository
	reactions database.ReactionRepository
	gateway   gateway.Dispatcher
	perms     *PermissionChecker
}

// NewReactionService creates a ReactionService.
func NewReactionService(
	messages database.MessageRepository,
	reactions database.ReactionRepository,
	gw gateway.Dispatcher,
	perms *PermissionChecker,
) *ReactionService {
	return &ReactionService{
		messages:  messages,
		reactions: reactions,
		gateway:   gw,
		perms:     perms,
	}
}

// AddReaction records the caller's reaction on a message.
func (s *ReactionService) AddReaction(ctx context.Context, messageID, userID int64, reactID int) error {
	msg, err := s.check(ctx, messageID, userID, reactID)
	if err != nil {
		return err
	}

	added, err := s.reactions.Add(ctx, messageID, reactID, userID)
	if err != nil {
		return internalError("reactions.Add", err)
	}
	if !added {
		return BadRequest("ALREADY_REACTED", "you already reacted with this react")
	}

	s.gateway.DispatchToChannel(msg.ChannelID, gateway.EventMessageReactionAdd, gateway.ReactionData{
		MessageID: messageID,
		ChannelID: msg.ChannelID,
		UserID:    userID,
		ReactID:   reactID,
	})
	return nil
}

// RemoveReaction withdraws the caller's reaction from a message.
func (s *ReactionService) RemoveReaction(ctx context.Context, messageID, userID int64, reactID int) error {
	msg, err := s.check(ctx, messageID, userID, reactID)
	if err != nil {
		return err
	}

	removed, err := s.reactions.Remove(ctx, messageID, reactID, userID)
	if err != nil {
		return internalError("reactions.Remove", err)
	}
	if !removed {
		return BadRequest("NOT_REACTED", "you have not reacted with this react")
	}

	s.gateway.DispatchToChannel(msg.ChannelID, gateway.EventMessageReactionRemove, gateway.ReactionData{
		MessageID: messageID,
		ChannelID: msg.ChannelID,
		UserID:    userID,
		ReactID:   reactID,
	})
	return nil
}

func (s *ReactionService) check(ctx context.Context, messageID, userID int64, reactID int) (*models.Message, error) {
	msg, err := getMessage(ctx, s.messages, messageID)
	if err != nil {
		return nil, err
	}
	if !models.ValidReactID(reactID) {
		return nil, BadRequest("INVALID_REACT", "unknown react id")
	}
	if _, err := s.perms.RequireChannelPermission(ctx, msg.ChannelID, userID, permissions.PermAddReactions); err != nil {
		return nil, err
	}
	return msg, nil
}
