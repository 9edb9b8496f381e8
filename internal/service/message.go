package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
	"github.com/Ry1and/flockr/internal/snowflake"
)

// MessageQueue holds messages until their delivery time.
type MessageQueue interface {
	ScheduleMessage(ctx context.Context, msg *models.Message) error
}

// MessageService handles message business logic.
type MessageService struct {
	messages  database.MessageRepository
	reactions database.ReactionRepository
	channels  database.ChannelRepository
	snowflake *snowflake.Generator
	gateway   gateway.Dispatcher
	perms     *PermissionChecker
	queue     MessageQueue
	now       func() time.Time
}

// NewMessageService creates a MessageService.
func NewMessageService(
	messages database.MessageRepository,
	reactions database.ReactionRepository,
	channels database.ChannelRepository,
	sf *snowflake.Generator,
	gw gateway.Dispatcher,
	perms *PermissionChecker,
	queue MessageQueue,
) *MessageService {
	return &MessageService{
		messages:  messages,
		reactions: reactions,
		channels:  channels,
		snowflake: sf,
		gateway:   gw,
		perms:     perms,
		queue:     queue,
		now:       time.Now,
	}
}

// GetWindow returns up to fifty messages starting start places back from
// the newest.
func (s *MessageService) GetWindow(ctx context.Context, channelID, userID int64, start int) (*models.MessageWindow, error) {
	if _, err := s.perms.RequireChannelPermission(ctx, channelID, userID, permissions.PermViewChannel); err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, BadRequest("INVALID_START", "start must not be negative")
	}

	total, err := s.messages.CountByChannel(ctx, channelID)
	if err != nil {
		return nil, internalError("messages.CountByChannel", err)
	}
	if start > total {
		return nil, BadRequest("INVALID_START", "start is beyond the oldest message")
	}

	messages, err := s.messages.ListByChannel(ctx, channelID, start, models.MessageWindowSize)
	if err != nil {
		return nil, internalError("messages.ListByChannel", err)
	}
	if messages == nil {
		messages = []models.Message{}
	}
	if err := attachReacts(ctx, s.reactions, messages, userID); err != nil {
		return nil, internalError("attachReacts", err)
	}

	end := start + models.MessageWindowSize
	if end >= total {
		end = -1
	}
	return &models.MessageWindow{Messages: messages, Start: start, End: end}, nil
}

// SendMessage posts a message to a channel.
func (s *MessageService) SendMessage(ctx context.Context, channelID, userID int64, content string) (*models.Message, error) {
	if _, err := s.perms.RequireChannelPermission(ctx, channelID, userID, permissions.PermSendMessages); err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        s.snowflake.Generate().Int64(),
		ChannelID: channelID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := postMessage(ctx, s.messages, s.gateway, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// SendLater queues a message for delivery at sendAt. The id is allocated now.
func (s *MessageService) SendLater(ctx context.Context, channelID, userID int64, content string, sendAt time.Time) (int64, error) {
	if _, err := s.perms.RequireChannelPermission(ctx, channelID, userID, permissions.PermSendMessages); err != nil {
		return 0, err
	}
	if err := validateContent(content); err != nil {
		return 0, err
	}
	if sendAt.Before(s.now()) {
		return 0, BadRequest("INVALID_TIME", "time_sent is in the past")
	}

	msg := &models.Message{
		ID:        s.snowflake.Generate().Int64(),
		ChannelID: channelID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: sendAt,
	}
	if err := s.queue.ScheduleMessage(ctx, msg); err != nil {
		return 0, internalError("queue.ScheduleMessage", err)
	}
	return msg.ID, nil
}

// DeliverScheduled posts a queued message. Messages whose channel has since
// been deleted are dropped.
func (s *MessageService) DeliverScheduled(ctx context.Context, msg *models.Message) error {
	channel, err := s.channels.GetByID(ctx, msg.ChannelID)
	if err != nil {
		return err
	}
	if channel == nil {
		slog.Info("dropping scheduled message for deleted channel", "messageID", msg.ID, "channelID", msg.ChannelID)
		return nil
	}
	return postMessage(ctx, s.messages, s.gateway, msg)
}

// EditMessage replaces a message's text. Empty text removes the message.
func (s *MessageService) EditMessage(ctx context.Context, messageID, userID int64, content string) (*models.Message, error) {
	msg, err := s.modifiable(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, s.remove(ctx, msg)
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.messages.UpdateContent(ctx, messageID, content, now); err != nil {
		return nil, internalError("messages.UpdateContent", err)
	}
	msg.Content = content
	msg.EditedAt = &now

	s.gateway.DispatchToChannel(msg.ChannelID, gateway.EventMessageUpdate, msg)
	return msg, nil
}

// DeleteMessage removes a message.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, userID int64) error {
	msg, err := s.modifiable(ctx, messageID, userID)
	if err != nil {
		return err
	}
	return s.remove(ctx, msg)
}

// SetPinned pins or unpins a message.
func (s *MessageService) SetPinned(ctx context.Context, messageID, userID int64, pinned bool) error {
	msg, err := getMessage(ctx, s.messages, messageID)
	if err != nil {
		return err
	}
	if _, err := s.perms.RequireChannelPermission(ctx, msg.ChannelID, userID, permissions.PermPinMessages); err != nil {
		return err
	}

	changed, err := s.messages.SetPinned(ctx, messageID, pinned)
	if err != nil {
		return internalError("messages.SetPinned", err)
	}
	if !changed {
		if pinned {
			return BadRequest("ALREADY_PINNED", "message is already pinned")
		}
		return BadRequest("NOT_PINNED", "message is not pinned")
	}

	s.gateway.DispatchToChannel(msg.ChannelID, gateway.EventMessagePinUpdate, gateway.MessagePinData{
		MessageID: messageID,
		ChannelID: msg.ChannelID,
		IsPinned:  pinned,
	})
	return nil
}

// modifiable loads a message the caller may edit or remove.
func (s *MessageService) modifiable(ctx context.Context, messageID, userID int64) (*models.Message, error) {
	msg, err := getMessage(ctx, s.messages, messageID)
	if err != nil {
		return nil, err
	}

	access, err := s.perms.Resolve(ctx, msg.ChannelID, userID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanModifyMessage(access.Subject, msg.AuthorID) {
		return nil, missingPermissions("you can only modify your own messages")
	}
	return msg, nil
}

func (s *MessageService) remove(ctx context.Context, msg *models.Message) error {
	if err := s.messages.Delete(ctx, msg.ID); err != nil {
		return internalError("messages.Delete", err)
	}
	s.gateway.DispatchToChannel(msg.ChannelID, gateway.EventMessageDelete, gateway.MessageDeleteData{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
	})
	return nil
}

func getMessage(ctx context.Context, messages database.MessageRepository, messageID int64) (*models.Message, error) {
	msg, err := messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, internalError("messages.GetByID", err)
	}
	if msg == nil {
		return nil, NotFound("UNKNOWN_MESSAGE", "message not found")
	}
	return msg, nil
}

// postMessage stores msg and announces it to the channel.
func postMessage(ctx context.Context, messages database.MessageRepository, gw gateway.Dispatcher, msg *models.Message) error {
	if msg.Reacts == nil {
		msg.Reacts = []models.React{}
	}
	if err := messages.Create(ctx, msg); err != nil {
		return internalError("messages.Create", err)
	}
	gw.DispatchToChannel(msg.ChannelID, gateway.EventMessageCreate, msg)
	return nil
}

// attachReacts fills in the grouped reactions of each message as seen by viewerID.
func attachReacts(ctx context.Context, reactions database.ReactionRepository, messages []models.Message, viewerID int64) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]int64, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}

	rows, err := reactions.ListByMessages(ctx, ids)
	if err != nil {
		return err
	}
	for i := range messages {
		messages[i].Reacts = models.GroupReactions(rows[messages[i].ID], viewerID)
	}
	return nil
}
