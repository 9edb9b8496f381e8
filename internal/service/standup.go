package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
	"github.com/Ry1and/flockr/internal/snowflake"
	"github.com/Ry1and/flockr/internal/standup"
)

// MaxStandupLength is the longest standup that can be started.
const MaxStandupLength = 24 * time.Hour

// StandupService runs timed standups and posts their summaries.
type StandupService struct {
	channels  database.ChannelRepository
	messages  database.MessageRepository
	snowflake *snowflake.Generator
	gateway   gateway.Dispatcher
	perms     *PermissionChecker
	registry  *standup.Registry
}

// NewStandupService creates a StandupService with its own registry.
func NewStandupService(
	channels database.ChannelRepository,
	messages database.MessageRepository,
	sf *snowflake.Generator,
	gw gateway.Dispatcher,
	perms *PermissionChecker,
) *StandupService {
	s := &StandupService{
		channels:  channels,
		messages:  messages,
		snowflake: sf,
		gateway:   gw,
		perms:     perms,
	}
	s.registry = standup.NewRegistry(s.finish)
	return s
}

// Start opens a standup that runs for length and returns its finish time.
func (s *StandupService) Start(ctx context.Context, channelID, userID int64, length time.Duration) (time.Time, error) {
	if _, err := s.perms.RequireChannelPermission(ctx, channelID, userID, permissions.PermSendMessages); err != nil {
		return time.Time{}, err
	}
	if length <= 0 || length > MaxStandupLength {
		return time.Time{}, BadRequest("INVALID_LENGTH", "length must be between 1 second and 24 hours")
	}

	finish, err := s.registry.Start(channelID, userID, length)
	if err != nil {
		if errors.Is(err, standup.ErrAlreadyActive) {
			return time.Time{}, BadRequest("STANDUP_ACTIVE", "a standup is already running in this channel")
		}
		return time.Time{}, internalError("registry.Start", err)
	}

	s.gateway.DispatchToChannel(channelID, gateway.EventStandupStart, gateway.StandupData{
		ChannelID:  channelID,
		StartedBy:  userID,
		TimeFinish: &finish,
	})
	return finish, nil
}

// Status reports whether a standup is running in the channel.
func (s *StandupService) Status(ctx context.Context, channelID, userID int64) (*models.StandupStatus, error) {
	if _, err := s.perms.RequireChannelPermission(ctx, channelID, userID, permissions.PermViewChannel); err != nil {
		return nil, err
	}

	active, finish := s.registry.Active(channelID)
	status := &models.StandupStatus{IsActive: active}
	if active {
		status.TimeFinish = &finish
	}
	return status, nil
}

// Send adds a line to the channel's running standup.
func (s *StandupService) Send(ctx context.Context, channelID, userID int64, message string) error {
	access, err := s.perms.RequireChannelPermission(ctx, channelID, userID, permissions.PermSendMessages)
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(message) > models.MaxMessageLength {
		return BadRequest("INVALID_CONTENT", "message must be at most 1000 characters")
	}

	if err := s.registry.Send(channelID, access.User.Handle, message); err != nil {
		if errors.Is(err, standup.ErrNotActive) {
			return BadRequest("STANDUP_NOT_ACTIVE", "no standup is running in this channel")
		}
		return internalError("registry.Send", err)
	}
	return nil
}

// CancelChannel discards the standup of a deleted channel, if any.
func (s *StandupService) CancelChannel(channelID int64) {
	if s == nil {
		return
	}
	s.registry.Cancel(channelID)
}

// Shutdown discards every running standup.
func (s *StandupService) Shutdown() {
	s.registry.CancelAll()
}

// finish posts the summary as the starter and announces the end of the standup.
func (s *StandupService) finish(ctx context.Context, summary standup.Summary) {
	channel, err := s.channels.GetByID(ctx, summary.ChannelID)
	if err != nil {
		slog.Error("standup finish: load channel", "channelID", summary.ChannelID, "error", err)
		return
	}
	if channel == nil {
		return
	}

	if summary.Content != "" {
		msg := &models.Message{
			ID:        s.snowflake.Generate().Int64(),
			ChannelID: summary.ChannelID,
			AuthorID:  summary.StarterID,
			Content:   summary.Content,
			CreatedAt: time.Now(),
		}
		if err := postMessage(ctx, s.messages, s.gateway, msg); err != nil {
			slog.Error("standup finish: post summary", "channelID", summary.ChannelID, "error", err)
		}
	}

	s.gateway.DispatchToChannel(summary.ChannelID, gateway.EventStandupFinish, gateway.StandupData{
		ChannelID: summary.ChannelID,
		StartedBy: summary.StarterID,
	})
}
