package database

import (
	"context"
	"time"

	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
)

type UserRepository interface {
	// Create inserts a user. The first user ever created is flagged as a
	// global owner and user.IsGlobalOwner is updated to match.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByHandle(ctx context.Context, handle string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetGlobalOwner(ctx context.Context, id int64, isOwner bool) error
}

type ChannelRepository interface {
	// Create inserts a channel with creatorID as its first member and owner.
	Create(ctx context.Context, channel *models.Channel, creatorID int64) error
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	List(ctx context.Context) ([]models.Channel, error)
	ListByMember(ctx context.Context, userID int64) ([]models.Channel, error)
	Delete(ctx context.Context, id int64) error
}

type MemberRepository interface {
	Get(ctx context.Context, channelID, userID int64) (*models.ChannelMember, error)
	// ListByChannel returns members in join order.
	ListByChannel(ctx context.Context, channelID int64) ([]models.ChannelMember, error)
	// Add inserts a membership. An existing membership is kept, and is
	// upgraded to ownership when asOwner is set.
	Add(ctx context.Context, channelID, userID int64, asOwner bool) (added bool, err error)
	SetOwner(ctx context.Context, channelID, userID int64, isOwner bool) error
	// Leave removes a membership and applies the resulting permissions.LeavePlan
	// in one transaction.
	Leave(ctx context.Context, channelID, userID int64) (*models.LeaveOutcome, error)
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	// ListByChannel returns messages newest first, skipping offset.
	ListByChannel(ctx context.Context, channelID int64, offset, limit int) ([]models.Message, error)
	CountByChannel(ctx context.Context, channelID int64) (int, error)
	UpdateContent(ctx context.Context, id int64, content string, editedAt time.Time) error
	// SetPinned flips the pin flag and reports whether it changed.
	SetPinned(ctx context.Context, id int64, pinned bool) (bool, error)
	Delete(ctx context.Context, id int64) error
	// Search returns messages containing query from channels userID belongs
	// to, oldest id first.
	Search(ctx context.Context, userID int64, query string) ([]models.Message, error)
}

type ReactionRepository interface {
	// Add records a reaction and reports false if it already existed.
	Add(ctx context.Context, messageID int64, reactID int, userID int64) (bool, error)
	// Remove deletes a reaction and reports false if there was none.
	Remove(ctx context.Context, messageID int64, reactID int, userID int64) (bool, error)
	ListByMessages(ctx context.Context, messageIDs []int64) (map[int64][]models.Reaction, error)
}

// seats converts members to the form the leave planner expects.
func seats(members []models.ChannelMember) []permissions.Seat {
	out := make([]permissions.Seat, len(members))
	for i, m := range members {
		out[i] = permissions.Seat{UserID: m.UserID, IsOwner: m.IsOwner}
	}
	return out
}
