package models

import "time"

// ChannelMember is a membership row joined with the member's public profile.
// Ownership is a flag on the membership, so every owner is also a member.
type ChannelMember struct {
	ChannelID  int64      `json:"channel_id,string"`
	UserID     int64      `json:"user_id,string"`
	IsOwner    bool       `json:"is_owner"`
	JoinedAt   time.Time  `json:"joined_at"`
	OwnerSince *time.Time `json:"owner_since,omitempty"`

	NameFirst     string `json:"name_first"`
	NameLast      string `json:"name_last"`
	Handle        string `json:"handle"`
	ProfileImgURL string `json:"profile_img_url"`
}

func (m ChannelMember) Summary() UserSummary {
	return UserSummary{
		ID:            m.UserID,
		NameFirst:     m.NameFirst,
		NameLast:      m.NameLast,
		Handle:        m.Handle,
		ProfileImgURL: m.ProfileImgURL,
	}
}

// LeaveOutcome describes what happened to a channel after a member left it.
type LeaveOutcome struct {
	ChannelDeleted bool
	PromotedUserID *int64
}
