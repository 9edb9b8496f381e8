package models

import "time"

type Channel struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelDetails is a channel together with its ordered owner and member lists.
type ChannelDetails struct {
	Channel
	OwnerMembers []UserSummary `json:"owner_members"`
	AllMembers   []UserSummary `json:"all_members"`
}
