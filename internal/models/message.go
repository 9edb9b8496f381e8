package models

import "time"

const (
	// MessageWindowSize is the number of messages returned per listing page.
	MessageWindowSize = 50
	// MaxMessageLength is the longest message body accepted from a client.
	MaxMessageLength = 1000
)

type Message struct {
	ID        int64      `json:"id,string"`
	ChannelID int64      `json:"channel_id,string"`
	AuthorID  int64      `json:"author_id,string"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	IsPinned  bool       `json:"is_pinned"`
	Reacts    []React    `json:"reacts"`
}

// MessageWindow is one page of a channel's history, newest first.
// End is Start+MessageWindowSize, or -1 once the oldest message is included.
type MessageWindow struct {
	Messages []Message `json:"messages"`
	Start    int       `json:"start"`
	End      int       `json:"end"`
}
