package models

import (
	"slices"
	"time"
)

// ReactThumbsUp is the only reaction currently offered to clients.
const ReactThumbsUp = 1

// ValidReactID reports whether id names a known reaction.
func ValidReactID(id int) bool {
	return id == ReactThumbsUp
}

type Reaction struct {
	MessageID int64     `json:"message_id,string"`
	ReactID   int       `json:"react_id"`
	UserID    int64     `json:"user_id,string"`
	CreatedAt time.Time `json:"created_at"`
}

// React groups the users who reacted to a message with the same react id.
type React struct {
	ReactID           int     `json:"react_id"`
	UserIDs           []int64 `json:"user_ids"`
	IsThisUserReacted bool    `json:"is_this_user_reacted"`
}

// GroupReactions folds raw reaction rows into React entries ordered by react id
// and marks the ones the viewer took part in.
func GroupReactions(rows []Reaction, viewerID int64) []React {
	reacts := []React{}
	index := make(map[int]int)
	for _, r := range rows {
		i, ok := index[r.ReactID]
		if !ok {
			i = len(reacts)
			index[r.ReactID] = i
			reacts = append(reacts, React{ReactID: r.ReactID, UserIDs: []int64{}})
		}
		reacts[i].UserIDs = append(reacts[i].UserIDs, r.UserID)
		if r.UserID == viewerID {
			reacts[i].IsThisUserReacted = true
		}
	}
	slices.SortStableFunc(reacts, func(a, b React) int { return a.ReactID - b.ReactID })
	return reacts
}
