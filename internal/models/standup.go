package models

import "time"

// StandupStatus reports whether a channel has a standup collecting messages.
type StandupStatus struct {
	IsActive   bool       `json:"is_active"`
	TimeFinish *time.Time `json:"time_finish"`
}
