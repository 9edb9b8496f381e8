package gateway

import (
	"encoding/json"
	"time"
)

// Op codes for gateway payloads.
const (
	OpDispatch       = 0
	OpHeartbeat      = 1
	OpIdentify       = 2
	OpPresenceUpdate = 3
	OpResume         = 6
	OpReconnect      = 7
	OpHello          = 10
	OpHeartbeatAck   = 11
)

// Event names for DISPATCH payloads.
const (
	EventReady                 = "READY"
	EventMessageCreate         = "MESSAGE_CREATE"
	EventMessageUpdate         = "MESSAGE_UPDATE"
	EventMessageDelete         = "MESSAGE_DELETE"
	EventMessagePinUpdate      = "MESSAGE_PIN_UPDATE"
	EventMessageReactionAdd    = "MESSAGE_REACTION_ADD"
	EventMessageReactionRemove = "MESSAGE_REACTION_REMOVE"
	EventChannelCreate         = "CHANNEL_CREATE"
	EventChannelDelete         = "CHANNEL_DELETE"
	EventChannelMemberAdd      = "CHANNEL_MEMBER_ADD"
	EventChannelMemberRemove   = "CHANNEL_MEMBER_REMOVE"
	EventChannelOwnerUpdate    = "CHANNEL_OWNER_UPDATE"
	EventStandupStart          = "STANDUP_START"
	EventStandupFinish         = "STANDUP_FINISH"
	EventTypingStart           = "TYPING_START"
	EventPresenceUpdate        = "PRESENCE_UPDATE"
	EventUserUpdate            = "USER_UPDATE"
)

// GatewayPayload is the envelope for all gateway messages.
type GatewayPayload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Event    *string         `json:"t,omitempty"`
}

// IdentifyData is sent by the client in an Op 2 IDENTIFY.
type IdentifyData struct {
	Token string `json:"token"`
}

// ResumeData is sent by the client in an Op 6 RESUME.
type ResumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"seq"`
}

// HelloData is sent by the server after WebSocket connect.
type HelloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

// ReadyData is sent by the server after successful IDENTIFY.
type ReadyData struct {
	SessionID string  `json:"session_id"`
	UserID    int64   `json:"user_id,string"`
	Channels  []int64 `json:"channels"`
}

// Event is a dispatch event ready to broadcast.
type Event struct {
	Name string
	Data any
}

type MessageDeleteData struct {
	ID        int64 `json:"id,string"`
	ChannelID int64 `json:"channel_id,string"`
}

type MessagePinData struct {
	MessageID int64 `json:"message_id,string"`
	ChannelID int64 `json:"channel_id,string"`
	IsPinned  bool  `json:"is_pinned"`
}

type ReactionData struct {
	MessageID int64 `json:"message_id,string"`
	ChannelID int64 `json:"channel_id,string"`
	UserID    int64 `json:"user_id,string"`
	ReactID   int   `json:"react_id"`
}

type ChannelDeleteData struct {
	ID int64 `json:"id,string"`
}

type ChannelMemberData struct {
	ChannelID int64 `json:"channel_id,string"`
	UserID    int64 `json:"user_id,string"`
}

type ChannelOwnerData struct {
	ChannelID int64 `json:"channel_id,string"`
	UserID    int64 `json:"user_id,string"`
	IsOwner   bool  `json:"is_owner"`
}

// StandupData is the payload for STANDUP_START and STANDUP_FINISH events.
type StandupData struct {
	ChannelID  int64      `json:"channel_id,string"`
	StartedBy  int64      `json:"started_by,string"`
	TimeFinish *time.Time `json:"time_finish,omitempty"`
}

// TypingStartData is the payload for TYPING_START events.
type TypingStartData struct {
	ChannelID int64 `json:"channel_id,string"`
	UserID    int64 `json:"user_id,string"`
	Timestamp int64 `json:"timestamp"`
}

// PresenceUpdateData is the payload for PRESENCE_UPDATE events.
type PresenceUpdateData struct {
	UserID int64  `json:"user_id,string"`
	Status string `json:"status"`
}

// ClientPresenceUpdate is sent by the client in an Op 3 PRESENCE_UPDATE.
type ClientPresenceUpdate struct {
	Status string `json:"status"`
}

// mustMarshal encodes payload data whose types cannot fail to marshal.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic("gateway: " + err.Error())
	}
	return data
}
