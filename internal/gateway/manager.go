package gateway

import (
	"cmp"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/redis"
	"github.com/google/uuid"
)

const (
	replayBufferSize     = 100
	defaultPresenceGrace = 10 * time.Second
)

// Manager manages all active WebSocket connections and event routing.
type Manager struct {
	mu            sync.RWMutex
	connections   map[int64]*Connection    // userID → connection
	subscriptions map[int64]map[int64]bool // channelID → set of userIDs
	sessions      map[string]*Connection   // sessionID → connection

	// replayMu guards seq and the replay buffers. It is held across each
	// dispatch's sends so clients see sequence numbers in order. Taken before
	// mu when both are needed.
	replayMu     sync.RWMutex
	seq          int64
	replayBuffer map[int64]*ringBuffer // channelID → ring buffer of events

	auth          *auth.Authenticator
	channels      database.ChannelRepository
	redis         *redis.Client
	presenceGrace time.Duration
}

// NewManager creates a new gateway Manager.
func NewManager(
	authn *auth.Authenticator,
	channels database.ChannelRepository,
	redisClient *redis.Client,
) *Manager {
	return &Manager{
		connections:   make(map[int64]*Connection),
		subscriptions: make(map[int64]map[int64]bool),
		sessions:      make(map[string]*Connection),
		replayBuffer:  make(map[int64]*ringBuffer),
		auth:          authn,
		channels:      channels,
		redis:         redisClient,
		presenceGrace: defaultPresenceGrace,
	}
}

// register adds a connection to the manager.
func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// One live connection per user.
	if old, ok := m.connections[c.UserID]; ok && old != c {
		old.SendPayload(GatewayPayload{Op: OpReconnect})
		old.Close()
		delete(m.sessions, old.SessionID)
	}

	m.connections[c.UserID] = c
	m.sessions[c.SessionID] = c
}

// unregister removes a connection from the manager and cleans up subscriptions.
func (m *Manager) unregister(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.connections[c.UserID]; ok && existing == c {
		delete(m.connections, c.UserID)

		var channelIDs []int64
		for channelID, members := range m.subscriptions {
			if !members[c.UserID] {
				continue
			}
			channelIDs = append(channelIDs, channelID)
			delete(members, c.UserID)
			if len(members) == 0 {
				delete(m.subscriptions, channelID)
			}
		}

		go m.clearPresenceWithGrace(c.UserID, channelIDs)
	}

	delete(m.sessions, c.SessionID)
}

// clearPresenceWithGrace waits before setting offline, allowing reconnection.
// channelIDs are the channels the user was subscribed to when it dropped.
func (m *Manager) clearPresenceWithGrace(userID int64, channelIDs []int64) {
	time.Sleep(m.presenceGrace)

	m.mu.RLock()
	_, stillConnected := m.connections[userID]
	m.mu.RUnlock()

	if stillConnected {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.redis.DeletePresence(ctx, userID); err != nil {
		slog.Error("failed to clear presence", "userID", userID, "error", err)
	}

	m.dispatchPresence(channelIDs, userID, "offline")
}

// SubscribeToChannel adds a connected user to a channel's event subscription.
// Users without a live connection are ignored; IDENTIFY subscribes them later.
func (m *Manager) SubscribeToChannel(userID, channelID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.connections[userID]; !ok {
		return
	}
	m.subscribeLocked(userID, channelID)
}

func (m *Manager) subscribeLocked(userID, channelID int64) {
	if m.subscriptions[channelID] == nil {
		m.subscriptions[channelID] = make(map[int64]bool)
	}
	m.subscriptions[channelID][userID] = true
}

// UnsubscribeFromChannel removes a user from a channel's event subscription.
func (m *Manager) UnsubscribeFromChannel(userID, channelID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if members, ok := m.subscriptions[channelID]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(m.subscriptions, channelID)
		}
	}
}

// DropChannel forgets a deleted channel.
func (m *Manager) DropChannel(channelID int64) {
	m.mu.Lock()
	delete(m.subscriptions, channelID)
	m.mu.Unlock()

	m.replayMu.Lock()
	delete(m.replayBuffer, channelID)
	m.replayMu.Unlock()
}

// DisconnectUser closes the user's live connection, if any.
func (m *Manager) DisconnectUser(userID int64) {
	m.mu.RLock()
	c, ok := m.connections[userID]
	m.mu.RUnlock()

	if ok {
		c.Close()
	}
}

// DispatchToUser sends a dispatch event to a specific connected user.
func (m *Manager) DispatchToUser(userID int64, event string, data any) {
	m.mu.RLock()
	c, ok := m.connections[userID]
	m.mu.RUnlock()

	if ok {
		c.SendEvent(event, data)
	}
}

// DispatchToAll sends a dispatch event to every connected user.
func (m *Manager) DispatchToAll(event string, data any) {
	m.mu.RLock()
	conns := make([]*Connection, 0, len(m.connections))
	for _, c := range m.connections {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	for _, c := range conns {
		c.SendEvent(event, data)
	}
}

// DispatchToChannel sends a dispatch event to all users subscribed to a channel.
func (m *Manager) DispatchToChannel(channelID int64, event string, data any) {
	m.DispatchToChannelExcept(channelID, 0, event, data)
}

// DispatchToChannelExcept sends a dispatch event to all channel subscribers
// except one user. An exceptUserID of 0 excludes nobody.
func (m *Manager) DispatchToChannelExcept(channelID, exceptUserID int64, event string, data any) {
	m.stamp(func(seq int64) {
		m.mu.RLock()
		members := m.subscriptions[channelID]
		conns := make([]*Connection, 0, len(members))
		for userID := range members {
			if userID == exceptUserID {
				continue
			}
			if c, ok := m.connections[userID]; ok {
				conns = append(conns, c)
			}
		}
		m.mu.RUnlock()

		for _, c := range conns {
			c.sendDispatch(seq, event, data)
		}

		m.bufferLocked(channelID, sequencedEvent{
			Sequence:     seq,
			ExceptUserID: exceptUserID,
			Event:        Event{Name: event, Data: data},
		})
	})
}

// stamp calls send with the next gateway sequence number. Numbers are shared
// by all connections and channels, so the last one a client saw can be
// compared against any channel's replay buffer on RESUME.
func (m *Manager) stamp(send func(seq int64)) {
	m.replayMu.Lock()
	defer m.replayMu.Unlock()
	m.seq++
	send(m.seq)
}

// authenticate resolves a token to a user and the channels they belong to.
func (m *Manager) authenticate(ctx context.Context, token string) (int64, []int64, error) {
	claims, err := m.auth.Authenticate(ctx, token)
	if err != nil {
		return 0, nil, err
	}

	channels, err := m.channels.ListByMember(ctx, claims.UserID)
	if err != nil {
		return 0, nil, err
	}

	ids := make([]int64, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ID
	}
	return claims.UserID, ids, nil
}

// attach registers c and subscribes it to channelIDs under one lock.
func (m *Manager) attach(c *Connection, channelIDs []int64) {
	m.register(c)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range channelIDs {
		m.subscribeLocked(c.UserID, id)
	}
}

// handleIdentify processes an IDENTIFY payload from a client.
func (m *Manager) handleIdentify(c *Connection, data json.RawMessage) {
	var identify IdentifyData
	if err := json.Unmarshal(data, &identify); err != nil {
		slog.Warn("invalid identify data", "error", err)
		c.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID, channelIDs, err := m.authenticate(ctx, identify.Token)
	if err != nil {
		slog.Warn("identify rejected", "error", err)
		c.Close()
		return
	}

	c.UserID = userID
	c.SessionID = uuid.NewString()
	m.attach(c, channelIDs)

	if err := m.redis.SetPresence(ctx, c.UserID, "online"); err != nil {
		slog.Error("failed to set presence", "userID", c.UserID, "error", err)
	}

	c.SendEvent(EventReady, ReadyData{
		SessionID: c.SessionID,
		UserID:    c.UserID,
		Channels:  channelIDs,
	})

	m.broadcastPresence(c.UserID, "online")
}

// handleResume processes a RESUME payload to replay missed events.
func (m *Manager) handleResume(c *Connection, data json.RawMessage) {
	var resume ResumeData
	if err := json.Unmarshal(data, &resume); err != nil {
		slog.Warn("invalid resume data", "error", err)
		c.SendPayload(GatewayPayload{Op: OpReconnect})
		c.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	userID, channelIDs, err := m.authenticate(ctx, resume.Token)
	if err != nil {
		slog.Warn("resume rejected", "error", err)
		c.Close()
		return
	}

	c.UserID = userID
	c.SessionID = resume.SessionID

	// Hold dispatch still so nothing lands between the replay and the first
	// live event.
	m.replayMu.Lock()
	defer m.replayMu.Unlock()

	m.attach(c, channelIDs)

	var missed []sequencedEvent
	for _, id := range channelIDs {
		if rb, ok := m.replayBuffer[id]; ok {
			missed = append(missed, rb.since(resume.Sequence, userID)...)
		}
	}
	slices.SortFunc(missed, func(a, b sequencedEvent) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	for _, ev := range missed {
		c.sendDispatch(ev.Sequence, ev.Name, ev.Data)
	}
}

// handlePresenceUpdate processes a client presence update.
func (m *Manager) handlePresenceUpdate(c *Connection, data json.RawMessage) {
	var update ClientPresenceUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		return
	}

	status := update.Status
	switch status {
	case "online", "idle", "dnd":
	case "invisible":
		status = "offline"
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.redis.SetPresence(ctx, c.UserID, status); err != nil {
		slog.Error("failed to update presence", "userID", c.UserID, "error", err)
		return
	}
	m.broadcastPresence(c.UserID, status)
}

// broadcastPresence sends a PRESENCE_UPDATE event to every channel the user
// is subscribed to.
func (m *Manager) broadcastPresence(userID int64, status string) {
	m.mu.RLock()
	var channelIDs []int64
	for channelID, members := range m.subscriptions {
		if members[userID] {
			channelIDs = append(channelIDs, channelID)
		}
	}
	m.mu.RUnlock()

	m.dispatchPresence(channelIDs, userID, status)
}

// dispatchPresence tells the other members of channelIDs about userID's status.
func (m *Manager) dispatchPresence(channelIDs []int64, userID int64, status string) {
	data := PresenceUpdateData{UserID: userID, Status: status}
	for _, channelID := range channelIDs {
		m.DispatchToChannelExcept(channelID, userID, EventPresenceUpdate, data)
	}
}

// bufferLocked adds an event to the channel's replay ring buffer. The caller
// holds replayMu.
func (m *Manager) bufferLocked(channelID int64, ev sequencedEvent) {
	rb, ok := m.replayBuffer[channelID]
	if !ok {
		rb = newRingBuffer(replayBufferSize)
		m.replayBuffer[channelID] = rb
	}
	rb.add(ev)
}
