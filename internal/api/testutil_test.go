package api

import (
	"cmp"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"

	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/permissions"
	redisclient "github.com/Ry1and/flockr/internal/redis"
	"github.com/Ry1and/flockr/internal/service"
	"github.com/Ry1and/flockr/internal/snowflake"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestContext(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

func setAuthUser(c echo.Context, userID int64) {
	c.Set("user_id", userID)
}

func setParams(c echo.Context, pairs ...string) {
	var names, values []string
	for i := 0; i+1 < len(pairs); i += 2 {
		names = append(names, pairs[i])
		values = append(values, pairs[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

func testSnowflake() *snowflake.Generator {
	sf, _ := snowflake.NewGenerator(1)
	return sf
}

func newTestRedis(t *testing.T) *redisclient.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redisclient.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("creating test redis client: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// ---------------------------------------------------------------------------
// Mock gateway dispatcher
// ---------------------------------------------------------------------------

type dispatchedEvent struct {
	ChannelID    int64
	UserID       int64
	ExceptUserID int64
	Event        string
	Data         any
}

type mockGateway struct {
	mu           sync.Mutex
	events       []dispatchedEvent
	subscribed   [][2]int64
	unsubscribed [][2]int64
	dropped      []int64
	disconnected []int64
}

func (m *mockGateway) DispatchToChannel(channelID int64, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, dispatchedEvent{ChannelID: channelID, Event: event, Data: data})
}

func (m *mockGateway) DispatchToChannelExcept(channelID, exceptUserID int64, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, dispatchedEvent{ChannelID: channelID, ExceptUserID: exceptUserID, Event: event, Data: data})
}

func (m *mockGateway) DispatchToUser(userID int64, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, dispatchedEvent{UserID: userID, Event: event, Data: data})
}

func (m *mockGateway) DispatchToAll(event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, dispatchedEvent{Event: event, Data: data})
}

func (m *mockGateway) SubscribeToChannel(userID, channelID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = append(m.subscribed, [2]int64{userID, channelID})
}

func (m *mockGateway) UnsubscribeFromChannel(userID, channelID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribed = append(m.unsubscribed, [2]int64{userID, channelID})
}

func (m *mockGateway) DropChannel(channelID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped = append(m.dropped, channelID)
}

func (m *mockGateway) DisconnectUser(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = append(m.disconnected, userID)
}

// eventNames returns the names of dispatched events in order.
func (m *mockGateway) eventNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.events))
	for i, e := range m.events {
		names[i] = e.Event
	}
	return names
}

// find returns the first dispatched event with the given name.
func (m *mockGateway) find(event string) (dispatchedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.Event == event {
			return e, true
		}
	}
	return dispatchedEvent{}, false
}

// ---------------------------------------------------------------------------
// Mock repositories
// ---------------------------------------------------------------------------

// mockUserRepo implements database.UserRepository.
type mockUserRepo struct {
	CreateFn         func(ctx context.Context, user *models.User) error
	GetByIDFn        func(ctx context.Context, id int64) (*models.User, error)
	GetByEmailFn     func(ctx context.Context, email string) (*models.User, error)
	GetByHandleFn    func(ctx context.Context, handle string) (*models.User, error)
	ListFn           func(ctx context.Context) ([]models.User, error)
	UpdateFn         func(ctx context.Context, user *models.User) error
	SetGlobalOwnerFn func(ctx context.Context, id int64, isOwner bool) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	if m.GetByHandleFn != nil {
		return m.GetByHandleFn(ctx, handle)
	}
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]models.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) SetGlobalOwner(ctx context.Context, id int64, isOwner bool) error {
	if m.SetGlobalOwnerFn != nil {
		return m.SetGlobalOwnerFn(ctx, id, isOwner)
	}
	return nil
}

// mockChannelRepo implements database.ChannelRepository.
type mockChannelRepo struct {
	CreateFn       func(ctx context.Context, channel *models.Channel, creatorID int64) error
	GetByIDFn      func(ctx context.Context, id int64) (*models.Channel, error)
	ListFn         func(ctx context.Context) ([]models.Channel, error)
	ListByMemberFn func(ctx context.Context, userID int64) ([]models.Channel, error)
	DeleteFn       func(ctx context.Context, id int64) error
}

func (m *mockChannelRepo) Create(ctx context.Context, channel *models.Channel, creatorID int64) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, channel, creatorID)
	}
	return nil
}

func (m *mockChannelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockChannelRepo) List(ctx context.Context) ([]models.Channel, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *mockChannelRepo) ListByMember(ctx context.Context, userID int64) ([]models.Channel, error) {
	if m.ListByMemberFn != nil {
		return m.ListByMemberFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockChannelRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

// mockMemberRepo implements database.MemberRepository.
type mockMemberRepo struct {
	GetFn           func(ctx context.Context, channelID, userID int64) (*models.ChannelMember, error)
	ListByChannelFn func(ctx context.Context, channelID int64) ([]models.ChannelMember, error)
	AddFn           func(ctx context.Context, channelID, userID int64, asOwner bool) (bool, error)
	SetOwnerFn      func(ctx context.Context, channelID, userID int64, isOwner bool) error
	LeaveFn         func(ctx context.Context, channelID, userID int64) (*models.LeaveOutcome, error)
}

func (m *mockMemberRepo) Get(ctx context.Context, channelID, userID int64) (*models.ChannelMember, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, channelID, userID)
	}
	return nil, nil
}

func (m *mockMemberRepo) ListByChannel(ctx context.Context, channelID int64) ([]models.ChannelMember, error) {
	if m.ListByChannelFn != nil {
		return m.ListByChannelFn(ctx, channelID)
	}
	return nil, nil
}

func (m *mockMemberRepo) Add(ctx context.Context, channelID, userID int64, asOwner bool) (bool, error) {
	if m.AddFn != nil {
		return m.AddFn(ctx, channelID, userID, asOwner)
	}
	return true, nil
}

func (m *mockMemberRepo) SetOwner(ctx context.Context, channelID, userID int64, isOwner bool) error {
	if m.SetOwnerFn != nil {
		return m.SetOwnerFn(ctx, channelID, userID, isOwner)
	}
	return nil
}

func (m *mockMemberRepo) Leave(ctx context.Context, channelID, userID int64) (*models.LeaveOutcome, error) {
	if m.LeaveFn != nil {
		return m.LeaveFn(ctx, channelID, userID)
	}
	return nil, nil
}

// mockMessageRepo implements database.MessageRepository.
type mockMessageRepo struct {
	CreateFn         func(ctx context.Context, msg *models.Message) error
	GetByIDFn        func(ctx context.Context, id int64) (*models.Message, error)
	ListByChannelFn  func(ctx context.Context, channelID int64, offset, limit int) ([]models.Message, error)
	CountByChannelFn func(ctx context.Context, channelID int64) (int, error)
	UpdateContentFn  func(ctx context.Context, id int64, content string, editedAt time.Time) error
	SetPinnedFn      func(ctx context.Context, id int64, pinned bool) (bool, error)
	DeleteFn         func(ctx context.Context, id int64) error
	SearchFn         func(ctx context.Context, userID int64, query string) ([]models.Message, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, msg)
	}
	return nil
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMessageRepo) ListByChannel(ctx context.Context, channelID int64, offset, limit int) ([]models.Message, error) {
	if m.ListByChannelFn != nil {
		return m.ListByChannelFn(ctx, channelID, offset, limit)
	}
	return nil, nil
}

func (m *mockMessageRepo) CountByChannel(ctx context.Context, channelID int64) (int, error) {
	if m.CountByChannelFn != nil {
		return m.CountByChannelFn(ctx, channelID)
	}
	return 0, nil
}

func (m *mockMessageRepo) UpdateContent(ctx context.Context, id int64, content string, editedAt time.Time) error {
	if m.UpdateContentFn != nil {
		return m.UpdateContentFn(ctx, id, content, editedAt)
	}
	return nil
}

func (m *mockMessageRepo) SetPinned(ctx context.Context, id int64, pinned bool) (bool, error) {
	if m.SetPinnedFn != nil {
		return m.SetPinnedFn(ctx, id, pinned)
	}
	return true, nil
}

func (m *mockMessageRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *mockMessageRepo) Search(ctx context.Context, userID int64, query string) ([]models.Message, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, userID, query)
	}
	return nil, nil
}

// mockReactionRepo implements database.ReactionRepository.
type mockReactionRepo struct {
	AddFn            func(ctx context.Context, messageID int64, reactID int, userID int64) (bool, error)
	RemoveFn         func(ctx context.Context, messageID int64, reactID int, userID int64) (bool, error)
	ListByMessagesFn func(ctx context.Context, messageIDs []int64) (map[int64][]models.Reaction, error)
}

func (m *mockReactionRepo) Add(ctx context.Context, messageID int64, reactID int, userID int64) (bool, error) {
	if m.AddFn != nil {
		return m.AddFn(ctx, messageID, reactID, userID)
	}
	return true, nil
}

func (m *mockReactionRepo) Remove(ctx context.Context, messageID int64, reactID int, userID int64) (bool, error) {
	if m.RemoveFn != nil {
		return m.RemoveFn(ctx, messageID, reactID, userID)
	}
	return true, nil
}

func (m *mockReactionRepo) ListByMessages(ctx context.Context, messageIDs []int64) (map[int64][]models.Reaction, error) {
	if m.ListByMessagesFn != nil {
		return m.ListByMessagesFn(ctx, messageIDs)
	}
	return map[int64][]models.Reaction{}, nil
}

// ---------------------------------------------------------------------------
// In-memory world backing the mocks
// ---------------------------------------------------------------------------

// world is a small in-memory data set. Its repo methods return mocks whose
// function fields read and write the world, so a test only has to describe
// the state it starts from.
type world struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	channels  map[int64]*models.Channel
	members   map[int64][]models.ChannelMember // join order
	messages  map[int64]*models.Message
	reactions map[int64][]models.Reaction
}

func newWorld() *world {
	return &world{
		users:     make(map[int64]*models.User),
		channels:  make(map[int64]*models.Channel),
		members:   make(map[int64][]models.ChannelMember),
		messages:  make(map[int64]*models.Message),
		reactions: make(map[int64][]models.Reaction),
	}
}

func (w *world) addUser(id int64, handle string, globalOwner bool) *models.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	u := &models.User{
		ID:            id,
		Email:         handle + "@example.com",
		NameFirst:     handle,
		NameLast:      "Test",
		Handle:        handle,
		IsGlobalOwner: globalOwner,
		CreatedAt:     time.Now(),
	}
	w.users[id] = u
	return u
}

// addChannel creates a channel whose first member is its owner.
func (w *world) addChannel(id int64, name string, public bool, memberIDs ...int64) {
	w.mu.Lock()
	w.channels[id] = &models.Channel{ID: id, Name: name, IsPublic: public, CreatedAt: time.Now()}
	w.mu.Unlock()
	for i, uid := range memberIDs {
		w.join(id, uid, i == 0)
	}
}

func (w *world) join(channelID, userID int64, owner bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	u := w.users[userID]
	m := models.ChannelMember{ChannelID: channelID, UserID: userID, IsOwner: owner, JoinedAt: time.Now()}
	if u != nil {
		m.NameFirst, m.NameLast, m.Handle = u.NameFirst, u.NameLast, u.Handle
	}
	w.members[channelID] = append(w.members[channelID], m)
}

func (w *world) addMessage(id, channelID, authorID int64, content string) *models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := &models.Message{ID: id, ChannelID: channelID, AuthorID: authorID, Content: content, CreatedAt: time.Now()}
	w.messages[id] = msg
	return msg
}

func (w *world) member(channelID, userID int64) *models.ChannelMember {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range w.members[channelID] {
		if m.UserID == userID {
			return &m
		}
	}
	return nil
}

func (w *world) message(id int64) *models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	if msg, ok := w.messages[id]; ok {
		cp := *msg
		return &cp
	}
	return nil
}

func (w *world) channelMessages(channelID int64) []models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.channelMessagesLocked(channelID)
}

// channelMessagesLocked returns a channel's messages newest first.
func (w *world) channelMessagesLocked(channelID int64) []models.Message {
	var out []models.Message
	for _, msg := range w.messages {
		if msg.ChannelID == channelID {
			out = append(out, *msg)
		}
	}
	slices.SortFunc(out, func(a, b models.Message) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

func (w *world) userRepo() *mockUserRepo {
	find := func(match func(*models.User) bool) *models.User {
		w.mu.Lock()
		defer w.mu.Unlock()
		for _, u := range w.users {
			if match(u) {
				cp := *u
				return &cp
			}
		}
		return nil
	}
	return &mockUserRepo{
		CreateFn: func(_ context.Context, user *models.User) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			if len(w.users) == 0 {
				user.IsGlobalOwner = true
			}
			cp := *user
			w.users[user.ID] = &cp
			return nil
		},
		GetByIDFn: func(_ context.Context, id int64) (*models.User, error) {
			return find(func(u *models.User) bool { return u.ID == id }), nil
		},
		GetByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.Email == email }), nil
		},
		GetByHandleFn: func(_ context.Context, handle string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.Handle == handle }), nil
		},
		ListFn: func(_ context.Context) ([]models.User, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			var out []models.User
			for _, u := range w.users {
				out = append(out, *u)
			}
			slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
			return out, nil
		},
		UpdateFn: func(_ context.Context, user *models.User) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			cp := *user
			w.users[user.ID] = &cp
			return nil
		},
		SetGlobalOwnerFn: func(_ context.Context, id int64, isOwner bool) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			if u, ok := w.users[id]; ok {
				u.IsGlobalOwner = isOwner
			}
			return nil
		},
	}
}

func (w *world) channelRepo() *mockChannelRepo {
	return &mockChannelRepo{
		CreateFn: func(_ context.Context, channel *models.Channel, creatorID int64) error {
			w.mu.Lock()
			cp := *channel
			w.channels[channel.ID] = &cp
			w.mu.Unlock()
			w.join(channel.ID, creatorID, true)
			return nil
		},
		GetByIDFn: func(_ context.Context, id int64) (*models.Channel, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			if ch, ok := w.channels[id]; ok {
				cp := *ch
				return &cp, nil
			}
			return nil, nil
		},
		ListFn: func(_ context.Context) ([]models.Channel, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			var out []models.Channel
			for _, ch := range w.channels {
				out = append(out, *ch)
			}
			slices.SortFunc(out, func(a, b models.Channel) int { return cmp.Compare(a.ID, b.ID) })
			return out, nil
		},
		ListByMemberFn: func(_ context.Context, userID int64) ([]models.Channel, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			var out []models.Channel
			for id, ms := range w.members {
				for _, m := range ms {
					if m.UserID == userID {
						out = append(out, *w.channels[id])
					}
				}
			}
			slices.SortFunc(out, func(a, b models.Channel) int { return cmp.Compare(a.ID, b.ID) })
			return out, nil
		},
		DeleteFn: func(_ context.Context, id int64) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.channels, id)
			delete(w.members, id)
			return nil
		},
	}
}

func (w *world) memberRepo() *mockMemberRepo {
	return &mockMemberRepo{
		GetFn: func(_ context.Context, channelID, userID int64) (*models.ChannelMember, error) {
			return w.member(channelID, userID), nil
		},
		ListByChannelFn: func(_ context.Context, channelID int64) ([]models.ChannelMember, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			return slices.Clone(w.members[channelID]), nil
		},
		AddFn: func(_ context.Context, channelID, userID int64, asOwner bool) (bool, error) {
			if m := w.member(channelID, userID); m != nil {
				if asOwner && !m.IsOwner {
					w.setOwner(channelID, userID, true)
				}
				return false, nil
			}
			w.join(channelID, userID, asOwner)
			return true, nil
		},
		SetOwnerFn: func(_ context.Context, channelID, userID int64, isOwner bool) error {
			w.setOwner(channelID, userID, isOwner)
			return nil
		},
		LeaveFn: func(_ context.Context, channelID, userID int64) (*models.LeaveOutcome, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			ms := w.members[channelID]
			idx := slices.IndexFunc(ms, func(m models.ChannelMember) bool { return m.UserID == userID })
			if idx < 0 {
				return nil, nil
			}

			seats := make([]permissions.Seat, len(ms))
			for i, m := range ms {
				seats[i] = permissions.Seat{UserID: m.UserID, IsOwner: m.IsOwner}
			}
			plan := permissions.PlanLeave(seats, userID)

			w.members[channelID] = slices.Delete(ms, idx, idx+1)
			if plan.DeleteChannel {
				delete(w.channels, channelID)
				delete(w.members, channelID)
				return &models.LeaveOutcome{ChannelDeleted: true}, nil
			}
			if plan.Promote != nil {
				for i := range w.members[channelID] {
					if w.members[channelID][i].UserID == *plan.Promote {
						w.members[channelID][i].IsOwner = true
					}
				}
			}
			return &models.LeaveOutcome{PromotedUserID: plan.Promote}, nil
		},
	}
}

func (w *world) setOwner(channelID, userID int64, isOwner bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.members[channelID] {
		if w.members[channelID][i].UserID == userID {
			w.members[channelID][i].IsOwner = isOwner
		}
	}
}

func (w *world) messageRepo() *mockMessageRepo {
	return &mockMessageRepo{
		CreateFn: func(_ context.Context, msg *models.Message) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			cp := *msg
			w.messages[msg.ID] = &cp
			return nil
		},
		GetByIDFn: func(_ context.Context, id int64) (*models.Message, error) {
			return w.message(id), nil
		},
		ListByChannelFn: func(_ context.Context, channelID int64, offset, limit int) ([]models.Message, error) {
			all := w.channelMessages(channelID)
			if offset >= len(all) {
				return nil, nil
			}
			return all[offset:min(offset+limit, len(all))], nil
		},
		CountByChannelFn: func(_ context.Context, channelID int64) (int, error) {
			return len(w.channelMessages(channelID)), nil
		},
		UpdateContentFn: func(_ context.Context, id int64, content string, editedAt time.Time) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			if msg, ok := w.messages[id]; ok {
				msg.Content = content
				msg.EditedAt = &editedAt
			}
			return nil
		},
		SetPinnedFn: func(_ context.Context, id int64, pinned bool) (bool, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			msg, ok := w.messages[id]
			if !ok || msg.IsPinned == pinned {
				return false, nil
			}
			msg.IsPinned = pinned
			return true, nil
		},
		DeleteFn: func(_ context.Context, id int64) error {
			w.mu.Lock()
			defer w.mu.Unlock()
			delete(w.messages, id)
			delete(w.reactions, id)
			return nil
		},
		SearchFn: func(_ context.Context, userID int64, query string) ([]models.Message, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			var out []models.Message
			for channelID, ms := range w.members {
				if !slices.ContainsFunc(ms, func(m models.ChannelMember) bool { return m.UserID == userID }) {
					continue
				}
				for _, msg := range w.channelMessagesLocked(channelID) {
					if strings.Contains(msg.Content, query) {
						out = append(out, msg)
					}
				}
			}
			slices.SortFunc(out, func(a, b models.Message) int { return cmp.Compare(a.ID, b.ID) })
			return out, nil
		},
	}
}

func (w *world) reactionRepo() *mockReactionRepo {
	return &mockReactionRepo{
		AddFn: func(_ context.Context, messageID int64, reactID int, userID int64) (bool, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			for _, r := range w.reactions[messageID] {
				if r.ReactID == reactID && r.UserID == userID {
					return false, nil
				}
			}
			w.reactions[messageID] = append(w.reactions[messageID], models.Reaction{
				MessageID: messageID, ReactID: reactID, UserID: userID, CreatedAt: time.Now(),
			})
			return true, nil
		},
		RemoveFn: func(_ context.Context, messageID int64, reactID int, userID int64) (bool, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			rs := w.reactions[messageID]
			idx := slices.IndexFunc(rs, func(r models.Reaction) bool { return r.ReactID == reactID && r.UserID == userID })
			if idx < 0 {
				return false, nil
			}
			w.reactions[messageID] = slices.Delete(rs, idx, idx+1)
			return true, nil
		},
		ListByMessagesFn: func(_ context.Context, messageIDs []int64) (map[int64][]models.Reaction, error) {
			w.mu.Lock()
			defer w.mu.Unlock()
			out := make(map[int64][]models.Reaction, len(messageIDs))
			for _, id := range messageIDs {
				if rs := w.reactions[id]; len(rs) > 0 {
					out[id] = slices.Clone(rs)
				}
			}
			return out, nil
		},
	}
}

// ---------------------------------------------------------------------------
// Wired application over the world
// ---------------------------------------------------------------------------

const (
	ownerID   int64 = 100 // global owner, member of nothing
	aliceID   int64 = 200 // owns #general and #secret
	bobID     int64 = 300 // member of #general
	carolID   int64 = 400 // member of nothing
	generalID int64 = 1000
	secretID  int64 = 2000
	missingID int64 = 9999
)

type testApp struct {
	world *world
	gw    *mockGateway

	users     *UserHandler
	admin     *AdminHandler
	channels  *ChannelHandler
	messages  *MessageHandler
	reactions *ReactionHandler
	standups  *StandupHandler
	search    *SearchHandler

	standupSvc *service.StandupService
	messageSvc *service.MessageService
	queue      *redisclient.Client
	fetcher    *fakeFetcher
	store      *fakePhotoStore
}

// newTestApp wires every service over a seeded world.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	w := newWorld()
	w.addUser(ownerID, "owner", true)
	w.addUser(aliceID, "alice", false)
	w.addUser(bobID, "bob", false)
	w.addUser(carolID, "carol", false)
	w.addChannel(generalID, "general", true, aliceID, bobID)
	w.addChannel(secretID, "secret", false, aliceID)

	app := &testApp{
		world:   w,
		gw:      &mockGateway{},
		queue:   newTestRedis(t),
		fetcher: &fakeFetcher{},
		store:   &fakePhotoStore{objects: make(map[string][]byte)},
	}

	sf := testSnowflake()
	users, channels, members := w.userRepo(), w.channelRepo(), w.memberRepo()
	messages, reactions := w.messageRepo(), w.reactionRepo()
	perms := service.NewPermissionChecker(users, channels, members)

	app.standupSvc = service.NewStandupService(channels, messages, sf, app.gw, perms)
	t.Cleanup(app.standupSvc.Shutdown)
	channelSvc := service.NewChannelService(channels, members, sf, app.gw, perms, app.standupSvc)
	app.messageSvc = service.NewMessageService(messages, reactions, channels, sf, app.gw, perms, app.queue)

	app.users = NewUserHandler(
		service.NewUserService(users, app.gw),
		service.NewPhotoService(users, app.fetcher, app.store, app.gw),
		channelSvc,
	)
	app.admin = NewAdminHandler(service.NewAdminService(users, app.gw, perms))
	app.channels = NewChannelHandler(channelSvc)
	app.messages = NewMessageHandler(app.messageSvc)
	app.reactions = NewReactionHandler(service.NewReactionService(messages, reactions, app.gw, perms))
	app.standups = NewStandupHandler(app.standupSvc)
	app.search = NewSearchHandler(service.NewSearchService(messages, reactions))
	return app
}

// call runs handler as userID. params alternate names and values.
func call(t *testing.T, handler echo.HandlerFunc, method string, userID int64, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c, rec := newTestContext(method, "/", reader)
	setParams(c, params...)
	setAuthUser(c, userID)
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

// expectError fails unless rec carries status and, if given, the error code.
func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if code == "" {
		return
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errResp.Error.Code != code {
		t.Errorf("expected error code %q, got %q", code, errResp.Error.Code)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

type fakePhotoStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

const fakeStoreBase = "http://storage.test/flockr/"

func (s *fakePhotoStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return fakeStoreBase + key, nil
}

func (s *fakePhotoStore) KeyFromURL(url string) string {
	key, _ := strings.CutPrefix(url, fakeStoreBase)
	if key == url {
		return ""
	}
	return key
}

func (s *fakePhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}
