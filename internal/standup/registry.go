// Package standup runs timed standups that batch channel messages into a
// single summary post.
package standup

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	ErrAlreadyActive = errors.New("a standup is already running in this channel")
	ErrNotActive     = errors.New("no standup is running in this channel")
)

// Summary is what a standup produced when it finished.
type Summary struct {
	ChannelID int64
	StarterID int64
	// Content is the buffered lines joined as "handle: message", one per
	// line. It is empty when nobody spoke.
	Content string
}

// FinishFunc is called once per standup after it leaves the registry.
type FinishFunc func(ctx context.Context, s Summary)

type line struct {
	handle  string
	message string
}

type session struct {
	starterID int64
	finish    time.Time
	lines     []line
	timer     *time.Timer
}

// Registry tracks the active standup of each channel.
type Registry struct {
	mu       sync.Mutex
	active   map[int64]*session
	onFinish FinishFunc
	now      func() time.Time
}

// NewRegistry creates an empty Registry. onFinish runs on the timer goroutine.
func NewRegistry(onFinish FinishFunc) *Registry {
	return &Registry{
		active:   make(map[int64]*session),
		onFinish: onFinish,
		now:      time.Now,
	}
}

// Start begins a standup in channelID lasting length and returns when it ends.
func (r *Registry) Start(channelID, starterID int64, length time.Duration) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[channelID]; ok {
		return time.Time{}, ErrAlreadyActive
	}

	s := &session{starterID: starterID, finish: r.now().Add(length)}
	s.timer = time.AfterFunc(length, func() { r.finish(channelID, s) })
	r.active[channelID] = s

	slog.Info("standup started", "channelID", channelID, "starterID", starterID, "finish", s.finish)
	return s.finish, nil
}

// Active reports whether a standup is running in channelID and when it ends.
func (r *Registry) Active(channelID int64) (bool, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.active[channelID]; ok {
		return true, s.finish
	}
	return false, time.Time{}
}

// Send appends a line to the running standup of channelID.
func (r *Registry) Send(channelID int64, handle, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.active[channelID]
	if !ok {
		return ErrNotActive
	}
	s.lines = append(s.lines, line{handle: handle, message: message})
	return nil
}

// Cancel discards the standup of channelID without posting anything.
func (r *Registry) Cancel(channelID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.active[channelID]
	if !ok {
		return false
	}
	s.timer.Stop()
	delete(r.active, channelID)
	return true
}

// CancelAll discards every running standup. Used on shutdown.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.active {
		s.timer.Stop()
		delete(r.active, id)
	}
}

func (r *Registry) finish(channelID int64, s *session) {
	r.mu.Lock()
	if r.active[channelID] != s {
		// Cancelled, or replaced after a cancel.
		r.mu.Unlock()
		return
	}
	delete(r.active, channelID)
	lines := s.lines
	r.mu.Unlock()

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.handle)
		b.WriteString(": ")
		b.WriteString(l.message)
	}

	slog.Info("standup finished", "channelID", channelID, "lines", len(lines))

	if r.onFinish != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		r.onFinish(ctx, Summary{ChannelID: channelID, StarterID: s.starterID, Content: b.String()})
	}
}
