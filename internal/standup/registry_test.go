package standup

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	summaries []Summary
}

func (r *recorder) finish(_ context.Context, s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

func (r *recorder) all() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Summary(nil), r.summaries...)
}

func TestRegistry_StartAndFinish(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry(rec.finish)

	finish, err := r.Start(1, 42, 30*time.Millisecond)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Millisecond), finish, 20*time.Millisecond)

	active, at := r.Active(1)
	assert.True(t, active)
	assert.Equal(t, finish, at)

	require.NoError(t, r.Send(1, "adalovelace", "finished the parser"))
	require.NoError(t, r.Send(1, "alanturing", "reviewing PRs"))

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)

	got := rec.all()[0]
	assert.Equal(t, int64(1), got.ChannelID)
	assert.Equal(t, int64(42), got.StarterID)
	assert.Equal(t, "adalovelace: finished the parser\nalanturing: reviewing PRs", got.Content)

	active, _ = r.Active(1)
	assert.False(t, active, "standup should leave the registry when it ends")
}

func TestRegistry_EmptyStandupHasNoContent(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry(rec.finish)

	_, err := r.Start(1, 42, 10*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.all()[0].Content)
}

func TestRegistry_OnePerChannel(t *testing.T) {
	r := NewRegistry(nil)
	t.Cleanup(r.CancelAll)

	_, err := r.Start(1, 42, time.Minute)
	require.NoError(t, err)

	_, err = r.Start(1, 7, time.Minute)
	assert.ErrorIs(t, err, ErrAlreadyActive)

	_, err = r.Start(2, 7, time.Minute)
	assert.NoError(t, err, "other channels are independent")
}

func TestRegistry_SendWithoutStandup(t *testing.T) {
	r := NewRegistry(nil)
	assert.ErrorIs(t, r.Send(1, "ada", "hello"), ErrNotActive)

	active, at := r.Active(1)
	assert.False(t, active)
	assert.True(t, at.IsZero())
}

func TestRegistry_CancelSuppressesSummary(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry(rec.finish)

	_, err := r.Start(1, 42, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, r.Send(1, "ada", "hello"))

	assert.True(t, r.Cancel(1))
	assert.False(t, r.Cancel(1))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.all())

	_, err = r.Start(1, 42, time.Minute)
	assert.NoError(t, err, "channel is free again after cancel")
	r.CancelAll()
}

func TestRegistry_ConcurrentSend(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry(rec.finish)

	_, err := r.Start(1, 42, 50*time.Millisecond)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Send(1, "ada", "x")
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, strings.Split(rec.all()[0].Content, "\n"), 20)
}
