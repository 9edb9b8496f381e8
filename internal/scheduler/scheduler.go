// Package scheduler delivers messages that were queued for a later time.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Ry1and/flockr/internal/models"
)

const (
	DefaultInterval = time.Second
	batchSize       = 100

	// A message whose delivery fails is put back and tried again after
	// retryDelay, up to maxAttempts times in total.
	retryDelay  = 5 * time.Second
	maxAttempts = 5
)

// Queue yields messages whose delivery time has passed. Popped messages are
// gone from the queue until they are requeued.
type Queue interface {
	PopDueMessages(ctx context.Context, now time.Time, limit int) ([]models.Message, error)
	RequeueMessage(ctx context.Context, msg *models.Message, at time.Time) error
}

// DeliverFunc posts one due message.
type DeliverFunc func(ctx context.Context, msg *models.Message) error

// Poller periodically drains the queue and hands due messages to a DeliverFunc.
type Poller struct {
	queue    Queue
	deliver  DeliverFunc
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	attempts map[int64]int // messageID → failed deliveries so far
}

// NewPoller creates a Poller. A non-positive interval selects DefaultInterval.
func NewPoller(queue Queue, deliver DeliverFunc, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		queue:    queue,
		deliver:  deliver,
		interval: interval,
		now:      time.Now,
		attempts: make(map[int64]int),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.Info("scheduled message poller started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduled message poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Tick(ctx); err != nil {
				slog.Error("polling scheduled messages", "error", err)
			}
		}
	}
}

// Tick delivers every message that is due now and returns how many were
// handed off. A failed delivery is requeued for a later Tick and does not
// stop the batch.
func (p *Poller) Tick(ctx context.Context) (int, error) {
	delivered := 0
	for {
		now := p.now()
		msgs, err := p.queue.PopDueMessages(ctx, now, batchSize)
		if err != nil {
			return delivered, err
		}
		for i := range msgs {
			msg := &msgs[i]
			if err := p.deliver(ctx, msg); err != nil {
				p.retry(ctx, msg, now, err)
				continue
			}
			p.forget(msg.ID)
			delivered++
		}
		if len(msgs) < batchSize {
			return delivered, nil
		}
	}
}

// retry puts msg back on the queue after a failed delivery, or drops it once
// it has failed maxAttempts times.
func (p *Poller) retry(ctx context.Context, msg *models.Message, now time.Time, cause error) {
	p.mu.Lock()
	p.attempts[msg.ID]++
	attempt := p.attempts[msg.ID]
	p.mu.Unlock()

	log := slog.With("messageID", msg.ID, "channelID", msg.ChannelID, "attempt", attempt, "error", cause)
	if attempt >= maxAttempts {
		log.Error("dropping scheduled message after repeated delivery failures")
		p.forget(msg.ID)
		return
	}

	log.Warn("delivering scheduled message failed, will retry", "retryIn", retryDelay)
	if err := p.queue.RequeueMessage(ctx, msg, now.Add(retryDelay)); err != nil {
		log.Error("requeueing scheduled message", "requeueError", err)
		p.forget(msg.ID)
	}
}

func (p *Poller) forget(messageID int64) {
	p.mu.Lock()
	delete(p.attempts, messageID)
	p.mu.Unlock()
}
