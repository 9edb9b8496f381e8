package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ry1and/flockr/internal/models"
	goredis "github.com/redis/go-redis/v9"
)

// popDueScript removes and returns up to ARGV[2] members scored at or below ARGV[1].
var popDueScript = goredis.NewScript(`
local items = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, ARGV[2])
if #items > 0 then
    redis.call("ZREM", KEYS[1], unpack(items))
end
return items
`)

// ScheduleMessage queues a message for delivery at msg.CreatedAt.
func (c *Client) ScheduleMessage(ctx context.Context, msg *models.Message) error {
	return c.scheduleAt(ctx, msg, msg.CreatedAt)
}

// RequeueMessage puts a popped message back to be retried at at. The message
// keeps its original CreatedAt.
func (c *Client) RequeueMessage(ctx context.Context, msg *models.Message, at time.Time) error {
	return c.scheduleAt(ctx, msg, at)
}

func (c *Client) scheduleAt(ctx context.Context, msg *models.Message, at time.Time) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding scheduled message: %w", err)
	}
	err = c.rdb.ZAdd(ctx, scheduledKey, goredis.Z{
		Score:  float64(at.UnixMilli()),
		Member: string(data),
	}).Err()
	if err != nil {
		return fmt.Errorf("scheduling message: %w", err)
	}
	return nil
}

// PopDueMessages removes and returns up to limit messages due at or before now,
// earliest first.
func (c *Client) PopDueMessages(ctx context.Context, now time.Time, limit int) ([]models.Message, error) {
	items, err := popDueScript.Run(ctx, c.rdb, []string{scheduledKey}, now.UnixMilli(), limit).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("popping scheduled messages: %w", err)
	}

	msgs := make([]models.Message, 0, len(items))
	for _, item := range items {
		var m models.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			slog.Error("dropping undecodable scheduled message", "error", err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// PendingScheduled returns how many messages are waiting for delivery.
func (c *Client) PendingScheduled(ctx context.Context) (int64, error) {
	return c.rdb.ZCard(ctx, scheduledKey).Result()
}
