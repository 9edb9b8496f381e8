package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrResetCodeNotFound is returned when a reset code is unknown or expired.
	ErrResetCodeNotFound = errors.New("reset code not found")
)

// createSessionScript replaces a user's session with a new one.
// KEYS: session:<new>, user_session:<uid>. ARGV: uid, new id, ttl ms, session prefix.
var createSessionScript = goredis.NewScript(`
local old = redis.call("GET", KEYS[2])
if old then
    redis.call("DEL", ARGV[4] .. old)
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return old or ""
`)

// deleteSessionScript removes a session and its reverse index.
// KEYS: session:<id>. ARGV: id, user_session prefix.
var deleteSessionScript = goredis.NewScript(`
local uid = redis.call("GET", KEYS[1])
if not uid then
    return 0
end
redis.call("DEL", KEYS[1])
local ukey = ARGV[2] .. uid
if redis.call("GET", ukey) == ARGV[1] then
    redis.call("DEL", ukey)
end
return 1
`)

// deleteUserSessionScript removes whatever session a user holds.
// KEYS: user_session:<uid>. ARGV: session prefix.
var deleteUserSessionScript = goredis.NewScript(`
local sid = redis.call("GET", KEYS[1])
if not sid then
    return 0
end
redis.call("DEL", ARGV[1] .. sid)
redis.call("DEL", KEYS[1])
return 1
`)

// CreateSession stores sessionID for userID and invalidates the user's
// previous session, if any. It returns the replaced session id.
func (c *Client) CreateSession(ctx context.Context, userID int64, sessionID string, ttl time.Duration) (string, error) {
	uid := strconv.FormatInt(userID, 10)
	old, err := createSessionScript.Run(ctx, c.rdb,
		[]string{sessionPrefix + sessionID, userSessionPrefix + uid},
		uid, sessionID, ttl.Milliseconds(), sessionPrefix,
	).Text()
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return old, nil
}

// SessionUserID resolves a session id to its user.
func (c *Client) SessionUserID(ctx context.Context, sessionID string) (int64, error) {
	val, err := c.rdb.Get(ctx, sessionPrefix+sessionID).Result()
	if err == goredis.Nil {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("getting session: %w", err)
	}
	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing user ID: %w", err)
	}
	return userID, nil
}

// DeleteSession ends a session. It returns ErrSessionNotFound when there was
// nothing to end.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	n, err := deleteSessionScript.Run(ctx, c.rdb,
		[]string{sessionPrefix + sessionID}, sessionID, userSessionPrefix,
	).Int()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteUserSessions ends the session a user currently holds, if any.
func (c *Client) DeleteUserSessions(ctx context.Context, userID int64) error {
	err := deleteUserSessionScript.Run(ctx, c.rdb,
		[]string{userSessionPrefix + strconv.FormatInt(userID, 10)}, sessionPrefix,
	).Err()
	if err != nil {
		return fmt.Errorf("deleting user session: %w", err)
	}
	return nil
}

// storeResetCodeScript claims a reset code for an email unless the code is taken.
// KEYS: reset_code:<code>, reset_email:<email>. ARGV: email, code, ttl ms.
var storeResetCodeScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
    return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// consumeResetCodeScript deletes a reset code and returns its email.
// KEYS: reset_code:<code>. ARGV: reset_email prefix.
var consumeResetCodeScript = goredis.NewScript(`
local email = redis.call("GET", KEYS[1])
if not email then
    return ""
end
redis.call("DEL", KEYS[1])
redis.call("DEL", ARGV[1] .. email)
return email
`)

// ResetCodeForEmail returns the pending reset code for an email, or "".
func (c *Client) ResetCodeForEmail(ctx context.Context, email string) (string, error) {
	val, err := c.rdb.Get(ctx, resetEmailPrefix+email).Result()
	if err == goredis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting reset code: %w", err)
	}
	return val, nil
}

// StoreResetCode associates code with email. It reports false if the code is
// already in use so the caller can draw another.
func (c *Client) StoreResetCode(ctx context.Context, code, email string, ttl time.Duration) (bool, error) {
	n, err := storeResetCodeScript.Run(ctx, c.rdb,
		[]string{resetCodePrefix + code, resetEmailPrefix + email},
		email, code, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("storing reset code: %w", err)
	}
	return n == 1, nil
}

// ConsumeResetCode removes a reset code and returns the email it was issued for.
func (c *Client) ConsumeResetCode(ctx context.Context, code string) (string, error) {
	email, err := consumeResetCodeScript.Run(ctx, c.rdb,
		[]string{resetCodePrefix + code}, resetEmailPrefix,
	).Text()
	if err != nil {
		return "", fmt.Errorf("consuming reset code: %w", err)
	}
	if email == "" {
		return "", ErrResetCodeNotFound
	}
	return email, nil
}
