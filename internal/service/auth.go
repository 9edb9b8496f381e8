package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Ry1and/flockr/internal/auth"
	"github.com/Ry1and/flockr/internal/database"
	"github.com/Ry1and/flockr/internal/gateway"
	"github.com/Ry1and/flockr/internal/mail"
	"github.com/Ry1and/flockr/internal/models"
	"github.com/Ry1and/flockr/internal/redis"
	"github.com/Ry1and/flockr/internal/snowflake"
)

const (
	// ResetCodeTTL bounds how long an emailed reset code stays usable.
	ResetCodeTTL = time.Hour

	maxHandleAttempts = 1000
	maxResetAttempts  = 5
)

// AuthResult holds the session opened by registration or login.
type AuthResult struct {
	UserID int64  `json:"u_id,string"`
	Token  string `json:"token"`
}

// AuthService handles registration, login, logout and password resets.
type AuthService struct {
	users     database.UserRepository
	tokens    *auth.TokenService
	redis     *redis.Client
	snowflake *snowflake.Generator
	mailer    mail.Sender
	gateway   gateway.Dispatcher
}

// NewAuthService creates an AuthService.
func NewAuthService(
	users database.UserRepository,
	tokens *auth.TokenService,
	redis *redis.Client,
	sf *snowflake.Generator,
	mailer mail.Sender,
	gw gateway.Dispatcher,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		redis:     redis,
		snowflake: sf,
		mailer:    mailer,
		gateway:   gw,
	}
}

// Register creates a new user and opens a session for them.
func (s *AuthService) Register(ctx context.Context, email, password, nameFirst, nameLast string) (*AuthResult, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateNames(nameFirst, nameLast); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, internalError("users.GetByEmail", err)
	}
	if existing != nil {
		return nil, Conflict("EMAIL_TAKEN", "email address is already in use")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, internalError("auth.HashPassword", err)
	}

	user := &models.User{
		ID:           s.snowflake.Generate().Int64(),
		Email:        email,
		NameFirst:    nameFirst,
		NameLast:     nameLast,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	base := baseHandle(nameFirst, nameLast)
	for attempt := 0; ; attempt++ {
		if attempt >= maxHandleAttempts {
			return nil, internalError("users.Create", fmt.Errorf("no free handle for %q after %d attempts", base, maxHandleAttempts))
		}
		handle, err := s.freeHandle(ctx, base)
		if err != nil {
			return nil, internalError("freeHandle", err)
		}
		user.Handle = handle

		err = s.users.Create(ctx, user)
		if err == nil {
			break
		}
		switch {
		case database.IsUniqueViolation(err, database.ConstraintUserEmail):
			return nil, Conflict("EMAIL_TAKEN", "email address is already in use")
		case database.IsUniqueViolation(err, database.ConstraintUserHandle):
			// Someone registered the same handle between the lookup and the insert.
			continue
		default:
			return nil, internalError("users.Create", err)
		}
	}

	return s.openSession(ctx, user.ID)
}

// Login checks credentials and opens a new session, ending any previous one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, internalError("users.GetByEmail", err)
	}
	if user == nil {
		return nil, BadRequest("INVALID_CREDENTIALS", "invalid email or password")
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, BadRequest("INVALID_CREDENTIALS", "invalid email or password")
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			user.PasswordHash = hash
			if err := s.users.Update(ctx, user); err != nil {
				slog.Warn("password rehash failed", "userID", user.ID, "error", err)
			}
		}
	}

	return s.openSession(ctx, user.ID)
}

// Logout ends the given session.
func (s *AuthService) Logout(ctx context.Context, sessionID string, userID int64) error {
	if err := s.redis.DeleteSession(ctx, sessionID); err != nil {
		if errors.Is(err, redis.ErrSessionNotFound) {
			return Unauthorized("INVALID_SESSION", "session is not active")
		}
		return internalError("redis.DeleteSession", err)
	}
	s.gateway.DisconnectUser(userID)
	return nil
}

// RequestPasswordReset emails a reset code to the account with the given
// email, if there is one. The outcome is the same either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return internalError("users.GetByEmail", err)
	}
	if user == nil {
		return nil
	}

	code, err := s.resetCodeFor(ctx, email)
	if err != nil {
		return internalError("resetCodeFor", err)
	}

	body := fmt.Sprintf("Hi %s,\n\nYour Flockr password reset code is %s. It expires in %s.\n",
		user.NameFirst, code, ResetCodeTTL)
	if err := s.mailer.Send(ctx, email, "Flockr password reset", body); err != nil {
		slog.Error("send reset code", "userID", user.ID, "error", err)
	}
	return nil
}

// ResetPassword consumes a reset code, sets the new password and ends every
// session of the account.
func (s *AuthService) ResetPassword(ctx context.Context, code, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	email, err := s.redis.ConsumeResetCode(ctx, code)
	if err != nil {
		if errors.Is(err, redis.ErrResetCodeNotFound) {
			return BadRequest("INVALID_RESET_CODE", "reset code is not valid")
		}
		return internalError("redis.ConsumeResetCode", err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return internalError("users.GetByEmail", err)
	}
	if user == nil {
		return BadRequest("INVALID_RESET_CODE", "reset code is not valid")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return internalError("auth.HashPassword", err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return internalError("users.Update", err)
	}

	if err := s.redis.DeleteUserSessions(ctx, user.ID); err != nil {
		return internalError("redis.DeleteUserSessions", err)
	}
	s.gateway.DisconnectUser(user.ID)
	return nil
}

func (s *AuthService) openSession(ctx context.Context, userID int64) (*AuthResult, error) {
	token, sessionID, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, internalError("tokens.Issue", err)
	}

	previous, err := s.redis.CreateSession(ctx, userID, sessionID, s.tokens.TTL())
	if err != nil {
		return nil, internalError("redis.CreateSession", err)
	}
	if previous != "" {
		s.gateway.DisconnectUser(userID)
	}

	return &AuthResult{UserID: userID, Token: token}, nil
}

func (s *AuthService) resetCodeFor(ctx context.Context, email string) (string, error) {
	code, err := s.redis.ResetCodeForEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if code != "" {
		return code, nil
	}

	for range maxResetAttempts {
		code, err := auth.GenerateResetCode()
		if err != nil {
			return "", err
		}
		stored, err := s.redis.StoreResetCode(ctx, code, email, ResetCodeTTL)
		if err != nil {
			return "", err
		}
		if stored {
			return code, nil
		}
	}
	return "", errors.New("no free reset code")
}

// freeHandle returns base, or base with its tail replaced by the smallest
// numeric suffix that makes it unused.
func (s *AuthService) freeHandle(ctx context.Context, base string) (string, error) {
	for n := 0; n < maxHandleAttempts; n++ {
		candidate := handleWithSuffix(base, n)
		existing, err := s.users.GetByHandle(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", errors.New("no free handle")
}

// baseHandle is the lowercased concatenation of both names, at most
// maxHandleLen runes long.
func baseHandle(nameFirst, nameLast string) string {
	handle := []rune(strings.ToLower(nameFirst + nameLast))
	if len(handle) > maxHandleLen {
		handle = handle[:maxHandleLen]
	}
	return string(handle)
}

func handleWithSuffix(base string, n int) string {
	if n == 0 {
		return base
	}
	suffix := strconv.Itoa(n)
	runes := []rune(base)
	if keep := maxHandleLen - len(suffix); len(runes) > keep {
		runes = runes[:keep]
	}
	return string(runes) + suffix
}
