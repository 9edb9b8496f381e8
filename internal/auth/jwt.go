package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a login lasts when no TTL is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Claims defines the JWT payload for session tokens. The session id travels
// in the registered "jti" claim.
type Claims struct {
	UserID int64 `json:"user_id,string"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token belongs to.
func (c *Claims) SessionID() string { return c.ID }

// TokenService signs and validates session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given HMAC secret. A zero
// ttl selects DefaultSessionTTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// TTL returns the lifetime of issued tokens.
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue creates a signed token for a fresh session and returns it with the
// session id.
func (ts *TokenService) Issue(userID int64) (token, sessionID string, err error) {
	sessionID = uuid.NewString()
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", "", fmt.Errorf("signing token: %w", err)
	}
	return signed, sessionID, nil
}

// Validate parses and validates a token, returning the claims.
func (ts *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token has no session id")
	}
	return claims, nil
}

const resetCodeAlphabet = "0123456789"

// ResetCodeLength is the number of digits in a password reset code.
const ResetCodeLength = 6

// GenerateResetCode returns a random numeric code.
func GenerateResetCode() (string, error) {
	b := make([]byte, ResetCodeLength)
	limit := big.NewInt(int64(len(resetCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generating reset code: %w", err)
		}
		b[i] = resetCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}
