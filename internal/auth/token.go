package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification failures. Callers that gate requests should
// collapse both into a generic unauthorized response so the
// signature/expiry distinction never reaches the client.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// TokenKind distinguishes the two token namespaces. Each kind is
// signed with its own secret, so an access token can never pass
// refresh verification or vice versa.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// TokenManager issues and validates the JWT pair bound to a user id.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager builds a manager with minutes-scale access and
// days-scale refresh lifetimes.
func NewTokenManager(accessSecret, refreshSecret string, accessTTLMinutes, refreshTTLDays int) *TokenManager {
	if accessTTLMinutes <= 0 {
		accessTTLMinutes = 15
	}
	if refreshTTLDays <= 0 {
		refreshTTLDays = 7
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     time.Duration(accessTTLMinutes) * time.Minute,
		refreshTTL:    time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

// Claims describes the JWT payload.
type Claims struct {
	Kind TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs a short-lived access token for the user.
func (tm *TokenManager) IssueAccessToken(userID string) (string, time.Time, error) {
	return tm.issue(userID, KindAccess, tm.accessSecret, tm.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the user.
func (tm *TokenManager) IssueRefreshToken(userID string) (string, time.Time, error) {
	return tm.issue(userID, KindRefresh, tm.refreshSecret, tm.refreshTTL)
}

func (tm *TokenManager) issue(userID string, kind TokenKind, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			// The jti keeps two tokens for the same user distinct even
			// when issued within the same second.
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// VerifyAccessToken validates an access token and returns the embedded
// user id. It performs no database lookup; resolving the user is the
// caller's job.
func (tm *TokenManager) VerifyAccessToken(tokenStr string) (string, error) {
	return tm.verify(tokenStr, KindAccess, tm.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns the
// embedded user id.
func (tm *TokenManager) VerifyRefreshToken(tokenStr string) (string, error) {
	return tm.verify(tokenStr, KindRefresh, tm.refreshSecret)
}

func (tm *TokenManager) verify(tokenStr string, kind TokenKind, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Kind != kind || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
