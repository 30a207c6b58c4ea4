package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	MsgMissingAuthHeader = "Missing Authorization Header"
	MsgBadAuthHeader     = "Bad Authorization header. Expected 'Authorization: Bearer <JWT>'"
	MsgTokenExpired      = "Token has expired"
	MsgAccessOnly        = "Only non-refresh tokens are allowed"
	MsgRefreshOnly       = "Only refresh tokens are allowed"
)

type Claims struct {
	Username string    `json:"username"`
	Type     TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 access and refresh tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required but was empty")
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (m *TokenManager) IssueAccess(username string) (string, error) {
	return m.issue(username, TokenTypeAccess, m.accessTTL)
}

func (m *TokenManager) IssueRefresh(username string) (string, error) {
	return m.issue(username, TokenTypeRefresh, m.refreshTTL)
}

func (m *TokenManager) issue(username string, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, expiry and token type. Expired tokens are
// authentication errors (401); anything malformed or of the wrong type is a
// validation error (422).
func (m *TokenManager) Validate(tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierr.NewAuthError(MsgTokenExpired, err)
		}
		return nil, apierr.NewValidationError(err.Error(), err)
	}

	if claims.Type != want {
		if want == TokenTypeRefresh {
			return nil, apierr.NewValidationError(MsgRefreshOnly, nil)
		}
		return nil, apierr.NewValidationError(MsgAccessOnly, nil)
	}
	if claims.Username == "" {
		return nil, apierr.NewValidationError("Token carries no identity", nil)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apierr.NewAuthError(MsgMissingAuthHeader, nil)
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apierr.NewValidationError(MsgBadAuthHeader, nil)
	}
	return strings.TrimSpace(token), nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, identityKey{}, username)
}

func IdentityFrom(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(identityKey{}).(string)
	return username, ok && username != ""
}
