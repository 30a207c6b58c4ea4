package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndValidate(t *testing.T) {
	m, err := NewTokenManager(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	access, err := m.IssueAccess("alice")
	require.NoError(t, err)
	claims, err := m.Validate(access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice", claims.Subject)

	refresh, err := m.IssueRefresh("alice")
	require.NoError(t, err)
	claims, err = m.Validate(refresh, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.Type)
}

func TestValidate_EdgeCases(t *testing.T) {
	m, err := NewTokenManager(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	{
		refresh, _ := m.IssueRefresh("alice")
		_, err := m.Validate(refresh, TokenTypeAccess)
		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, apierr.From(err).Code)
		assert.Equal(t, MsgAccessOnly, apierr.From(err).Message)
	}

	{
		access, _ := m.IssueAccess("alice")
		_, err := m.Validate(access, TokenTypeRefresh)
		assert.Equal(t, MsgRefreshOnly, apierr.From(err).Message)
	}

	{
		expired, err := NewTokenManager(testSecret, -time.Minute, time.Hour)
		require.NoError(t, err)
		token, _ := expired.IssueAccess("alice")
		_, err = m.Validate(token, TokenTypeAccess)
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, apierr.From(err).Code)
		assert.Equal(t, MsgTokenExpired, apierr.From(err).Message)
	}

	{
		other, _ := NewTokenManager("another-secret-another-secret", time.Minute, time.Hour)
		token, _ := other.IssueAccess("alice")
		_, err := m.Validate(token, TokenTypeAccess)
		assert.True(t, apierr.IsValidation(err), "a token signed with another key is rejected")
	}

	{
		_, err := m.Validate("not.a.token", TokenTypeAccess)
		assert.True(t, apierr.IsValidation(err))
	}

	{
		// alg confusion
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "mallory", Type: TokenTypeAccess})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Validate(signed, TokenTypeAccess)
		assert.True(t, apierr.IsValidation(err))
	}

	{
		_, err := NewTokenManager("", time.Minute, time.Hour)
		assert.Error(t, err)
	}
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = BearerToken("")
	assert.Equal(t, http.StatusUnauthorized, apierr.From(err).Code)
	assert.Equal(t, MsgMissingAuthHeader, apierr.From(err).Message)

	_, err = BearerToken("Basic YWxpY2U6cHc=")
	assert.Equal(t, http.StatusUnprocessableEntity, apierr.From(err).Code)

	_, err = BearerToken("Bearer ")
	assert.True(t, apierr.IsValidation(err))
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	username, ok := IdentityFrom(WithIdentity(context.Background(), "alice"))
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
}
