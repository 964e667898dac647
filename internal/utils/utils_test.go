package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestAccessTokenRoundTrip(t *testing.T) {
	token, jti, err := GenerateAccessToken(secret, 42, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := VerifyJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerifyJWTRejects(t *testing.T) {
	token, _, err := GenerateAccessToken(secret, 1, time.Hour)
	require.NoError(t, err)
	_, err = VerifyJWT(token, []byte("other"))
	assert.Error(t, err)

	expired, _, err := GenerateAccessToken(secret, 1, -time.Minute)
	require.NoError(t, err)
	_, err = VerifyJWT(expired, secret)
	assert.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = VerifyJWT(none, secret)
	assert.Error(t, err)
}

func TestClaimsUserID(t *testing.T) {
	for _, sub := range []string{"", "abc", "0", "-3"} {
		c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}
		_, err := c.UserID()
		assert.Error(t, err, sub)
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 17 ")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, s := range []string{"", "0", "-1", "x1"} {
		_, err := ParseID(s)
		assert.Error(t, err, s)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "online-shop", Slugify("Online Shop"))
	assert.Equal(t, "crm-v2", Slugify("  CRM / v2!! "))
	assert.Equal(t, "database", Slugify("---"))
	assert.False(t, strings.HasPrefix(Slugify("_a"), "-"))
}
