package tokens

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-jwt-secret")

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(15 * time.Minute)
	tok, err := CreateAccessToken("42", "a@example.com", exp, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessToken_Rejected(t *testing.T) {
	t.Parallel()

	expired, err := CreateAccessToken("42", "", time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, secret)
	assert.Error(t, err)

	good, err := CreateAccessToken("42", "", time.Now().Add(time.Minute), secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(good, []byte("other"))
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{})
	signed, err := none.SignedString(secret)
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(signed, secret)
	assert.Error(t, err, "only HS256 is accepted")
}

func TestCookies(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour)
	c := CreateCookie(AccessCookieName, "v", "/", exp)
	assert.Equal(t, "accessToken", c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	d := DeleteCookie(AccessCookieName, "/")
	assert.Empty(t, d.Value)
	assert.Equal(t, -1, d.MaxAge)
}
