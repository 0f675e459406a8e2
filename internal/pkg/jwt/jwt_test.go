package jwt_test

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/vitaldash/vitaldash/internal/pkg/jwt"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := jwt.GenerateToken("user-1", "a@b.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := jwt.ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "a@b.com", claims.Email)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := jwt.GenerateToken("user-1", "a@b.com", []byte("secret-a"), time.Hour)
	require.NoError(t, err)

	_, err = jwt.ParseToken(token, []byte("secret-b"))
	require.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := jwt.GenerateToken("user-1", "a@b.com", []byte("secret"), -time.Minute)
	require.NoError(t, err)

	_, err = jwt.ParseToken(token, []byte("secret"))
	require.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := jwt.ParseToken("not-a-token", []byte("secret"))
	require.Error(t, err)
}

func TestParseTokenForeignIssuer(t *testing.T) {
	secret := []byte("secret")
	foreign := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"user_id": "user-1",
		"iss":     "someone-else",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	token, err := foreign.SignedString(secret)
	require.NoError(t, err)

	_, err = jwt.ParseToken(token, secret)
	require.Error(t, err)
}

func TestParseTokenMissingAccountID(t *testing.T) {
	secret := []byte("secret")
	anonymous := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"iss": jwt.Issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := anonymous.SignedString(secret)
	require.NoError(t, err)

	_, err = jwt.ParseToken(token, secret)
	require.Error(t, err)
}
