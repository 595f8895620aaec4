package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestNewAccessToken(t *testing.T) {
    tok, err := NewAccessToken("s3cret", "admin", RoleAdmin, 15*time.Minute)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

    parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
    require.NoError(t, err)
    claims := parsed.Claims.(jwt.MapClaims)
    assert.Equal(t, "admin", claims["sub"])
    assert.Equal(t, RoleAdmin, claims["role"])

    _, err = jwt.Parse(tok.Token, func(*jwt.Token) (interface{}, error) { return []byte("other"), nil })
    assert.Error(t, err)
}

func TestNewAccessTokenRequiresSecret(t *testing.T) {
    _, err := NewAccessToken("", "admin", RoleAdmin, time.Minute)
    assert.Error(t, err)
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("clave-segura", bcrypt.MinCost)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "clave-segura"))
    assert.False(t, VerifyPassword(hash, "otra"))
    assert.False(t, VerifyPassword("not-a-hash", "clave-segura"))
}
