package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)

	assert.NoError(t, ComparePasswords(hash, "secret"))
	assert.Error(t, ComparePasswords(hash, "Secret"))

	other, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "соль должна отличаться")
}

func TestGenerateInviteToken(t *testing.T) {
	token, err := GenerateInviteToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 32)
	assert.Regexp(t, `^[a-zA-Z0-9]{32}$`, token)

	another, err := GenerateInviteToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, another)
}

func TestSessionCookie(t *testing.T) {
	dev := NewSessionCookie("tok", time.Hour, false)
	assert.Equal(t, "access_token", dev.Name)
	assert.Equal(t, "tok", dev.Value)
	assert.True(t, dev.HttpOnly)
	assert.False(t, dev.Secure)
	assert.Equal(t, 3600, dev.MaxAge)

	prod := NewSessionCookie("tok", time.Hour, true)
	assert.True(t, prod.Secure)

	cleared := ClearSessionCookie(false)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestParseBirthdate(t *testing.T) {
	for _, in := range []string{"1990-05-17", "17.05.1990", "17/05/1990"} {
		got, err := ParseBirthdate(in)
		require.NoError(t, err, in)
		assert.Equal(t, time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC), got)
	}

	_, err := ParseBirthdate("завтра")
	assert.Error(t, err)

	future := time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	_, err = ParseBirthdate(future)
	assert.Error(t, err)
}
