package service

import (
	"testing"
	"time"

	"anoa.com/learnhub/internal/entity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *entity.User {
	ext := "user_abc"
	email := "jane@example.com"
	img := "https://img.example.com/j.png"
	return &entity.User{ID: uuid.New(), ExternalID: &ext, Email: &email, FirstName: "Jane", LastName: "Doe", ImageURL: &img}
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)

	signed, exp, err := tokens.Issue(testUser())
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, Claims{
		Subject: "user_abc",
		Email:   "jane@example.com",
		Name:    "Jane Doe",
		Picture: "https://img.example.com/j.png",
	}, claims)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	signed, _, err := NewTokenService("secret", time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = NewTokenService("other", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenService("secret", time.Minute).(*tokenService)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.Issue(testUser())
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Minute).Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenService("secret", time.Minute).Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRequiresExternalID(t *testing.T) {
	_, _, err := NewTokenService("secret", time.Hour).Issue(&entity.User{ID: uuid.New()})
	assert.Error(t, err)
}
