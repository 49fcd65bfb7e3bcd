package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPIdentityProviderFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/user_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "user_123",
			"primary_email_address_id": "e2",
			"email_addresses": [
				{"id": "e1", "email_address": "old@example.com"},
				{"id": "e2", "email_address": "jane@example.com", "verification": {"status": "verified"}}
			],
			"first_name": "Jane",
			"last_name": "Doe",
			"image_url": "https://img.example.com/jane.png",
			"public_metadata": {"role": " Teacher "}
		}`))
	}))
	defer srv.Close()

	p := NewHTTPIdentityProvider(srv.URL+"/v1/", "sk_test", time.Second)
	profile, err := p.FetchUser(context.Background(), "user_123")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", profile.PrimaryEmail)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, []string{"jane@example.com"}, profile.Emails)
	assert.Equal(t, "teacher", profile.Role)
	assert.Equal(t, "Jane", profile.FirstName)
}

func TestHTTPIdentityProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPIdentityProvider(srv.URL, "", time.Second)
	_, err := p.FetchUser(context.Background(), "user_1")
	assert.Error(t, err)
}

func TestNewHTTPIdentityProviderDisabled(t *testing.T) {
	assert.Nil(t, NewHTTPIdentityProvider(" ", "key", time.Second))
}

func TestHTTPIdentityProviderUnverifiedPrimary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "user_9",
			"primary_email_address_id": "e1",
			"email_addresses": [
				{"id": "e1", "email_address": "boss@example.com"},
				{"id": "e2", "email_address": "me@example.com", "verification": {"status": "verified"}}
			]
		}`))
	}))
	defer srv.Close()

	profile, err := NewHTTPIdentityProvider(srv.URL, "", time.Second).FetchUser(context.Background(), "user_9")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", profile.PrimaryEmail)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, []string{"me@example.com"}, profile.Emails)
}

func TestHTTPIdentityProviderNoVerifiedEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "user_8", "email_addresses": [{"id": "e1", "email_address": "boss@example.com"}]}`))
	}))
	defer srv.Close()

	profile, err := NewHTTPIdentityProvider(srv.URL, "", time.Second).FetchUser(context.Background(), "user_8")
	require.NoError(t, err)
	assert.Empty(t, profile.PrimaryEmail)
	assert.False(t, profile.EmailVerified)
}
