package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ExternalProfile is what the identity provider knows about a subject.
type ExternalProfile struct {
	ID           string
	PrimaryEmail string

	// Emails lists verified addresses only.
	Emails        []string
	EmailVerified bool
	FirstName     string
	LastName      string
	ImageURL      string
	Role          string
}

type IdentityProvider interface {
	FetchUser(ctx context.Context, subject string) (*ExternalProfile, error)
}

type httpIdentityProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPIdentityProvider returns nil when baseURL is empty; the resolver then works from
// token claims and local rows only.
func NewHTTPIdentityProvider(baseURL, apiKey string, timeout time.Duration) IdentityProvider {
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	return &httpIdentityProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type providerUser struct {
	ID                    string `json:"id"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
		Verification *struct {
			Status string `json:"status"`
		} `json:"verification"`
	} `json:"email_addresses"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	PublicMetadata struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

func (p *httpIdentityProvider) FetchUser(ctx context.Context, subject string) (*ExternalProfile, error) {
	endpoint := fmt.Sprintf("%s/users/%s", p.baseURL, url.PathEscape(subject))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var raw providerUser
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode identity provider user: %w", err)
	}

	return raw.toProfile(), nil
}

func (u providerUser) toProfile() *ExternalProfile {
	profile := &ExternalProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		ImageURL:  u.ImageURL,
		Role:      strings.ToLower(strings.TrimSpace(u.PublicMetadata.Role)),
	}

	for _, e := range u.EmailAddresses {
		if e.EmailAddress == "" {
			continue
		}
		verified := e.Verification != nil && e.Verification.Status == "verified"
		if verified {
			profile.Emails = append(profile.Emails, e.EmailAddress)
		}
		if e.ID == u.PrimaryEmailAddressID {
			profile.PrimaryEmail = e.EmailAddress
			profile.EmailVerified = verified
		}
	}
	if !profile.EmailVerified && len(profile.Emails) > 0 {
		profile.PrimaryEmail = profile.Emails[0]
		profile.EmailVerified = true
	}

	return profile
}
