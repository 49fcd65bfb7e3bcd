package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"anoa.com/learnhub/internal/modules/user/dto"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/apperror"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type AuthService interface {
	GoogleLogin(state string) string
	GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
}

type authService struct {
	resolver     IdentityResolver
	tokens       TokenService
	classifier   *policy.Classifier
	googleConfig *oauth2.Config
	userInfoURL  string
}

func NewAuthService(resolver IdentityResolver, tokens TokenService, classifier *policy.Classifier, cfg GoogleConfig) AuthService {
	googleConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		resolver:     resolver,
		tokens:       tokens,
		classifier:   classifier,
		googleConfig: googleConfig,
		userInfoURL:  googleUserInfoURL,
	}
}

func (s *authService) GoogleLogin(state string) string {
	return s.googleConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, apperror.New(http.StatusUnauthorized, "failed to exchange token", fmt.Errorf("%w: %v", apperror.ErrUnauthorized, err))
	}

	gu, err := s.fetchGoogleUser(ctx, s.googleConfig.Client(ctx, token))
	if err != nil {
		return nil, err
	}

	return s.signIn(ctx, gu)
}

func (s *authService) fetchGoogleUser(ctx context.Context, client *http.Client) (*googleUser, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &gu, nil
}

func (s *authService) signIn(ctx context.Context, gu *googleUser) (*dto.AuthResponse, error) {
	if gu.ID == "" {
		return nil, errors.New("google user info has no id")
	}
	if !gu.VerifiedEmail {
		return nil, apperror.New(http.StatusForbidden, "google email is not verified", apperror.ErrForbidden)
	}

	identity, user, err := s.resolver.Resolve(ctx, Claims{
		Subject: "google:" + gu.ID,
		Email:   gu.Email,
		Name:    gu.Name,
		Picture: gu.Picture,
	})
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresAt,
		User:         user,
		Capabilities: s.classifier.Classify(identity, nil),
	}, nil
}
