package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/modules/user/repository"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/logger"
	"anoa.com/learnhub/pkg/mailer"
	"gorm.io/gorm"
)

// Claims is the identity data carried by a verified session token.
type Claims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type IdentityResolver interface {
	// Resolve maps a subject to its local user, provisioning the row on first sight.
	// An empty subject resolves to nil (anonymous).
	Resolve(ctx context.Context, claims Claims) (*policy.Identity, *entity.User, error)
}

type identityResolver struct {
	repo     repository.UserRepository
	provider IdentityProvider
	mail     mailer.Mailer
	log      *logger.Logger
}

func NewIdentityResolver(repo repository.UserRepository, provider IdentityProvider, mail mailer.Mailer, log *logger.Logger) IdentityResolver {
	return &identityResolver{
		repo:     repo,
		provider: provider,
		mail:     mail,
		log:      log,
	}
}

func (r *identityResolver) Resolve(ctx context.Context, claims Claims) (*policy.Identity, *entity.User, error) {
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, nil, nil
	}

	profile := r.fetchProfile(ctx, subject)

	user, err := r.repo.FindByExternalID(ctx, subject)
	switch {
	case err == nil:
		if profile != nil {
			r.refresh(ctx, user, profile)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = r.provision(ctx, subject, claims, profile)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	return buildIdentity(user, claims, profile), user, nil
}

func (r *identityResolver) fetchProfile(ctx context.Context, subject string) *ExternalProfile {
	if r.provider == nil {
		return nil
	}
	profile, err := r.provider.FetchUser(ctx, subject)
	if err != nil {
		r.log.Warn("identity provider unavailable, using local data", "subject", subject, "error", err)
		return nil
	}
	return profile
}

// provision links an existing row with the same email (e.g. a seeded admin) or creates a new one.
func (r *identityResolver) provision(ctx context.Context, subject string, claims Claims, profile *ExternalProfile) (*entity.User, error) {
	email := verifiedEmail(claims, profile)

	if email != "" {
		existing, err := r.repo.FindByEmail(ctx, email)
		if err == nil && existing.ExternalID == nil {
			existing.ExternalID = &subject
			fillBlanks(existing, claims, profile)
			if err := r.repo.Update(ctx, existing); err != nil {
				return nil, fmt.Errorf("failed to link user: %w", err)
			}
			r.log.Info("linked existing user to identity", "subject", subject, "email", email)
			return existing, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}
		if err == nil {
			// The address already belongs to another identity.
			email = ""
		}
	}

	user := &entity.User{ExternalID: &subject, Role: policy.RoleUser}
	if email != "" {
		user.Email = &email
	}
	fillBlanks(user, claims, profile)

	if err := r.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent first request for the same subject.
			return r.repo.FindByExternalID(ctx, subject)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("provisioned new user", "subject", subject, "email", email)
	if email != "" {
		r.mail.Send(email, "Welcome to LearnHub",
			fmt.Sprintf("Hi %s,\n\nYour LearnHub account is ready. Browse the catalog and apply for your first course.", displayName(user)))
	}
	return user, nil
}

// verifiedEmail picks the address used to link and store a new user. Token claims are
// verified at sign-in; a provider address counts only when the provider verified it.
func verifiedEmail(claims Claims, profile *ExternalProfile) string {
	email := claims.Email
	if profile != nil && profile.EmailVerified && profile.PrimaryEmail != "" {
		email = profile.PrimaryEmail
	}
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *identityResolver) refresh(ctx context.Context, user *entity.User, profile *ExternalProfile) {
	before := *user
	fillBlanks(user, Claims{}, profile)
	if profile.ImageURL != "" && (user.ImageURL == nil || *user.ImageURL != profile.ImageURL) {
		img := profile.ImageURL
		user.ImageURL = &img
	}
	if sameProfile(&before, user) {
		return
	}
	if err := r.repo.Update(ctx, user); err != nil {
		r.log.Warn("failed to refresh user from identity provider", "user_id", user.ID, "error", err)
	}
}

func fillBlanks(user *entity.User, claims Claims, profile *ExternalProfile) {
	first, last, image := "", "", claims.Picture
	if name := strings.TrimSpace(claims.Name); name != "" {
		parts := strings.SplitN(name, " ", 2)
		first = parts[0]
		if len(parts) == 2 {
			last = parts[1]
		}
	}
	if profile != nil {
		if profile.FirstName != "" || profile.LastName != "" {
			first, last = profile.FirstName, profile.LastName
		}
		if profile.ImageURL != "" {
			image = profile.ImageURL
		}
	}

	if user.FirstName == "" {
		user.FirstName = first
	}
	if user.LastName == "" {
		user.LastName = last
	}
	if user.ImageURL == nil && image != "" {
		user.ImageURL = &image
	}
}

func sameProfile(a, b *entity.User) bool {
	return a.FirstName == b.FirstName &&
		a.LastName == b.LastName &&
		ptrEqual(a.ImageURL, b.ImageURL)
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func displayName(user *entity.User) string {
	if name := user.FullName(); name != "" {
		return name
	}
	return "there"
}

func buildIdentity(user *entity.User, claims Claims, profile *ExternalProfile) *policy.Identity {
	identity := &policy.Identity{
		UserID:    user.ID,
		Email:     user.EmailOrEmpty(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
	if user.ExternalID != nil {
		identity.ExternalID = *user.ExternalID
	}
	if user.ImageURL != nil {
		identity.ImageURL = *user.ImageURL
	}
	if claims.Email != "" {
		identity.AltEmails = append(identity.AltEmails, claims.Email)
	}
	if profile != nil {
		identity.AltEmails = append(identity.AltEmails, profile.Emails...)
		identity.ExternalRole = profile.Role
	}
	return identity
}
