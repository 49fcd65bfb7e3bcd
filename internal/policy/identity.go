// Package policy holds the access rules of the platform as pure functions over
// already-fetched records: who the caller is, what they may bypass, what a
// resource must contain before it can be published, and what an enrollment
// transition does to the purchase row.
package policy

import (
	"strings"

	"github.com/google/uuid"
)

const (
	RoleUser       = "user"
	RoleStudent    = "student"
	RoleTeacher    = "teacher"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

var knownRoles = map[string]struct{}{
	RoleUser:       {},
	RoleStudent:    {},
	RoleTeacher:    {},
	RoleInstructor: {},
	RoleAdmin:      {},
	RoleSuperAdmin: {},
}

// IsKnownRole reports whether role is one of the roles an admin may assign.
func IsKnownRole(role string) bool {
	_, ok := knownRoles[NormalizeRole(role)]
	return ok
}

// NormalizeRole lowercases and trims a free-text role.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// Identity is the caller as seen by the policy: the local user row merged with
// whatever the identity provider knew at resolution time.
type Identity struct {
	UserID     uuid.UUID
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	ImageURL   string

	// Role is the locally stored role.
	Role string

	// AltEmails and ExternalRole come from the identity provider and are empty
	// when it could not be reached.
	AltEmails    []string
	ExternalRole string
}

// Emails returns the primary email followed by any alternates, deduplicated case-insensitively.
func (i *Identity) Emails() []string {
	if i == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(i.AltEmails)+1)
	out := make([]string, 0, len(i.AltEmails)+1)
	for _, e := range append([]string{i.Email}, i.AltEmails...) {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Email
	}
	return name
}
