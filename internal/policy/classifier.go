package policy

import (
	"strings"

	"github.com/google/uuid"
)

// Capabilities are the boolean flags every access decision is built from.
type Capabilities struct {
	IsAdmin   bool `json:"is_admin"`
	IsTeacher bool `json:"is_teacher"`
	IsOwner   bool `json:"is_owner"`
}

// CanBypass reports whether the caller may see a resource regardless of its publish state.
func (c Capabilities) CanBypass() bool {
	return c.IsAdmin || c.IsOwner
}

// CanAuthor reports whether the caller may create courses.
func (c Capabilities) CanAuthor() bool {
	return c.IsAdmin || c.IsTeacher
}

// Classifier derives Capabilities from an Identity. The admin allow-list is fixed at construction.
type Classifier struct {
	adminEmails map[string]struct{}
}

func NewClassifier(adminEmails []string) *Classifier {
	set := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if key := strings.ToLower(strings.TrimSpace(e)); key != "" {
			set[key] = struct{}{}
		}
	}
	return &Classifier{adminEmails: set}
}

// Classify computes capabilities for identity against an optional resource owner.
// A nil identity (anonymous caller) has no capabilities.
func (c *Classifier) Classify(identity *Identity, ownerID *uuid.UUID) Capabilities {
	if identity == nil {
		return Capabilities{}
	}
	return Capabilities{
		IsAdmin:   c.isAdmin(identity),
		IsTeacher: isTeacher(identity),
		IsOwner:   ownerID != nil && identity.UserID != uuid.Nil && *ownerID == identity.UserID,
	}
}

// IsAdminEmail reports whether email is on the allow-list.
func (c *Classifier) IsAdminEmail(email string) bool {
	_, ok := c.adminEmails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// isAdmin checks the local role and the allow-list independently; either one grants admin.
func (c *Classifier) isAdmin(identity *Identity) bool {
	switch NormalizeRole(identity.Role) {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	for _, email := range identity.Emails() {
		if c.IsAdminEmail(email) {
			return true
		}
	}
	return false
}

// isTeacher trusts the local role once it has been synced away from the default,
// and falls back to provider metadata before that.
func isTeacher(identity *Identity) bool {
	local := NormalizeRole(identity.Role)
	if local != "" && local != RoleUser {
		return isTeacherRole(local)
	}
	return isTeacherRole(NormalizeRole(identity.ExternalRole))
}

func isTeacherRole(role string) bool {
	return role == RoleTeacher || role == RoleInstructor
}
