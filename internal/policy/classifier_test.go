package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClassifyAnonymous(t *testing.T) {
	c := NewClassifier([]string{"root@example.com"})
	owner := uuid.New()

	assert.Equal(t, Capabilities{}, c.Classify(nil, &owner))
}

func TestClassifyAdminSources(t *testing.T) {
	c := NewClassifier([]string{" Root@Example.com "})

	t.Run("allow-listed email overrides local role", func(t *testing.T) {
		id := &Identity{UserID: uuid.New(), Email: "root@example.com", Role: RoleUser}
		assert.True(t, c.Classify(id, nil).IsAdmin)
	})

	t.Run("local admin role without allow-list entry", func(t *testing.T) {
		id := &Identity{UserID: uuid.New(), Email: "someone@example.com", Role: RoleAdmin}
		assert.True(t, c.Classify(id, nil).IsAdmin)
	})

	t.Run("superadmin role is case-insensitive", func(t *testing.T) {
		id := &Identity{UserID: uuid.New(), Role: " SuperAdmin "}
		assert.True(t, c.Classify(id, nil).IsAdmin)
	})

	t.Run("alternate provider email on allow-list", func(t *testing.T) {
		id := &Identity{UserID: uuid.New(), Email: "alias@example.com", AltEmails: []string{"ROOT@example.com"}, Role: RoleStudent}
		assert.True(t, c.Classify(id, nil).IsAdmin)
	})

	t.Run("external metadata alone never grants admin", func(t *testing.T) {
		id := &Identity{UserID: uuid.New(), Email: "x@example.com", Role: RoleUser, ExternalRole: RoleAdmin}
		assert.False(t, c.Classify(id, nil).IsAdmin)
	})
}

func TestClassifyTeacherPrecedence(t *testing.T) {
	c := NewClassifier(nil)

	cases := []struct {
		name     string
		local    string
		external string
		want     bool
	}{
		{"local teacher", RoleTeacher, "", true},
		{"local instructor", RoleInstructor, RoleStudent, true},
		{"default local falls back to metadata", RoleUser, RoleInstructor, true},
		{"empty local falls back to metadata", "", RoleTeacher, true},
		{"synced local role wins over metadata", RoleStudent, RoleTeacher, false},
		{"nobody says teacher", RoleUser, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := &Identity{UserID: uuid.New(), Role: tc.local, ExternalRole: tc.external}
			assert.Equal(t, tc.want, c.Classify(id, nil).IsTeacher)
		})
	}
}

func TestClassifyOwner(t *testing.T) {
	c := NewClassifier(nil)
	userID := uuid.New()
	other := uuid.New()
	id := &Identity{UserID: userID, Role: RoleTeacher}

	assert.True(t, c.Classify(id, &userID).IsOwner)
	assert.False(t, c.Classify(id, &other).IsOwner)
	assert.False(t, c.Classify(id, nil).IsOwner)

	nilUser := uuid.Nil
	assert.False(t, c.Classify(&Identity{}, &nilUser).IsOwner)
}

func TestCapabilityHelpers(t *testing.T) {
	assert.True(t, Capabilities{IsOwner: true}.CanBypass())
	assert.True(t, Capabilities{IsAdmin: true}.CanBypass())
	assert.False(t, Capabilities{IsTeacher: true}.CanBypass())

	assert.True(t, Capabilities{IsTeacher: true}.CanAuthor())
	assert.True(t, Capabilities{IsAdmin: true}.CanAuthor())
	assert.False(t, Capabilities{IsOwner: true}.CanAuthor())
}

func TestIdentityEmailsDeduplicates(t *testing.T) {
	id := &Identity{Email: "A@x.io", AltEmails: []string{"a@x.io", " ", "b@x.io"}}
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, id.Emails())
	assert.Nil(t, (*Identity)(nil).Emails())
}

func TestIsKnownRole(t *testing.T) {
	assert.True(t, IsKnownRole("Instructor"))
	assert.False(t, IsKnownRole("janitor"))
}
