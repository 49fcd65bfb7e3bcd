package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Enroll ")
	require.NoError(t, err)
	assert.Equal(t, ActionEnroll, a)

	a, err = ParseAction("unenroll")
	require.NoError(t, err)
	assert.Equal(t, ActionUnenroll, a)

	_, err = ParseAction("approve")
	assert.Error(t, err)
}

func TestActionTargets(t *testing.T) {
	assert.Equal(t, StatusApproved, ActionEnroll.TargetStatus())
	assert.True(t, ActionEnroll.GrantsPurchase())

	assert.Equal(t, StatusRejected, ActionUnenroll.TargetStatus())
	assert.False(t, ActionUnenroll.GrantsPurchase())
}

func TestApplicationStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusApproved.Valid())
	assert.True(t, StatusRejected.Valid())
	assert.False(t, ApplicationStatus("archived").Valid())
}
