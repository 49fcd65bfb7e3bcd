package bootstrap

import (
	"testing"

	"anoa.com/learnhub/internal/entity"
	"anoa.com/learnhub/internal/policy"
	"anoa.com/learnhub/pkg/database"
	"anoa.com/learnhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	db, err := database.OpenSQLite(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for i := 0; i < 2; i++ {
		require.NoError(t, SeedCategories(db))
		require.NoError(t, SeedAdminUsers(db, []string{" Root@Example.com ", ""}, logger.Nop()))
	}

	var categories int64
	require.NoError(t, db.Model(&entity.Category{}).Count(&categories).Error)
	assert.Equal(t, int64(len(defaultCategories)), categories)

	var admins []entity.User
	require.NoError(t, db.Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "root@example.com", admins[0].EmailOrEmpty())
	assert.Equal(t, policy.RoleAdmin, admins[0].Role)
	assert.Nil(t, admins[0].ExternalID)
}
