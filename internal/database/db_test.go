package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/amato-app/accounts/internal/models"
)

func TestOpenAndMigrateSQLiteEnforcesUniqueEmail(t *testing.T) {
	db, err := OpenAndMigrate(Config{Driver: "sqlite"})
	require.NoError(t, err)

	suffix := uuid.NewString()
	first := models.User{
		Name:        "Ada",
		Email:       "ada-" + suffix + "@example.com",
		PhoneNumber: models.NullableString("+1555" + suffix[:8]),
		Password:    "hash",
	}
	require.NoError(t, db.Create(&first).Error)
	require.NotEmpty(t, first.ID)

	duplicate := models.User{
		Name:        "Imposter",
		Email:       first.Email,
		PhoneNumber: models.NullableString("+1666" + suffix[:8]),
		Password:    "hash",
	}
	require.Error(t, db.Create(&duplicate).Error)
}
