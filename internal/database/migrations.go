package database

import (
	"github.com/amato-app/accounts/internal/models"
)

func allModels() []any {
	return []any{
		&models.User{},
	}
}
