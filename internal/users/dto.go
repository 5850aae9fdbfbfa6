package users

import (
	"strings"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
)

// CreateUserDTO carries the fields needed to register an account.
type CreateUserDTO struct {
	Email        string
	Name         string
	PasswordHash string
}

// ToModel converts the DTO into a persistable user model.
func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        strings.ToLower(strings.TrimSpace(d.Email)),
		Name:         strings.TrimSpace(d.Name),
		PasswordHash: d.PasswordHash,
	}
}
