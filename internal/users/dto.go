package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/merchforge/merchforge-backend/pkg/db/models"
	"github.com/merchforge/merchforge-backend/pkg/enums"
	"github.com/merchforge/merchforge-backend/pkg/types"
)

// UserDTO is the transport shape of a user.
type UserDTO struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	FullName  string         `json:"full_name"`
	Phone     *string        `json:"phone,omitempty"`
	Role      enums.UserRole `json:"role"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ProvisionInput holds the data required to create or refresh a user.
type ProvisionInput struct {
	Email    string
	FullName string
	Phone    *string
	Role     enums.UserRole
}

// UpdateProfileInput edits the caller's profile. An explicit null phone clears it.
type UpdateProfileInput struct {
	FullName *string
	Phone    types.Optional[string]
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// FromProvision builds a new active user model.
func FromProvision(email, name string, input ProvisionInput) *models.User {
	return &models.User{
		Email:    email,
		FullName: name,
		Phone:    input.Phone,
		Role:     input.Role,
		IsActive: true,
	}
}
