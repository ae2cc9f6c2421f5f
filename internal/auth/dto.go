package auth

import (
	"github.com/angelmondragon/wholesalehub-backend/internal/users"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
)

// RegisterRequest onboards a retailer or wholesaler account.
type RegisterRequest struct {
	Name     string         `json:"name" validate:"required,max=200"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8,max=128"`
	Role     enums.UserRole `json:"role" validate:"required"`
	Company  *string        `json:"company,omitempty" validate:"omitempty,max=200"`
	Phone    *string        `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token minted at login.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}
