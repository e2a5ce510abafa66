package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type User struct {
	ID           int         `json:"id"`
	Username     string      `json:"username"`
	Password     string      `json:"-"` // Không bao giờ trả về password hash trong JSON
	IsActive     bool        `json:"is_active"`
	IsSuperuser  bool        `json:"is_superuser"`
	RefreshToken null.String `json:"-"` // Refresh token đang hiệu lực (một token duy nhất cho mỗi user)
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type RegisterUserDTO struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6,max=100"`
}

type LoginUserDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordDTO struct {
	NewPassword string `json:"new_password" binding:"required,min=6,max=100"`
}

type TokenResponseDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
