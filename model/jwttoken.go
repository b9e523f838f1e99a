package model

import "github.com/golang-jwt/jwt/v5"

// RefreshToken is the stored, hashed refresh token. One row per user;
// signin and refresh replace it, signout revokes it.
type RefreshToken struct {
	UserID    string `gorm:"column:user_id;primaryKey;type:text" json:"userId"`
	TokenHash string `gorm:"not null" json:"-"`
	CreatedAt int64  `json:"createdAt"` // creation time in seconds
	Revoked   bool   `gorm:"not null;default:false" json:"revoked"`
	ExpiresIn int64  `json:"expiresIn"` // expiration in seconds
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type AccessRefresh struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
