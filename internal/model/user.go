package model

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;size:255;uniqueIndex:idx_users_email;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Name         string    `gorm:"column:name;size:100;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// RefreshToken is one opaque refresh token issued to a user. A row is active
// until it expires or is revoked; neither state is ever left.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"column:user_id;not null;index:idx_refresh_tokens_user_id"`
	Token     string    `gorm:"column:token;size:255;uniqueIndex:idx_refresh_tokens_token;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index:idx_refresh_tokens_expires_at"`
	Revoked   bool      `gorm:"column:revoked;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
