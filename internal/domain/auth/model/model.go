package model

import (
	"github.com/google/uuid"
	"time"
)

type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	RefreshToken *string   `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasRefreshToken reports whether the account currently holds token.
func (a Account) HasRefreshToken(token string) bool {
	return a.RefreshToken != nil && token != "" && *a.RefreshToken == token
}

type Session struct {
	Email        string
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}

type AccessGrant struct {
	Email       string
	AccessToken string
}
