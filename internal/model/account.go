package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a shop customer or administrator. Email is stored lower-cased
// and is the natural key.
type Account struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	IsAdmin      bool      `json:"isAdmin" gorm:"default:false;not null"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AccountView is the public projection of an account.
type AccountView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// View strips the secret.
func (a *Account) View() AccountView {
	return AccountView{
		ID:        a.ID,
		Email:     a.Email,
		IsAdmin:   a.IsAdmin,
		CreatedAt: a.CreatedAt,
	}
}
