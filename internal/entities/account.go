package entities

import "time"

type Account struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	DisplayName    string    `gorm:"size:256" json:"display_name"`
	Email          string    `gorm:"size:255" json:"email"`
	CredentialHash string    `gorm:"size:255" json:"-"` // bcrypt, never serialized
	IsAdmin        bool      `json:"is_admin"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false" json:"created_at"`
}

func (Account) TableName() string {
	return "accounts"
}
