package models

import "time"

// UserAccount is a credential row in the shared users table. Rows are created
// on signup and only ever deleted, never updated.
type UserAccount struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the gorm default of "user_accounts".
func (UserAccount) TableName() string {
	return "users"
}

// RevokedToken records a bearer token that must no longer authenticate,
// written when a session is logged out or its account deleted.
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey" json:"token_id"`
	Username  string    `gorm:"index;not null" json:"username"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
