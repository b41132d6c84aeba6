package domain

import "time"

// User represents an operator account. Accounts are seeded out of band;
// there is no self-service registration surface.
type User struct {
	ID           string    `gorm:"column:id;type:text;primaryKey" json:"id"`
	Username     string    `gorm:"column:username;type:text;uniqueIndex:idx_users_username" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;type:text" json:"-"`
	Role         string    `gorm:"column:role;type:text" json:"role"`
	Active       bool      `gorm:"column:active;default:true" json:"active"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}
