package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User matches the users table. Only identity and role are read here;
// accounts are managed by the auth service.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"type:text;not null;unique" json:"email"`
	Name      string    `gorm:"type:text" json:"name"`
	Role      string    `gorm:"type:text;not null;default:user" json:"role"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
