package domain

import "time"

type UserRole string

const (
	UserRoleStudent     UserRole = "student"
	UserRoleSystemAdmin UserRole = "system_admin"
)

type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Email         string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName      string     `gorm:"size:255;not null" json:"full_name"`
	Role          UserRole   `gorm:"size:32;not null;default:student;index" json:"role"`
	PasswordHash  string     `gorm:"size:1024" json:"-"`
	EmailVerified bool       `gorm:"not null;default:false" json:"email_verified"`
	PasswordSetAt *time.Time `json:"password_set_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleSystemAdmin
}
