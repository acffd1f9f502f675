package model

import (
	"time"
)

// User 用户模型
type User struct {
	ID            int       `json:"id" db:"id"`
	Email         string    `json:"email" db:"email" gorm:"unique"`
	Username      string    `json:"username" db:"username"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       int
	Email    string
	Username string
}
