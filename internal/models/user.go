package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей платформы.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleArbitrator = "arbitrator"
	RoleAdmin      = "admin"
)

// User описывает сущность пользователя платформы.
type User struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Username       string     `db:"username" json:"username"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Role           string     `db:"role" json:"role"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	DisputeStrikes int        `db:"dispute_strikes" json:"dispute_strikes"`
	JobsCompleted  int        `db:"jobs_completed" json:"jobs_completed"`
	EarnedCents    int64      `db:"earned_cents" json:"earned_cents"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// IsArbitrator сообщает, может ли пользователь разрешать споры.
func (u *User) IsArbitrator() bool {
	return u.Role == RoleArbitrator || u.Role == RoleAdmin
}
