package domain

import (
	"context"
	"time"
)

// Agent is a credentialed human operator. Agents are deactivated, never
// hard-deleted, so historical assignments keep resolving.
type Agent struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"not null" json:"-"`
	DisplayName  string     `json:"display_name"`
	Email        string     `json:"email"`
	Active       bool       `gorm:"default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

type IAgentRepository interface {
	AutoMigrate() error
	FindByUsername(ctx context.Context, username string) (*Agent, error)
	FindByID(ctx context.Context, id uint) (*Agent, error)
	Create(ctx context.Context, agent *Agent) error
	TouchLastLogin(ctx context.Context, id uint) error
	Deactivate(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}
