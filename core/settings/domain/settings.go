package domain

import "context"

// Setting is a dynamic, JSON-valued configuration entry.
type Setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type ISettingsRepository interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
	List(ctx context.Context) ([]Setting, error)
	Delete(ctx context.Context, key string) error

	InitSchema(ctx context.Context) error
}

// Keys defined in the system.
const (
	KeyAIEnabledDefault = "ai_enabled_default"
	KeyBusinessName     = "business_name"
	KeyWelcomeMessage   = "welcome_message"
)
