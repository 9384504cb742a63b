package application

import (
	"context"

	"gorm.io/gorm"

	"github.com/wadesk/wadesk/core/settings/domain"
	"github.com/wadesk/wadesk/core/settings/infrastructure"
)

type SettingsService struct {
	repo domain.ISettingsRepository
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{
		repo: infrastructure.NewSettingsGormRepository(db),
	}
}

func (s *SettingsService) InitSchema(ctx context.Context) error {
	return s.repo.InitSchema(ctx)
}

func (s *SettingsService) Get(ctx context.Context, key string) (any, error) {
	return s.repo.Get(ctx, key)
}

func (s *SettingsService) Set(ctx context.Context, key string, value any) error {
	return s.repo.Set(ctx, key, value)
}

func (s *SettingsService) List(ctx context.Context) ([]domain.Setting, error) {
	return s.repo.List(ctx)
}

// AIEnabledDefault reads the global toggle applied to newly created
// conversations. Missing or malformed values default to enabled.
func (s *SettingsService) AIEnabledDefault(ctx context.Context) bool {
	value, err := s.repo.Get(ctx, domain.KeyAIEnabledDefault)
	if err != nil || value == nil {
		return true
	}
	enabled, ok := value.(bool)
	if !ok {
		return true
	}
	return enabled
}
